package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/o2gather/backend/internal/model"
)

// RateLimiter applies a per-client token bucket. A client starts with a
// full bucket of rate+burst tokens and tokens flow back continuously at
// rate per window, so short spikes pass while a sustained flood is held
// to the configured rate.
type RateLimiter struct {
	rate   float64
	burst  float64
	window time.Duration

	mu      sync.Mutex
	clients map[string]*tokenBucket

	now  func() time.Time
	stop chan struct{}
}

type tokenBucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimitConfig configures a RateLimiter. Zero values fall back to
// 100 requests per minute with a burst of 20, swept every 5 minutes.
type RateLimitConfig struct {
	Rate    int           // requests allowed per Window
	Window  time.Duration // refill window
	Burst   int           // extra headroom on top of Rate
	Cleanup time.Duration // idle-client sweep interval
}

// NewRateLimiter builds a limiter and starts its background sweep.
// Call Stop when done.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst < 0 {
		cfg.Burst = 20
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = 5 * time.Minute
	}

	rl := &RateLimiter{
		rate:    float64(cfg.Rate),
		burst:   float64(cfg.Burst),
		window:  cfg.Window,
		clients: make(map[string]*tokenBucket),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.janitor(cfg.Cleanup)
	return rl
}

// Stop ends the background sweep.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

func (rl *RateLimiter) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

// sweep drops clients idle for two full windows; their next request
// starts over with a fresh bucket anyway.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	idle := rl.now().Add(-2 * rl.window)
	for key, b := range rl.clients {
		if b.lastSeen.Before(idle) {
			delete(rl.clients, key)
		}
	}
}

// take spends one token for key. When the bucket is empty it reports
// how long until the next token is available.
func (rl *RateLimiter) take(key string) (ok bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	capacity := rl.rate + rl.burst

	b, found := rl.clients[key]
	if !found {
		b = &tokenBucket{tokens: capacity}
		rl.clients[key] = b
	} else {
		b.tokens += rl.rate * float64(now.Sub(b.lastSeen)) / float64(rl.window)
		if b.tokens > capacity {
			b.tokens = capacity
		}
	}
	b.lastSeen = now

	if b.tokens < 1 {
		perToken := float64(rl.window) / rl.rate
		return false, time.Duration((1 - b.tokens) * perToken)
	}
	b.tokens--
	return true, 0
}

// RateLimit rejects clients that drain their bucket with a 429 problem
// response and a Retry-After hint. Authenticated clients are keyed by
// user id so one busy NAT address doesn't starve everyone behind it;
// anonymous traffic falls back to the remote address.
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetUserID(r.Context())
			if key == "" {
				key = r.RemoteAddr
			}

			ok, wait := limiter.take(key)
			if !ok {
				retryAfter := int(wait/time.Second) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				model.NewRateLimitError(retryAfter).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
