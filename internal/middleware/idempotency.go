package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"
)

// IdempotencyStore remembers the first response produced under an
// Idempotency-Key so a retry of the same request replays it instead of
// running the handler again. A join that times out on the client can be
// resent without committing twice.
type IdempotencyStore struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]*storedResponse

	now  func() time.Time
	stop chan struct{}
}

// storedResponse is one cached response. ready closes once the first
// request finishes, which is when the other fields become readable.
type storedResponse struct {
	status  int
	header  http.Header
	body    []byte
	savedAt time.Time
	done    bool
	ready   chan struct{}
}

// IdempotencyConfig configures an IdempotencyStore. Zero values fall
// back to a 24 hour replay horizon swept hourly.
type IdempotencyConfig struct {
	TTL     time.Duration // how long a response stays replayable
	Cleanup time.Duration // expiry sweep interval
}

// NewIdempotencyStore builds a store and starts its background sweep.
// Call Stop when done.
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Hour
	}

	s := &IdempotencyStore{
		ttl:     cfg.TTL,
		entries: make(map[string]*storedResponse),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go s.janitor(cfg.Cleanup)
	return s
}

// Stop ends the background sweep.
func (s *IdempotencyStore) Stop() {
	close(s.stop)
}

func (s *IdempotencyStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

func (s *IdempotencyStore) sweepExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if entry.done && now.After(entry.savedAt.Add(s.ttl)) {
			delete(s.entries, key)
		}
	}
}

// claim looks up key. The first caller gets (nil, true) and must
// produce the response; a duplicate blocks until the first finishes and
// then gets the stored response.
func (s *IdempotencyStore) claim(key string) (*storedResponse, bool) {
	s.mu.Lock()
	entry, found := s.entries[key]
	if found && entry.done && s.now().After(entry.savedAt.Add(s.ttl)) {
		delete(s.entries, key)
		found = false
	}
	if !found {
		entry = &storedResponse{ready: make(chan struct{})}
		s.entries[key] = entry
		s.mu.Unlock()
		return nil, true
	}
	s.mu.Unlock()

	<-entry.ready
	return entry, false
}

// complete stores the produced response and releases any duplicates
// waiting on it.
func (s *IdempotencyStore) complete(key string, status int, header http.Header, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found := s.entries[key]
	if !found || entry.done {
		return
	}
	entry.status = status
	entry.header = header.Clone()
	entry.body = body
	entry.savedAt = s.now()
	entry.done = true
	close(entry.ready)
}

// fingerprint ties the stored response to the exact request: the same
// key with a different body, path, or caller is a different request and
// must not replay.
func fingerprint(caller, key, method, path string, body []byte) string {
	h := sha256.New()
	for _, part := range []string{caller, key, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// captureWriter tees the response into a buffer for the store.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.buf.Write(b)
	return cw.ResponseWriter.Write(b)
}

// Idempotency replays stored responses for repeated POST, PUT, and
// PATCH requests carrying the same Idempotency-Key. Replays are marked
// with X-Idempotency-Replayed. Requests without the header pass through.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			caller := GetUserID(r.Context())
			if caller == "" {
				caller = r.RemoteAddr
			}
			fp := fingerprint(caller, key, r.Method, r.URL.Path, body)

			stored, first := store.claim(fp)
			if !first {
				replay(w, stored)
				return
			}

			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(cw, r)
			store.complete(fp, cw.status, cw.Header(), cw.buf.Bytes())
		})
	}
}

func replay(w http.ResponseWriter, stored *storedResponse) {
	for name, values := range stored.header {
		w.Header()[name] = append([]string(nil), values...)
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(stored.status)
	_, _ = w.Write(stored.body)
}
