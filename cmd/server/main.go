package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/o2gather/backend/internal/config"
	"github.com/o2gather/backend/internal/database"
	"github.com/o2gather/backend/internal/handler"
	"github.com/o2gather/backend/internal/middleware"
	"github.com/o2gather/backend/internal/repository"
	"github.com/o2gather/backend/internal/service"
	"github.com/o2gather/backend/pkg/googletoken"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Server.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Initialize Google token verifier
	verifier := googletoken.NewVerifier(googletoken.Config{
		ClientID: cfg.Google.ClientID,
	})

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	eventRepo := repository.NewEventRepository(db)
	memberRepo := repository.NewMemberRepository(db)

	// Initialize services
	authService := service.NewAuthService(verifier, oauthConfig, userRepo, sessionRepo, cfg.Session.TTL)
	eventService := service.NewEventService(eventRepo, memberRepo)
	memberService := service.NewMemberService(eventRepo, memberRepo)
	userService := service.NewUserService(userRepo)

	// Session cookie store
	store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.TTL / time.Second),
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   cfg.Server.RateLimitRPM,
		Window: time.Minute,
		Burst:  cfg.Server.RateLimitBurst,
	})
	defer rateLimiter.Stop()

	// Initialize idempotency store
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL:     24 * time.Hour,
		Cleanup: time.Hour,
	})
	defer idempotencyStore.Stop()

	// Expired sessions are swept in the background; a stale session is
	// also rejected (and deleted) whenever it is presented.
	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeSessions(purgeCtx, authService, time.Hour)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, store, oauthConfig)
	eventHandler := handler.NewEventHandler(eventService)
	memberHandler := handler.NewMemberHandler(memberService)
	userHandler := handler.NewUserHandler(userService)
	healthHandler := handler.NewHealthHandler(db)

	// Create router and register routes
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /api/healthz", healthHandler.Health)

	// Auth endpoints (public)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("GET /api/auth/google", authHandler.GoogleRedirect)
	mux.HandleFunc("GET /api/auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("POST /api/logout", authHandler.Logout)

	// Event endpoints. Reads work anonymously; a signed-in viewer gets
	// the owner view of their own events.
	authRequired := middleware.Auth(store, authService)
	authOptional := middleware.OptionalAuth(store, authService)

	mux.Handle("GET /api/events", authOptional(http.HandlerFunc(eventHandler.ListEvents)))
	mux.Handle("GET /api/events/{event_id}", authOptional(http.HandlerFunc(eventHandler.GetEvent)))
	mux.Handle("GET /api/categories", authOptional(http.HandlerFunc(eventHandler.ListCategories)))

	mux.Handle("POST /api/events", authRequired(http.HandlerFunc(eventHandler.CreateEvent)))
	mux.Handle("PATCH /api/events/{event_id}", authRequired(http.HandlerFunc(eventHandler.UpdateEvent)))
	mux.Handle("DELETE /api/events/{event_id}", authRequired(http.HandlerFunc(eventHandler.DeleteEvent)))

	// Membership endpoints
	mux.Handle("PUT /api/events/{event_id}/join", authRequired(http.HandlerFunc(memberHandler.Join)))
	mux.Handle("POST /api/events/{event_id}/leave", authRequired(http.HandlerFunc(memberHandler.Leave)))

	// User endpoints
	mux.Handle("GET /api/users/{user_id}", authRequired(http.HandlerFunc(userHandler.GetUser)))
	mux.Handle("PATCH /api/users/{user_id}", authRequired(http.HandlerFunc(userHandler.UpdateUser)))
	mux.Handle("GET /api/users/{user_id}/events", authRequired(http.HandlerFunc(eventHandler.ListUserEvents)))

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
		middleware.Idempotency(idempotencyStore),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

// purgeSessions deletes expired sessions on a fixed interval until ctx
// is cancelled.
func purgeSessions(ctx context.Context, auth *service.AuthService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PurgeExpiredSessions(ctx); err != nil {
				slog.Error("failed to purge expired sessions", slog.String("error", err.Error()))
			}
		}
	}
}
