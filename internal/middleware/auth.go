package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/o2gather/backend/internal/model"
)

// SessionName is the cookie holding the opaque session token
const SessionName = "o2gather_session"

// SessionTokenKey is the session value carrying the raw token
const SessionTokenKey = "token"

// SessionResolver maps a raw session token to a user ID
type SessionResolver interface {
	ResolveSession(ctx context.Context, rawToken string) (string, error)
}

// Auth requires a live session and puts the user ID on the context.
// Requests without one get a 401 problem response.
func Auth(store sessions.Store, resolver SessionResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := resolveUser(r, store, resolver)
			if userID == "" {
				model.NewUnauthorizedError("authentication required").WriteJSON(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the session when present but never rejects.
// Read endpoints use it so owners see their roster while everyone else
// still gets the public view.
func OptionalAuth(store sessions.Store, resolver SessionResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := resolveUser(r, store, resolver); userID != "" {
				r = r.WithContext(context.WithValue(r.Context(), UserIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the authenticated user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func resolveUser(r *http.Request, store sessions.Store, resolver SessionResolver) string {
	session, err := store.Get(r, SessionName)
	if err != nil {
		return ""
	}

	rawToken, ok := session.Values[SessionTokenKey].(string)
	if !ok || rawToken == "" {
		return ""
	}

	userID, err := resolver.ResolveSession(r.Context(), rawToken)
	if err != nil {
		return ""
	}
	return userID
}
