package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/o2gather/backend/internal/model"
	"github.com/o2gather/backend/pkg/googletoken"
)

// TokenVerifier validates Google ID tokens
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (*googletoken.Claims, error)
}

// CodeExchanger swaps an OAuth authorization code for tokens.
// *oauth2.Config satisfies this.
type CodeExchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// SessionRepositoryInterface defines the session storage interface
type SessionRepositoryInterface interface {
	Create(ctx context.Context, session *model.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context) error
}

// AuthService handles Google sign-in and server-side sessions.
//
// Both login paths (the sign-in button credential and the authorization
// code flow) end in the same place: a verified ID token, a user row
// keyed by the Google subject, and an opaque session token. Only the
// token's SHA-256 hash is stored; the raw token lives in the cookie.
type AuthService struct {
	verifier   TokenVerifier
	exchanger  CodeExchanger
	users      UserRepositoryInterface
	sessions   SessionRepositoryInterface
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	verifier TokenVerifier,
	exchanger CodeExchanger,
	users UserRepositoryInterface,
	sessions SessionRepositoryInterface,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		verifier:   verifier,
		exchanger:  exchanger,
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// LoginWithCredential signs a user in from a Google sign-in button
// credential. Returns the user and the raw session token.
func (s *AuthService) LoginWithCredential(ctx context.Context, credential string) (*model.User, string, error) {
	claims, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, "", ErrInvalidIDToken
	}
	return s.establishSession(ctx, claims)
}

// LoginWithCode signs a user in from an OAuth authorization code
func (s *AuthService) LoginWithCode(ctx context.Context, code string) (*model.User, string, error) {
	token, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, "", ErrInvalidIDToken
	}

	claims, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, "", ErrInvalidIDToken
	}
	return s.establishSession(ctx, claims)
}

// Logout invalidates a session token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	return s.sessions.Delete(ctx, hashToken(rawToken))
}

// ResolveSession maps a raw session token to a user ID.
// Expired sessions are deleted on sight.
func (s *AuthService) ResolveSession(ctx context.Context, rawToken string) (string, error) {
	if rawToken == "" {
		return "", ErrSessionInvalid
	}

	hash := hashToken(rawToken)
	session, err := s.sessions.GetByTokenHash(ctx, hash)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", ErrSessionInvalid
	}
	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, hash)
		return "", ErrSessionInvalid
	}

	return session.UserID, nil
}

// PurgeExpiredSessions removes all sessions past their expiry
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

func (s *AuthService) establishSession(ctx context.Context, claims *googletoken.Claims) (*model.User, string, error) {
	var avatar *string
	if claims.Picture != "" {
		avatar = &claims.Picture
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}

	user, err := s.users.GetOrCreateBySubject(ctx, claims.Subject, name, claims.Email, avatar)
	if err != nil {
		return nil, "", err
	}

	rawToken, err := generateToken()
	if err != nil {
		return nil, "", err
	}

	session := &model.Session{
		TokenHash: hashToken(rawToken),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", err
	}

	return user, rawToken, nil
}

// generateToken creates a random opaque session token
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// hashToken returns the hex SHA-256 of a token for storage
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
