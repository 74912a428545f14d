package repository

import (
	"context"
	"errors"

	"github.com/o2gather/backend/internal/database"
	"github.com/o2gather/backend/internal/model"
)

// SessionRepository handles server-side login sessions. Records are keyed
// by the token hash, so a raw token from a cookie resolves in one lookup.
type SessionRepository struct {
	db database.Database
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db database.Database) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		CREATE type::thing("session", $token_hash) CONTENT {
			token_hash: $token_hash,
			user_id: type::record($user_id),
			expires_at: $expires_at,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"token_hash": session.TokenHash,
		"user_id":    session.UserID,
		"expires_at": session.ExpiresAt,
	}
	return r.db.Execute(ctx, query, vars)
}

// GetByTokenHash retrieves a session. Returns (nil, nil) when absent.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	query := `SELECT * FROM type::thing("session", $token_hash)`
	vars := map[string]interface{}{"token_hash": tokenHash}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	m, ok := result.(map[string]interface{})
	if !ok {
		return nil, database.ErrQuery
	}

	return &model.Session{
		TokenHash: getString(m, "token_hash"),
		UserID:    extractRecordID(m["user_id"]),
		ExpiresAt: timeValue(getTime(m, "expires_at")),
		CreatedOn: timeValue(getTime(m, "created_on")),
	}, nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(ctx context.Context, tokenHash string) error {
	query := `DELETE type::thing("session", $token_hash)`
	vars := map[string]interface{}{"token_hash": tokenHash}
	return r.db.Execute(ctx, query, vars)
}

// DeleteExpired removes all sessions past their expiry.
func (r *SessionRepository) DeleteExpired(ctx context.Context) error {
	return r.db.Execute(ctx, `DELETE session WHERE expires_at < time::now()`, nil)
}
