package repository

import (
	"context"
	"errors"

	"github.com/o2gather/backend/internal/database"
	"github.com/o2gather/backend/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreateBySubject looks up a user by the identity provider's stable
// subject, creating the record on first login. Profile fields of an
// existing user are left untouched; logins never overwrite edits.
func (r *UserRepository) GetOrCreateBySubject(ctx context.Context, subject, name, email string, avatar *string) (*model.User, error) {
	existing, err := r.getBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	query := `
		CREATE user CONTENT {
			subject: $subject,
			name: $name,
			email: $email,
			avatar: $avatar,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"subject": subject,
		"name":    name,
		"email":   email,
		"avatar":  avatar,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		// Two first logins can race; the unique index on subject makes the
		// loser fail, in which case the winner's record is the answer.
		if isUniqueConstraintError(err) {
			return r.getBySubject(ctx, subject)
		}
		return nil, err
	}

	return parseUser(result)
}

// Get retrieves a user by ID. Returns (nil, nil) when the user does not exist.
func (r *UserRepository) Get(ctx context.Context, userID string) (*model.User, error) {
	query := `SELECT * FROM type::record($user_id)`
	vars := map[string]interface{}{"user_id": userID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseUser(result)
}

// Update applies the given field updates and returns the user after the write.
func (r *UserRepository) Update(ctx context.Context, userID string, updates map[string]interface{}) (*model.User, error) {
	query := `UPDATE user SET updated_on = time::now()`
	vars := map[string]interface{}{"user_id": userID}

	for key, value := range updates {
		query += ", " + key + " = $" + key
		vars[key] = value
	}

	query += ` WHERE id = type::record($user_id) RETURN AFTER`

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseUser(result)
}

func (r *UserRepository) getBySubject(ctx context.Context, subject string) (*model.User, error) {
	query := `SELECT * FROM user WHERE subject = $subject LIMIT 1`
	vars := map[string]interface{}{"subject": subject}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseUser(result)
}

// parseUser converts a SurrealDB result map into a User.
func parseUser(result interface{}) (*model.User, error) {
	m, ok := result.(map[string]interface{})
	if !ok {
		return nil, database.ErrQuery
	}

	return &model.User{
		ID:        extractRecordID(m["id"]),
		Subject:   getString(m, "subject"),
		Name:      getString(m, "name"),
		Email:     getString(m, "email"),
		Phone:     getStringPtr(m, "phone"),
		Avatar:    getStringPtr(m, "avatar"),
		CreatedOn: timeValue(getTime(m, "created_on")),
		UpdatedOn: timeValue(getTime(m, "updated_on")),
	}, nil
}
