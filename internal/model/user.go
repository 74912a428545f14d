package model

import "time"

// User represents an application user. Subject is the identity
// provider's stable id for the account and is unique across users.
type User struct {
	ID      string  `json:"id"`
	Subject string  `json:"-"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone,omitempty"`
	Avatar  *string `json:"avatar,omitempty"`

	CreatedOn time.Time `json:"-"`
	UpdatedOn time.Time `json:"-"`
}

// UpdateUserRequest is the payload for amending a user's own profile.
// Email and subject come from the identity provider and are not amendable.
type UpdateUserRequest struct {
	Name   *string `json:"name,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// IsEmpty reports whether the patch proposes no changes.
func (r *UpdateUserRequest) IsEmpty() bool {
	return r.Name == nil && r.Phone == nil && r.Avatar == nil
}

// Session is a server-side login session. The raw token lives only in
// the user's cookie; the record stores its hash.
type Session struct {
	TokenHash string    `json:"token_hash"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedOn time.Time `json:"created_on"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
