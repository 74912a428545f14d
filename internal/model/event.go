package model

import "time"

// Event represents a time-boxed activity with a funding ceiling.
// MaxAmount bounds the aggregate of all member commitments; the bound is
// enforced transactionally on every join (see the membership repository).
type Event struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"user_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	StartTime   UnixTime `json:"start_time"`
	EndTime     UnixTime `json:"end_time"`
	MinAmount   int64    `json:"min_amount"`
	MaxAmount   int64    `json:"max_amount"`
	// Established is a one-way latch: once true it can never be unset.
	Established bool `json:"established"`

	CreatedOn time.Time `json:"-"`
	UpdatedOn time.Time `json:"-"`
}

// PastDeadline reports whether the event's end time has passed.
// Past the deadline every field except Established is immutable.
func (e *Event) PastDeadline(now time.Time) bool {
	return e.EndTime.Before(now)
}

// CreateEventRequest is the payload for creating an event
type CreateEventRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	StartTime   UnixTime `json:"start_time"`
	EndTime     UnixTime `json:"end_time"`
	MinAmount   int64    `json:"min_amount"`
	MaxAmount   int64    `json:"max_amount"`
}

// UpdateEventRequest is the payload for amending an event.
// All fields are optional; absent fields leave the current value untouched.
type UpdateEventRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	StartTime   *UnixTime `json:"start_time,omitempty"`
	EndTime     *UnixTime `json:"end_time,omitempty"`
	MinAmount   *int64    `json:"min_amount,omitempty"`
	MaxAmount   *int64    `json:"max_amount,omitempty"`
	Established *bool     `json:"established,omitempty"`
}

// IsEmpty reports whether the patch proposes no changes at all.
func (r *UpdateEventRequest) IsEmpty() bool {
	return r.Name == nil &&
		r.Description == nil &&
		r.Category == nil &&
		r.StartTime == nil &&
		r.EndTime == nil &&
		r.MinAmount == nil &&
		r.MaxAmount == nil &&
		r.Established == nil
}

// JoinEventRequest is the payload for joining an event or updating a commitment
type JoinEventRequest struct {
	Amount int64 `json:"amount"`
}

// Validation constants
const (
	MaxEventNameLength   = 120
	MaxCategoryLength    = 60
	MaxDescriptionLength = 4000
	MaxUserNameLength    = 80
)
