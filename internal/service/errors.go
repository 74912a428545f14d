package service

import "errors"

// Service-level errors. Handlers translate these to HTTP problem
// responses; everything else surfaces as an internal error.
var (
	// Lookup failures
	ErrEventNotFound = errors.New("event not found")
	ErrUserNotFound  = errors.New("user not found")

	// Authorization failures
	ErrNotOwner = errors.New("caller does not own this event")
	ErrNotSelf  = errors.New("caller may only modify their own profile")

	// State conflicts
	ErrOwnerMembership   = errors.New("owner cannot hold a membership in their own event")
	ErrNotAMember        = errors.New("caller is not a member of this event")
	ErrCapacityExceeded  = errors.New("funding cap exceeded")
	ErrInvalidTransition = errors.New("established cannot be revoked")

	// Input validation
	ErrInvalidSchedule   = errors.New("start time must not be after end time")
	ErrInvalidRange      = errors.New("minimum amount must not exceed maximum amount")
	ErrAmountNotPositive = errors.New("amount must be positive")
	ErrNameRequired      = errors.New("name is missing or too long")
	ErrCategoryRequired  = errors.New("category is missing or too long")

	// Authentication
	ErrInvalidIDToken = errors.New("invalid identity token")
	ErrCSRFMismatch   = errors.New("csrf token mismatch")
	ErrSessionInvalid = errors.New("session is invalid or expired")
)

// CapacityError carries the cap and the standing total alongside
// ErrCapacityExceeded so clients can see the remaining headroom.
// errors.Is(err, ErrCapacityExceeded) matches it.
type CapacityError struct {
	Limit   int64
	Current int64
}

func (e *CapacityError) Error() string {
	return ErrCapacityExceeded.Error()
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
