package handler

import (
	"errors"

	"github.com/o2gather/backend/internal/model"
	"github.com/o2gather/backend/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	// The capacity error carries the cap and standing total; surface them.
	var capErr *service.CapacityError
	if errors.As(err, &capErr) {
		return model.NewCapacityExceededError(capErr.Limit, capErr.Current)
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidIDToken),
		errors.Is(err, service.ErrCSRFMismatch),
		errors.Is(err, service.ErrSessionInvalid):
		return model.NewUnauthorizedError(err.Error())

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrNotSelf):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrEventNotFound):
		return model.NewNotFoundError("event")
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrOwnerMembership),
		errors.Is(err, service.ErrNotAMember),
		errors.Is(err, service.ErrCapacityExceeded):
		return model.NewConflictError(err.Error())

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrInvalidSchedule):
		return model.NewValidationError([]model.FieldError{{Field: "start_time", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidRange):
		return model.NewValidationError([]model.FieldError{{Field: "min_amount", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidTransition):
		return model.NewValidationError([]model.FieldError{{Field: "established", Message: err.Error()}})
	case errors.Is(err, service.ErrAmountNotPositive):
		return model.NewValidationError([]model.FieldError{{Field: "amount", Message: err.Error()}})
	case errors.Is(err, service.ErrNameRequired):
		return model.NewValidationError([]model.FieldError{{Field: "name", Message: err.Error()}})
	case errors.Is(err, service.ErrCategoryRequired):
		return model.NewValidationError([]model.FieldError{{Field: "category", Message: err.Error()}})

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}
