package handler

import (
	"net/http"

	"github.com/o2gather/backend/internal/middleware"
	"github.com/o2gather/backend/internal/model"
	"github.com/o2gather/backend/internal/service"
)

// UserHandler handles profile endpoints
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetUser handles GET /api/users/{user_id} - read own profile
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	if viewerID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	userID := r.PathValue("user_id")
	if userID == "" {
		WriteError(w, model.NewBadRequestError("user ID required"))
		return
	}

	user, err := h.userService.GetProfile(r.Context(), viewerID, userID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, user, map[string]string{
		"self":   "/api/users/" + userID,
		"events": "/api/users/" + userID + "/events",
	})
}

// UpdateUser handles PATCH /api/users/{user_id} - update own profile
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	if viewerID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	userID := r.PathValue("user_id")
	if userID == "" {
		WriteError(w, model.NewBadRequestError("user ID required"))
		return
	}

	var req model.UpdateUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), viewerID, userID, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, user, map[string]string{
		"self": "/api/users/" + userID,
	})
}
