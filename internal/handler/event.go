package handler

import (
	"net/http"

	"github.com/o2gather/backend/internal/middleware"
	"github.com/o2gather/backend/internal/model"
	"github.com/o2gather/backend/internal/service"
)

// EventHandler handles event endpoints
type EventHandler struct {
	eventService *service.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// CreateEvent handles POST /api/events - create a new event
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var req model.CreateEventRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), userID, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, event, map[string]string{
		"self": "/api/events/" + event.ID,
	})
}

// ListEvents handles GET /api/events - list all events with aggregates
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	projections, err := h.eventService.ListEvents(r.Context(), userID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, projections, nil)
}

// GetEvent handles GET /api/events/{event_id} - get one event with aggregates
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("event_id")
	if eventID == "" {
		WriteError(w, model.NewBadRequestError("event ID required"))
		return
	}

	userID := middleware.GetUserID(r.Context())

	projection, err := h.eventService.GetEventProjection(r.Context(), userID, eventID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, projection, map[string]string{
		"self": "/api/events/" + eventID,
	})
}

// UpdateEvent handles PATCH /api/events/{event_id} - amend an event
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	eventID := r.PathValue("event_id")
	if eventID == "" {
		WriteError(w, model.NewBadRequestError("event ID required"))
		return
	}

	var req model.UpdateEventRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	event, err := h.eventService.AmendEvent(r.Context(), userID, eventID, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, event, map[string]string{
		"self": "/api/events/" + eventID,
	})
}

// DeleteEvent handles DELETE /api/events/{event_id} - delete an event
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	eventID := r.PathValue("event_id")
	if eventID == "" {
		WriteError(w, model.NewBadRequestError("event ID required"))
		return
	}

	if err := h.eventService.DeleteEvent(r.Context(), userID, eventID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}

// ListCategories handles GET /api/categories - list categories in use
func (h *EventHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.eventService.ListCategories(r.Context())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	if categories == nil {
		categories = []string{}
	}

	WriteData(w, http.StatusOK, categories, nil)
}

// ListUserEvents handles GET /api/users/{user_id}/events - events a user
// owns or has joined
func (h *EventHandler) ListUserEvents(w http.ResponseWriter, r *http.Request) {
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

	projections, err := h.eventService.ListUserEvents(r.Context(), viewerID, userID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, projections, nil)
}
