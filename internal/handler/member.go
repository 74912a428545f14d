package handler

import (
	"net/http"

	"github.com/o2gather/backend/internal/middleware"
	"github.com/o2gather/backend/internal/model"
	"github.com/o2gather/backend/internal/service"
)

// MemberHandler handles membership endpoints
type MemberHandler struct {
	memberService *service.MemberService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *service.MemberService) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
	}
}

// Join handles PUT /api/events/{event_id}/join - commit an amount.
// PUT because the operation is idempotent: repeating it with the same
// amount changes nothing.
func (h *MemberHandler) Join(w http.ResponseWriter, r *http.Request) {
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

	var req model.JoinEventRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	projection, err := h.memberService.Join(r.Context(), userID, eventID, req.Amount)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, projection, map[string]string{
		"event": "/api/events/" + eventID,
	})
}

// Leave handles POST /api/events/{event_id}/leave - withdraw a commitment
func (h *MemberHandler) Leave(w http.ResponseWriter, r *http.Request) {
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

	if err := h.memberService.Leave(r.Context(), userID, eventID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}
