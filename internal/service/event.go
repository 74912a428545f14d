package service

import (
	"context"
	"time"

	"github.com/o2gather/backend/internal/model"
)

// EventRepositoryInterface defines the event storage interface
type EventRepositoryInterface interface {
	Create(ctx context.Context, event *model.Event) error
	Get(ctx context.Context, eventID string) (*model.Event, error)
	Update(ctx context.Context, eventID string, updates map[string]interface{}) (*model.Event, error)
	Delete(ctx context.Context, eventID string) error
	List(ctx context.Context) ([]*model.Event, error)
	ListByOwner(ctx context.Context, userID string) ([]*model.Event, error)
	ListJoined(ctx context.Context, userID string) ([]*model.Event, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// MemberRepositoryInterface defines the membership ledger interface
type MemberRepositoryInterface interface {
	Upsert(ctx context.Context, eventID, userID string, amount int64) error
	Delete(ctx context.Context, eventID, userID string) (bool, error)
	ListForEvent(ctx context.Context, eventID string) ([]model.RosterEntry, error)
	Totals(ctx context.Context, eventID string) (int64, int, error)
	ListMemberIDs(ctx context.Context, eventID string) ([]string, error)
}

// EventService handles event business logic
type EventService struct {
	repo    EventRepositoryInterface
	members MemberRepositoryInterface
	now     func() time.Time
}

// NewEventService creates a new event service
func NewEventService(repo EventRepositoryInterface, members MemberRepositoryInterface) *EventService {
	return &EventService{
		repo:    repo,
		members: members,
		now:     time.Now,
	}
}

// CreateEvent creates a new event owned by userID
func (s *EventService) CreateEvent(ctx context.Context, userID string, req *model.CreateEventRequest) (*model.Event, error) {
	name := sanitizeText(req.Name)
	category := sanitizeText(req.Category)

	if name == "" || len(name) > model.MaxEventNameLength {
		return nil, ErrNameRequired
	}
	if category == "" || len(category) > model.MaxCategoryLength {
		return nil, ErrCategoryRequired
	}
	if err := validateSchedule(req.StartTime.Time, req.EndTime.Time); err != nil {
		return nil, err
	}
	if err := validateRange(req.MinAmount, req.MaxAmount); err != nil {
		return nil, err
	}

	event := &model.Event{
		OwnerID:     userID,
		Name:        name,
		Description: sanitizeText(req.Description),
		Category:    category,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MinAmount:   req.MinAmount,
		MaxAmount:   req.MaxAmount,
		Established: false,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// GetEvent retrieves an event by ID
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// GetEventProjection retrieves an event together with its funding
// aggregates, always recomputed from the ledger. The owner additionally
// receives the full roster; everyone else gets the public shape.
func (s *EventService) GetEventProjection(ctx context.Context, viewerID, eventID string) (model.Projection, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.buildProjection(ctx, viewerID, event)
}

// ListEvents returns projections for all events, newest schedule first.
func (s *EventService) ListEvents(ctx context.Context, viewerID string) ([]model.Projection, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildProjections(ctx, viewerID, events)
}

// ListUserEvents returns projections for every event userID owns or has
// committed to.
func (s *EventService) ListUserEvents(ctx context.Context, viewerID, userID string) ([]model.Projection, error) {
	owned, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	joined, err := s.repo.ListJoined(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Owners cannot join their own events, so the two lists are disjoint;
	// dedupe anyway in case the ledger ever disagrees.
	seen := make(map[string]bool, len(owned))
	events := make([]*model.Event, 0, len(owned)+len(joined))
	for _, e := range owned {
		seen[e.ID] = true
		events = append(events, e)
	}
	for _, e := range joined {
		if !seen[e.ID] {
			events = append(events, e)
		}
	}

	return s.buildProjections(ctx, viewerID, events)
}

// ListCategories returns the distinct categories in use
func (s *EventService) ListCategories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

// AmendEvent applies a partial update to an event (owner only).
//
// Once the end time has passed, every field except established is
// silently dropped from the patch before validation; a patch filtered
// down to nothing is a no-op that returns the current state. Setting
// established to false is always rejected: establishment is one-way.
func (s *EventService) AmendEvent(ctx context.Context, userID, eventID string, req *model.UpdateEventRequest) (*model.Event, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != userID {
		return nil, ErrNotOwner
	}

	if event.PastDeadline(s.now()) {
		req = &model.UpdateEventRequest{Established: req.Established}
	}
	if req.IsEmpty() {
		return event, nil
	}

	if req.Established != nil && !*req.Established {
		return nil, ErrInvalidTransition
	}

	// Validate the schedule and range the event would have after the
	// patch, not the patch fields in isolation.
	start := event.StartTime
	if req.StartTime != nil {
		start = *req.StartTime
	}
	end := event.EndTime
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if err := validateSchedule(start.Time, end.Time); err != nil {
		return nil, err
	}

	minAmount := event.MinAmount
	if req.MinAmount != nil {
		minAmount = *req.MinAmount
	}
	maxAmount := event.MaxAmount
	if req.MaxAmount != nil {
		maxAmount = *req.MaxAmount
	}
	if err := validateRange(minAmount, maxAmount); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := sanitizeText(*req.Name)
		if name == "" || len(name) > model.MaxEventNameLength {
			return nil, ErrNameRequired
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = sanitizeText(*req.Description)
	}
	if req.Category != nil {
		category := sanitizeText(*req.Category)
		if category == "" || len(category) > model.MaxCategoryLength {
			return nil, ErrCategoryRequired
		}
		updates["category"] = category
	}
	if req.StartTime != nil {
		updates["start_time"] = req.StartTime.Time
	}
	if req.EndTime != nil {
		updates["end_time"] = req.EndTime.Time
	}
	if req.MinAmount != nil {
		updates["min_amount"] = *req.MinAmount
	}
	if req.MaxAmount != nil {
		updates["max_amount"] = *req.MaxAmount
	}
	if req.Established != nil {
		updates["established"] = *req.Established
	}

	updated, err := s.repo.Update(ctx, eventID, updates)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Deleted between the ownership read and the write.
		return nil, ErrEventNotFound
	}
	return updated, nil
}

// DeleteEvent removes an event and its memberships (owner only)
func (s *EventService) DeleteEvent(ctx context.Context, userID, eventID string) error {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OwnerID != userID {
		return ErrNotOwner
	}
	return s.repo.Delete(ctx, eventID)
}

func (s *EventService) buildProjections(ctx context.Context, viewerID string, events []*model.Event) ([]model.Projection, error) {
	projections := make([]model.Projection, 0, len(events))
	for _, event := range events {
		p, err := s.buildProjection(ctx, viewerID, event)
		if err != nil {
			return nil, err
		}
		projections = append(projections, p)
	}
	return projections, nil
}

func (s *EventService) buildProjection(ctx context.Context, viewerID string, event *model.Event) (model.Projection, error) {
	if viewerID != "" && viewerID == event.OwnerID {
		roster, err := s.members.ListForEvent(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		var total int64
		for _, entry := range roster {
			total += entry.Amount
		}
		return &model.OwnerProjection{
			PublicProjection: model.PublicProjection{
				Event:          *event,
				TotalCommitted: total,
				MemberCount:    len(roster),
			},
			Roster: roster,
		}, nil
	}

	total, count, err := s.members.Totals(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return &model.PublicProjection{
		Event:          *event,
		TotalCommitted: total,
		MemberCount:    count,
	}, nil
}

func validateSchedule(start, end time.Time) error {
	if start.After(end) {
		return ErrInvalidSchedule
	}
	return nil
}

func validateRange(minAmount, maxAmount int64) error {
	if minAmount < 0 || minAmount > maxAmount {
		return ErrInvalidRange
	}
	return nil
}
