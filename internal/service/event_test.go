package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/o2gather/backend/internal/model"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockEventRepo struct {
	createFunc         func(ctx context.Context, event *model.Event) error
	getFunc            func(ctx context.Context, eventID string) (*model.Event, error)
	updateFunc         func(ctx context.Context, eventID string, updates map[string]interface{}) (*model.Event, error)
	deleteFunc         func(ctx context.Context, eventID string) error
	listFunc           func(ctx context.Context) ([]*model.Event, error)
	listByOwnerFunc    func(ctx context.Context, userID string) ([]*model.Event, error)
	listJoinedFunc     func(ctx context.Context, userID string) ([]*model.Event, error)
	listCategoriesFunc func(ctx context.Context) ([]string, error)
}

func (m *mockEventRepo) Create(ctx context.Context, event *model.Event) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, event)
	}
	event.ID = "event:new"
	return nil
}

func (m *mockEventRepo) Get(ctx context.Context, eventID string) (*model.Event, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, eventID)
	}
	return nil, nil
}

func (m *mockEventRepo) Update(ctx context.Context, eventID string, updates map[string]interface{}) (*model.Event, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, eventID, updates)
	}
	return nil, nil
}

func (m *mockEventRepo) Delete(ctx context.Context, eventID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, eventID)
	}
	return nil
}

func (m *mockEventRepo) List(ctx context.Context) ([]*model.Event, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockEventRepo) ListByOwner(ctx context.Context, userID string) ([]*model.Event, error) {
	if m.listByOwnerFunc != nil {
		return m.listByOwnerFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockEventRepo) ListJoined(ctx context.Context, userID string) ([]*model.Event, error) {
	if m.listJoinedFunc != nil {
		return m.listJoinedFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockEventRepo) ListCategories(ctx context.Context) ([]string, error) {
	if m.listCategoriesFunc != nil {
		return m.listCategoriesFunc(ctx)
	}
	return nil, nil
}

type mockMemberRepo struct {
	upsertFunc        func(ctx context.Context, eventID, userID string, amount int64) error
	deleteFunc        func(ctx context.Context, eventID, userID string) (bool, error)
	listForEventFunc  func(ctx context.Context, eventID string) ([]model.RosterEntry, error)
	totalsFunc        func(ctx context.Context, eventID string) (int64, int, error)
	listMemberIDsFunc func(ctx context.Context, eventID string) ([]string, error)
}

func (m *mockMemberRepo) Upsert(ctx context.Context, eventID, userID string, amount int64) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, eventID, userID, amount)
	}
	return nil
}

func (m *mockMemberRepo) Delete(ctx context.Context, eventID, userID string) (bool, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, eventID, userID)
	}
	return false, nil
}

func (m *mockMemberRepo) ListForEvent(ctx context.Context, eventID string) ([]model.RosterEntry, error) {
	if m.listForEventFunc != nil {
		return m.listForEventFunc(ctx, eventID)
	}
	return nil, nil
}

func (m *mockMemberRepo) Totals(ctx context.Context, eventID string) (int64, int, error) {
	if m.totalsFunc != nil {
		return m.totalsFunc(ctx, eventID)
	}
	return 0, 0, nil
}

func (m *mockMemberRepo) ListMemberIDs(ctx context.Context, eventID string) ([]string, error) {
	if m.listMemberIDsFunc != nil {
		return m.listMemberIDsFunc(ctx, eventID)
	}
	return nil, nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func newTestEventService(events *mockEventRepo, members *mockMemberRepo) *EventService {
	if events == nil {
		events = &mockEventRepo{}
	}
	if members == nil {
		members = &mockMemberRepo{}
	}
	return NewEventService(events, members)
}

func testEvent() *model.Event {
	return &model.Event{
		ID:          "event:1",
		OwnerID:     "user:owner",
		Name:        "Beach cleanup",
		Description: "Bring gloves",
		Category:    "outdoors",
		StartTime:   model.NewUnixTime(time.Now().Add(24 * time.Hour)),
		EndTime:     model.NewUnixTime(time.Now().Add(48 * time.Hour)),
		MinAmount:   100,
		MaxAmount:   1000,
	}
}

func getterFor(event *model.Event) func(ctx context.Context, eventID string) (*model.Event, error) {
	return func(ctx context.Context, eventID string) (*model.Event, error) {
		if eventID == event.ID {
			clone := *event
			return &clone, nil
		}
		return nil, nil
	}
}

// ============================================================================
// CreateEvent Tests
// ============================================================================

func TestCreateEvent_Valid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestEventService(nil, nil)

	event, err := svc.CreateEvent(ctx, "user:1", &model.CreateEventRequest{
		Name:      "Potluck",
		Category:  "food",
		StartTime: model.NewUnixTime(time.Now().Add(time.Hour)),
		EndTime:   model.NewUnixTime(time.Now().Add(2 * time.Hour)),
		MinAmount: 10,
		MaxAmount: 100,
	})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if event.OwnerID != "user:1" {
		t.Errorf("OwnerID = %q, want %q", event.OwnerID, "user:1")
	}
	if event.Established {
		t.Error("new event must not be established")
	}
}

func TestCreateEvent_StartAfterEnd_Rejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestEventService(nil, nil)

	_, err := svc.CreateEvent(ctx, "user:1", &model.CreateEventRequest{
		Name:      "Potluck",
		Category:  "food",
		StartTime: model.NewUnixTime(time.Now().Add(2 * time.Hour)),
		EndTime:   model.NewUnixTime(time.Now().Add(time.Hour)),
		MinAmount: 10,
		MaxAmount: 100,
	})
	if !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("CreateEvent() error = %v, want ErrInvalidSchedule", err)
	}
}

func TestCreateEvent_StartEqualsEnd_Allowed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestEventService(nil, nil)

	at := model.NewUnixTime(time.Now().Add(time.Hour))
	_, err := svc.CreateEvent(ctx, "user:1", &model.CreateEventRequest{
		Name:      "Flash meetup",
		Category:  "social",
		StartTime: at,
		EndTime:   at,
		MinAmount: 0,
		MaxAmount: 0,
	})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
}

func TestCreateEvent_MinAboveMax_Rejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestEventService(nil, nil)

	_, err := svc.CreateEvent(ctx, "user:1", &model.CreateEventRequest{
		Name:      "Potluck",
		Category:  "food",
		StartTime: model.NewUnixTime(time.Now().Add(time.Hour)),
		EndTime:   model.NewUnixTime(time.Now().Add(2 * time.Hour)),
		MinAmount: 200,
		MaxAmount: 100,
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("CreateEvent() error = %v, want ErrInvalidRange", err)
	}
}

func TestCreateEvent_MissingName_Rejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestEventService(nil, nil)

	_, err := svc.CreateEvent(ctx, "user:1", &model.CreateEventRequest{
		Name:      "   ",
		Category:  "food",
		StartTime: model.NewUnixTime(time.Now().Add(time.Hour)),
		EndTime:   model.NewUnixTime(time.Now().Add(2 * time.Hour)),
	})
	if !errors.Is(err, ErrNameRequired) {
		t.Errorf("CreateEvent() error = %v, want ErrNameRequired", err)
	}
}

func TestCreateEvent_StripsMarkup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestEventService(nil, nil)

	event, err := svc.CreateEvent(ctx, "user:1", &model.CreateEventRequest{
		Name:        "<b>Potluck</b>",
		Description: "<script>alert(1)</script>Bring a dish",
		Category:    "food",
		StartTime:   model.NewUnixTime(time.Now().Add(time.Hour)),
		EndTime:     model.NewUnixTime(time.Now().Add(2 * time.Hour)),
		MaxAmount:   100,
	})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if event.Name != "Potluck" {
		t.Errorf("Name = %q, want %q", event.Name, "Potluck")
	}
	if event.Description != "Bring a dish" {
		t.Errorf("Description = %q, want %q", event.Description, "Bring a dish")
	}
}

// ============================================================================
// Projection Tests
// ============================================================================

func TestGetEventProjection_NotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestEventService(nil, nil)

	_, err := svc.GetEventProjection(ctx, "user:1", "event:missing")
	if !errors.Is(err, ErrEventNotFound) {
		t.Errorf("GetEventProjection() error = %v, want ErrEventNotFound", err)
	}
}

func TestGetEventProjection_NonOwner_GetsPublicShape(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	event := testEvent()
	events := &mockEventRepo{getFunc: getterFor(event)}
	members := &mockMemberRepo{
		totalsFunc: func(ctx context.Context, eventID string) (int64, int, error) {
			return 700, 3, nil
		},
		listForEventFunc: func(ctx context.Context, eventID string) ([]model.RosterEntry, error) {
			t.Error("roster must not be fetched for non-owners")
			return nil, nil
		},
	}
	svc := newTestEventService(events, members)

	proj, err := svc.GetEventProjection(ctx, "user:stranger", "event:1")
	if err != nil {
		t.Fatalf("GetEventProjection() error = %v", err)
	}

	public, ok := proj.(*model.PublicProjection)
	if !ok {
		t.Fatalf("projection type = %T, want *model.PublicProjection", proj)
	}
	if public.TotalCommitted != 700 {
		t.Errorf("TotalCommitted = %d, want 700", public.TotalCommitted)
	}
	if public.MemberCount != 3 {
		t.Errorf("MemberCount = %d, want 3", public.MemberCount)
	}
}

func TestGetEventProjection_Owner_GetsRoster(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	event := testEvent()
	events := &mockEventRepo{getFunc: getterFor(event)}
	members := &mockMemberRepo{
		listForEventFunc: func(ctx context.Context, eventID string) ([]model.RosterEntry, error) {
			return []model.RosterEntry{
				{UserID: "user:a", Name: "Ann", Email: "ann@example.com", Amount: 400},
				{UserID: "user:b", Name: "Ben", Email: "ben@example.com", Amount: 300},
			}, nil
		},
	}
	svc := newTestEventService(events, members)

	proj, err := svc.GetEventProjection(ctx, "user:owner", "event:1")
	if err != nil {
		t.Fatalf("GetEventProjection() error = %v", err)
	}

	owner, ok := proj.(*model.OwnerProjection)
	if !ok {
		t.Fatalf("projection type = %T, want *model.OwnerProjection", proj)
	}
	if len(owner.Roster) != 2 {
		t.Fatalf("roster size = %d, want 2", len(owner.Roster))
	}
	if owner.TotalCommitted != 700 {
		t.Errorf("TotalCommitted = %d, want 700", owner.TotalCommitted)
	}
	if owner.MemberCount != 2 {
		t.Errorf("MemberCount = %d, want 2", owner.MemberCount)
	}
}

// ============================================================================
// AmendEvent Tests
// ============================================================================

func TestAmendEvent_NotOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	event := testEvent()
	svc := newTestEventService(&mockEventRepo{getFunc: getterFor(event)}, nil)

	name := "New name"
	_, err := svc.AmendEvent(ctx, "user:stranger", "event:1", &model.UpdateEventRequest{Name: &name})
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("AmendEvent() error = %v, want ErrNotOwner", err)
	}
}

func TestAmendEvent_EstablishedFalse_AlwaysRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// The latch rejects established=false even when the event was never
	// established in the first place.
	event := testEvent()
	svc := newTestEventService(&mockEventRepo{getFunc: getterFor(event)}, nil)

	notEstablished := false
	_, err := svc.AmendEvent(ctx, "user:owner", "event:1", &model.UpdateEventRequest{Established: &notEstablished})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("AmendEvent() error = %v, want ErrInvalidTransition", err)
	}
}

func TestAmendEvent_EstablishTrue_Applied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	event := testEvent()
	var gotUpdates map[string]interface{}
	events := &mockEventRepo{
		getFunc: getterFor(event),
		updateFunc: func(ctx context.Context, eventID string, updates map[string]interface{}) (*model.Event, error) {
			gotUpdates = updates
			updated := *event
			updated.Established = true
			return &updated, nil
		},
	}
	svc := newTestEventService(events, nil)

	established := true
	updated, err := svc.AmendEvent(ctx, "user:owner", "event:1", &model.UpdateEventRequest{Established: &established})
	if err != nil {
		t.Fatalf("AmendEvent() error = %v", err)
	}
	if !updated.Established {
		t.Error("event should be established")
	}
	if v, ok := gotUpdates["established"].(bool); !ok || !v {
		t.Errorf("updates[established] = %v, want true", gotUpdates["established"])
	}
}

func TestAmendEvent_PostDeadline_DropsEverythingButEstablished(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	event := testEvent()
	event.StartTime = model.NewUnixTime(time.Now().Add(-48 * time.Hour))
	event.EndTime = model.NewUnixTime(time.Now().Add(-24 * time.Hour))

	var gotUpdates map[string]interface{}
	events := &mockEventRepo{
		getFunc: getterFor(event),
		updateFunc: func(ctx context.Context, eventID string, updates map[string]interface{}) (*model.Event, error) {
			gotUpdates = updates
			updated := *event
			updated.Established = true
			return &updated, nil
		},
	}
	svc := newTestEventService(events, nil)

	name := "Too late"
	amount := int64(5000)
	established := true
	_, err := svc.AmendEvent(ctx, "user:owner", "event:1", &model.UpdateEventRequest{
		Name:        &name,
		MaxAmount:   &amount,
		Established: &established,
	})
	if err != nil {
		t.Fatalf("AmendEvent() error = %v", err)
	}
	if len(gotUpdates) != 1 {
		t.Fatalf("updates = %v, want only established", gotUpdates)
	}
	if _, ok := gotUpdates["established"]; !ok {
		t.Error("updates should carry established")
	}
}

func TestAmendEvent_PostDeadline_FilteredToNothing_IsNoOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	event := testEvent()
	event.StartTime = model.NewUnixTime(time.Now().Add(-48 * time.Hour))
	event.EndTime = model.NewUnixTime(time.Now().Add(-24 * time.Hour))

	events := &mockEventRepo{
		getFunc: getterFor(event),
		updateFunc: func(ctx context.Context, eventID string, updates map[string]interface{}) (*model.Event, error) {
			t.Error("update must not be called for a filtered-out patch")
			return nil, nil
		},
	}
	svc := newTestEventService(events, nil)

	name := "Too late"
	got, err := svc.AmendEvent(ctx, "user:owner", "event:1", &model.UpdateEventRequest{Name: &name})
	if err != nil {
		t.Fatalf("AmendEvent() error = %v", err)
	}
	if got.Name != event.Name {
		t.Errorf("Name = %q, want unchanged %q", got.Name, event.Name)
	}
}

func TestAmendEvent_EmptyPatch_IsNoOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	event := testEvent()
	events := &mockEventRepo{
		getFunc: getterFor(event),
		updateFunc: func(ctx context.Context, eventID string, updates map[string]interface{}) (*model.Event, error) {
			t.Error("update must not be called for an empty patch")
			return nil, nil
		},
	}
	svc := newTestEventService(events, nil)

	got, err := svc.AmendEvent(ctx, "user:owner", "event:1", &model.UpdateEventRequest{})
	if err != nil {
		t.Fatalf("AmendEvent() error = %v", err)
	}
	if got.ID != event.ID {
		t.Errorf("ID = %q, want %q", got.ID, event.ID)
	}
}

func TestAmendEvent_DeletedBeforeWrite_ReportsNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// The event vanishes between the ownership read and the write; the
	// repository answers the update with no row and no error.
	event := testEvent()
	events := &mockEventRepo{
		getFunc: getterFor(event),
		updateFunc: func(ctx context.Context, eventID string, updates map[string]interface{}) (*model.Event, error) {
			return nil, nil
		},
	}
	svc := newTestEventService(events, nil)

	name := "Renamed"
	got, err := svc.AmendEvent(ctx, "user:owner", "event:1", &model.UpdateEventRequest{Name: &name})
	if !errors.Is(err, ErrEventNotFound) {
		t.Errorf("AmendEvent() error = %v, want ErrEventNotFound", err)
	}
	if got != nil {
		t.Errorf("AmendEvent() = %v, want nil", got)
	}
}

func TestAmendEvent_ScheduleValidatedAgainstMergedState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Moving only the start past the current end must fail even though
	// the patch alone looks harmless.
	event := testEvent()
	svc := newTestEventService(&mockEventRepo{getFunc: getterFor(event)}, nil)

	start := model.NewUnixTime(event.EndTime.Add(time.Hour))
	_, err := svc.AmendEvent(ctx, "user:owner", "event:1", &model.UpdateEventRequest{StartTime: &start})
	if !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("AmendEvent() error = %v, want ErrInvalidSchedule", err)
	}
}

func TestAmendEvent_RangeValidatedAgainstMergedState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	event := testEvent() // min 100, max 1000
	svc := newTestEventService(&mockEventRepo{getFunc: getterFor(event)}, nil)

	newMax := int64(50)
	_, err := svc.AmendEvent(ctx, "user:owner", "event:1", &model.UpdateEventRequest{MaxAmount: &newMax})
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("AmendEvent() error = %v, want ErrInvalidRange", err)
	}
}

// ============================================================================
// DeleteEvent Tests
// ============================================================================

func TestDeleteEvent_NotOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	event := testEvent()
	svc := newTestEventService(&mockEventRepo{getFunc: getterFor(event)}, nil)

	err := svc.DeleteEvent(ctx, "user:stranger", "event:1")
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("DeleteEvent() error = %v, want ErrNotOwner", err)
	}
}

func TestDeleteEvent_Owner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	event := testEvent()
	deleted := false
	events := &mockEventRepo{
		getFunc: getterFor(event),
		deleteFunc: func(ctx context.Context, eventID string) error {
			deleted = true
			return nil
		},
	}
	svc := newTestEventService(events, nil)

	if err := svc.DeleteEvent(ctx, "user:owner", "event:1"); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}
	if !deleted {
		t.Error("repository delete was not called")
	}
}

// ============================================================================
// ListUserEvents Tests
// ============================================================================

func TestListUserEvents_CombinesOwnedAndJoined(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	owned := testEvent()
	joined := testEvent()
	joined.ID = "event:2"
	joined.OwnerID = "user:someone-else"

	events := &mockEventRepo{
		listByOwnerFunc: func(ctx context.Context, userID string) ([]*model.Event, error) {
			return []*model.Event{owned}, nil
		},
		listJoinedFunc: func(ctx context.Context, userID string) ([]*model.Event, error) {
			return []*model.Event{joined}, nil
		},
	}
	svc := newTestEventService(events, &mockMemberRepo{})

	projections, err := svc.ListUserEvents(ctx, "user:owner", "user:owner")
	if err != nil {
		t.Fatalf("ListUserEvents() error = %v", err)
	}
	if len(projections) != 2 {
		t.Fatalf("got %d projections, want 2", len(projections))
	}

	// The viewer owns the first event, so only that one carries a roster.
	if _, ok := projections[0].(*model.OwnerProjection); !ok {
		t.Errorf("owned event projection type = %T, want *model.OwnerProjection", projections[0])
	}
	if _, ok := projections[1].(*model.PublicProjection); !ok {
		t.Errorf("joined event projection type = %T, want *model.PublicProjection", projections[1])
	}
}
