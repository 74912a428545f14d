package repository

import (
	"context"
	"errors"

	"github.com/o2gather/backend/internal/database"
	"github.com/o2gather/backend/internal/model"
)

// EventRepository handles event data access
type EventRepository struct {
	db database.Database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db database.Database) *EventRepository {
	return &EventRepository{db: db}
}

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	query := `
		CREATE event CONTENT {
			user_id: type::record($user_id),
			name: $name,
			description: $description,
			category: $category,
			start_time: $start_time,
			end_time: $end_time,
			min_amount: $min_amount,
			max_amount: $max_amount,
			established: $established,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"user_id":     event.OwnerID,
		"name":        event.Name,
		"description": event.Description,
		"category":    event.Category,
		"start_time":  event.StartTime.Time,
		"end_time":    event.EndTime.Time,
		"min_amount":  event.MinAmount,
		"max_amount":  event.MaxAmount,
		"established": event.Established,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := parseEvent(result)
	if err != nil {
		return err
	}

	event.ID = created.ID
	event.CreatedOn = created.CreatedOn
	event.UpdatedOn = created.UpdatedOn
	return nil
}

// Get retrieves an event by ID. Returns (nil, nil) when the event does not exist.
func (r *EventRepository) Get(ctx context.Context, eventID string) (*model.Event, error) {
	query := `SELECT * FROM type::record($event_id)`
	vars := map[string]interface{}{"event_id": eventID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseEvent(result)
}

// Update applies the given field updates and returns the event after the write.
func (r *EventRepository) Update(ctx context.Context, eventID string, updates map[string]interface{}) (*model.Event, error) {
	query := `UPDATE event SET updated_on = time::now()`
	vars := map[string]interface{}{"event_id": eventID}

	for key, value := range updates {
		query += ", " + key + " = $" + key
		vars[key] = value
	}

	query += ` WHERE id = type::record($event_id) RETURN AFTER`

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseEvent(result)
}

// Delete removes an event and all of its memberships atomically.
func (r *EventRepository) Delete(ctx context.Context, eventID string) error {
	batch := database.NewAtomicBatch()
	batch.Add(`DELETE event_member WHERE event_id = type::record($event_id)`,
		map[string]interface{}{"event_id": eventID})
	batch.Add(`DELETE type::record($event_id)`,
		map[string]interface{}{"event_id": eventID})
	return batch.Execute(ctx, r.db)
}

// List returns all events ordered by schedule.
func (r *EventRepository) List(ctx context.Context) ([]*model.Event, error) {
	query := `SELECT * FROM event ORDER BY start_time ASC, end_time ASC`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	return parseEventList(result)
}

// ListByOwner returns the events a user owns, ordered by schedule.
func (r *EventRepository) ListByOwner(ctx context.Context, userID string) ([]*model.Event, error) {
	query := `
		SELECT * FROM event
		WHERE user_id = type::record($user_id)
		ORDER BY start_time ASC, end_time ASC
	`
	vars := map[string]interface{}{"user_id": userID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	return parseEventList(result)
}

// ListJoined returns the events a user has a live commitment on.
func (r *EventRepository) ListJoined(ctx context.Context, userID string) ([]*model.Event, error) {
	query := `SELECT VALUE event_id.* FROM event_member WHERE user_id = type::record($user_id)`
	vars := map[string]interface{}{"user_id": userID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	return parseEventList(result)
}

// ListCategories returns the distinct category labels currently in use.
func (r *EventRepository) ListCategories(ctx context.Context) ([]string, error) {
	query := `SELECT category FROM event WHERE category != "" GROUP BY category`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	rows, ok := extractQueryResults(result)
	if !ok {
		return []string{}, nil
	}

	categories := make([]string, 0, len(rows))
	for _, row := range rows {
		if m, ok := row.(map[string]interface{}); ok {
			if c := getString(m, "category"); c != "" {
				categories = append(categories, c)
			}
		}
	}
	return categories, nil
}

// parseEvent converts a SurrealDB result map into an Event.
func parseEvent(result interface{}) (*model.Event, error) {
	m, ok := result.(map[string]interface{})
	if !ok {
		return nil, database.ErrQuery
	}

	event := &model.Event{
		ID:          extractRecordID(m["id"]),
		OwnerID:     extractRecordID(m["user_id"]),
		Name:        getString(m, "name"),
		Description: getString(m, "description"),
		Category:    getString(m, "category"),
		MinAmount:   getInt64(m, "min_amount"),
		MaxAmount:   getInt64(m, "max_amount"),
		Established: getBool(m, "established"),
		CreatedOn:   timeValue(getTime(m, "created_on")),
		UpdatedOn:   timeValue(getTime(m, "updated_on")),
	}
	event.StartTime = model.NewUnixTime(timeValue(getTime(m, "start_time")))
	event.EndTime = model.NewUnixTime(timeValue(getTime(m, "end_time")))
	return event, nil
}

// parseEventList converts a SurrealDB query response into a list of events.
func parseEventList(result interface{}) ([]*model.Event, error) {
	rows, ok := extractQueryResults(result)
	if !ok {
		return []*model.Event{}, nil
	}

	events := make([]*model.Event, 0, len(rows))
	for _, row := range rows {
		event, err := parseEvent(row)
		if err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
