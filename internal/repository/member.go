package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/o2gather/backend/internal/database"
	"github.com/o2gather/backend/internal/model"
)

// Markers thrown inside the upsert transaction. The server reports a THROW
// as a query error whose message contains the marker, which is how the
// repository tells an intentional policy abort from an infrastructure fault.
const (
	throwEventMissing     = "event_missing"
	throwCapacityExceeded = "capacity_exceeded"
)

// ErrCapacityExceeded reports an upsert that was rolled back because the
// recomputed ledger total would exceed the event's funding cap.
var ErrCapacityExceeded = errors.New("funding cap exceeded")

// MemberRepository handles membership ledger data access.
// Memberships are keyed by the composite record id [event, user], which
// gives the (event, user) uniqueness constraint for free.
type MemberRepository struct {
	db database.Database
}

// NewMemberRepository creates a new membership repository
func NewMemberRepository(db database.Database) *MemberRepository {
	return &MemberRepository{db: db}
}

// Upsert creates or replaces a user's commitment on an event, then re-checks
// the ledger total against the event's cap inside the same transaction.
// A simple pre-check would race: two concurrent joins could each pass and
// together blow the cap. Instead the write is accepted, the true total is
// recomputed under the same transaction scope, and the whole batch is
// cancelled with a THROW when the cap is violated.
//
// Returns database.ErrNotFound if the event vanished before the transaction
// ran, ErrCapacityExceeded on a policy abort, and the raw error otherwise.
func (r *MemberRepository) Upsert(ctx context.Context, eventID, userID string, amount int64) error {
	tb := database.NewTxBuilder()
	tb.Add(`LET $evt = (SELECT * FROM type::record($event_id))[0]`,
		map[string]interface{}{"event_id": eventID})
	tb.AddRaw(`IF $evt == NONE { THROW "` + throwEventMissing + `" }`)
	tb.Add(`UPSERT type::thing("event_member", [$event_id, $user_id]) SET
			event_id = type::record($event_id),
			user_id = type::record($user_id),
			amount = $amount,
			updated_on = time::now()`,
		map[string]interface{}{"event_id": eventID, "user_id": userID, "amount": amount})
	tb.Add(`LET $total = math::sum((SELECT VALUE amount FROM event_member WHERE event_id = type::record($event_id)))`,
		map[string]interface{}{"event_id": eventID})
	tb.AddRaw(`IF $total > $evt.max_amount { THROW "` + throwCapacityExceeded + `" }`)

	_, err := database.ExecuteTransaction(ctx, r.db, tb)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), throwCapacityExceeded):
			return ErrCapacityExceeded
		case strings.Contains(err.Error(), throwEventMissing):
			return database.ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes a user's membership. The boolean reports whether a
// membership row actually existed.
func (r *MemberRepository) Delete(ctx context.Context, eventID, userID string) (bool, error) {
	query := `DELETE type::thing("event_member", [$event_id, $user_id]) RETURN BEFORE`
	vars := map[string]interface{}{"event_id": eventID, "user_id": userID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return false, err
	}

	rows, ok := extractQueryResults(result)
	return ok && len(rows) > 0, nil
}

// ListForEvent returns the full roster for an event, one entry per member
// with contact detail pulled from the linked user record.
func (r *MemberRepository) ListForEvent(ctx context.Context, eventID string) ([]model.RosterEntry, error) {
	query := `
		SELECT
			amount,
			user_id.id AS member_id,
			user_id.name AS name,
			user_id.email AS email,
			user_id.phone AS phone,
			user_id.avatar AS avatar
		FROM event_member
		WHERE event_id = type::record($event_id)
		ORDER BY name ASC
	`
	vars := map[string]interface{}{"event_id": eventID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	rows, ok := extractQueryResults(result)
	if !ok {
		return []model.RosterEntry{}, nil
	}

	roster := make([]model.RosterEntry, 0, len(rows))
	for _, row := range rows {
		m, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		roster = append(roster, model.RosterEntry{
			UserID: extractRecordID(m["member_id"]),
			Name:   getString(m, "name"),
			Email:  getString(m, "email"),
			Phone:  getStringPtr(m, "phone"),
			Avatar: getStringPtr(m, "avatar"),
			Amount: getInt64(m, "amount"),
		})
	}
	return roster, nil
}

// Totals returns the committed total and member count for an event,
// derived fresh from the ledger on every call.
func (r *MemberRepository) Totals(ctx context.Context, eventID string) (int64, int, error) {
	query := `
		SELECT math::sum(amount) AS total, count() AS members
		FROM event_member
		WHERE event_id = type::record($event_id)
		GROUP ALL
	`
	vars := map[string]interface{}{"event_id": eventID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// No memberships yet
			return 0, 0, nil
		}
		return 0, 0, err
	}

	m, ok := result.(map[string]interface{})
	if !ok {
		return 0, 0, nil
	}
	return getInt64(m, "total"), getInt(m, "members"), nil
}

// ListMemberIDs returns the user ids with a live commitment on an event.
func (r *MemberRepository) ListMemberIDs(ctx context.Context, eventID string) ([]string, error) {
	query := `SELECT VALUE user_id FROM event_member WHERE event_id = type::record($event_id)`
	vars := map[string]interface{}{"event_id": eventID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	rows, ok := extractQueryResults(result)
	if !ok {
		return []string{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if id := extractRecordID(row); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
