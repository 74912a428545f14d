package service

import (
	"context"
	"errors"

	"github.com/o2gather/backend/internal/database"
	"github.com/o2gather/backend/internal/model"
	"github.com/o2gather/backend/internal/repository"
)

// MemberService handles membership commitments on events.
//
// The capacity bound lives in the storage layer: the join is a single
// transaction that writes the commitment, recomputes the total, and
// aborts when the total exceeds the event's cap. Two racing joins over
// the remaining headroom therefore resolve to exactly one winner.
type MemberService struct {
	events  EventRepositoryInterface
	members MemberRepositoryInterface
}

// NewMemberService creates a new member service
func NewMemberService(events EventRepositoryInterface, members MemberRepositoryInterface) *MemberService {
	return &MemberService{
		events:  events,
		members: members,
	}
}

// Join commits amount from userID to an event, replacing any prior
// commitment by the same user. Re-joining with the same amount is a
// no-op that succeeds.
func (s *MemberService) Join(ctx context.Context, userID, eventID string, amount int64) (*model.PublicProjection, error) {
	if amount <= 0 {
		return nil, ErrAmountNotPositive
	}

	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if event.OwnerID == userID {
		return nil, ErrOwnerMembership
	}

	if err := s.members.Upsert(ctx, eventID, userID, amount); err != nil {
		switch {
		case errors.Is(err, repository.ErrCapacityExceeded):
			capErr := &CapacityError{Limit: event.MaxAmount}
			if total, _, terr := s.members.Totals(ctx, eventID); terr == nil {
				capErr.Current = total
			}
			return nil, capErr
		case errors.Is(err, database.ErrNotFound):
			// Event deleted between the read above and the write.
			return nil, ErrEventNotFound
		default:
			return nil, err
		}
	}

	return s.projection(ctx, event)
}

// Leave removes userID's commitment from an event
func (s *MemberService) Leave(ctx context.Context, userID, eventID string) error {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return ErrEventNotFound
	}
	if event.OwnerID == userID {
		return ErrOwnerMembership
	}

	existed, err := s.members.Delete(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if !existed {
		return ErrNotAMember
	}
	return nil
}

// ListMemberIdentities returns the user IDs currently committed to an
// event. Callers use it for membership-gated authorization checks.
func (s *MemberService) ListMemberIdentities(ctx context.Context, eventID string) ([]string, error) {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return s.members.ListMemberIDs(ctx, eventID)
}

// IsMember reports whether userID currently holds a commitment on the event
func (s *MemberService) IsMember(ctx context.Context, eventID, userID string) (bool, error) {
	ids, err := s.ListMemberIdentities(ctx, eventID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemberService) projection(ctx context.Context, event *model.Event) (*model.PublicProjection, error) {
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
