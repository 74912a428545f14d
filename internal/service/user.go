package service

import (
	"context"

	"github.com/o2gather/backend/internal/model"
)

// UserRepositoryInterface defines the user storage interface
type UserRepositoryInterface interface {
	GetOrCreateBySubject(ctx context.Context, subject, name, email string, avatar *string) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) (*model.User, error)
}

// UserService handles profile reads and updates
type UserService struct {
	repo UserRepositoryInterface
}

// NewUserService creates a new user service
func NewUserService(repo UserRepositoryInterface) *UserService {
	return &UserService{repo: repo}
}

// GetProfile retrieves a user's profile. Profiles carry contact detail,
// so only the user themselves may read one.
func (s *UserService) GetProfile(ctx context.Context, viewerID, userID string) (*model.User, error) {
	if viewerID != userID {
		return nil, ErrNotSelf
	}

	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies a partial update to the caller's own profile
func (s *UserService) UpdateProfile(ctx context.Context, viewerID, userID string, req *model.UpdateUserRequest) (*model.User, error) {
	if viewerID != userID {
		return nil, ErrNotSelf
	}

	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if req.IsEmpty() {
		return user, nil
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := sanitizeText(*req.Name)
		if name == "" || len(name) > model.MaxUserNameLength {
			return nil, ErrNameRequired
		}
		updates["name"] = name
	}
	if p := sanitizeTextPtr(req.Phone); p != nil {
		updates["phone"] = *p
	}
	if a := sanitizeTextPtr(req.Avatar); a != nil {
		updates["avatar"] = *a
	}

	updated, err := s.repo.Update(ctx, userID, updates)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Deleted between the read and the write.
		return nil, ErrUserNotFound
	}
	return updated, nil
}
