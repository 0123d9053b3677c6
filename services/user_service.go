package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tbox/dashboard/models"
	"github.com/tbox/dashboard/repositories"
)

// UserService reads account details
type UserService struct {
	users repositories.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(users repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetUser returns the account with the given id. A malformed id is reported
// as not found, the same as an unknown one.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to load user", err)
	}
	return user, nil
}
