package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/spec-kit/request-analytics/internal/domain"
	"github.com/spec-kit/request-analytics/internal/repository"
	apperrors "github.com/spec-kit/request-analytics/pkg/util/errorutil"
)

// UserService serves user lookups.
type UserService struct {
	users repository.UserRepository
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Get returns the user or a NOT_FOUND domain error.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": strconv.FormatInt(id, 10)})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}
