package user

import (
	"context"
	"fmt"

	"github.com/frahmantamala/retail-backoffice/internal"
)

type Service struct {
	repo Repository
}

// Repository returns nil from GetByID when the operator does not exist.
type Repository interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetPermissions(ctx context.Context, userID int64) ([]string, error)
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get user", fmt.Errorf("get user by id: %w", err))
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}

	perms, err := s.repo.GetPermissions(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get user", fmt.Errorf("get user permissions: %w", err))
	}
	u.Permissions = perms

	return u, nil
}
