package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fjod/storefront/internal/domain"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindUser(ctx, id)
}

func (s *Service) List(ctx context.Context, filter domain.UserFilter, page domain.PageRequest) (*domain.Page[domain.User], error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	page = page.Normalize()
	users, total, err := s.repo.ListUsers(ctx, filter, page)
	if err != nil {
		slog.ErrorContext(ctx, "repo list users error", "error", err)
		return nil, err
	}
	return domain.NewPage(users, page, total), nil
}

// UpdateRole accepts only the known roles.
func (s *Service) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "user role updated", "user_id", id, "role", role)
	return s.repo.FindUser(ctx, id)
}
