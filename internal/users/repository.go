package users

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

type Repository interface {
	FindUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context, filter domain.UserFilter, page domain.PageRequest) ([]domain.User, int64, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	// UpsertUser inserts or replaces the user with the same email.
	UpsertUser(ctx context.Context, u *domain.User) error
}
