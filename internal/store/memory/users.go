package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

func (s *Store) FindUser(ctx context.Context, id string) (*domain.User, error) {
	defer s.lock(ctx)()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, filter domain.UserFilter, page domain.PageRequest) ([]domain.User, int64, error) {
	defer s.lock(ctx)()
	search := strings.ToLower(filter.Search)

	matched := []domain.User{}
	for _, u := range s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FirstName), search) &&
			!strings.Contains(strings.ToLower(u.LastName), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		matched = append(matched, u)
	}
	slices.SortFunc(matched, func(a, b domain.User) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return paginate(matched, page), int64(len(matched)), nil
}

func (s *Store) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	defer s.lock(ctx)()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

func (s *Store) UpsertUser(ctx context.Context, user *domain.User) error {
	defer s.lock(ctx)()
	u := *user
	for id, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			u.ID = id
			u.CreatedAt = existing.CreatedAt
			user.ID = id
			break
		}
	}
	s.users[u.ID] = u
	return nil
}
