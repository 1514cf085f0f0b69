package users

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUsers(t *testing.T, repo Repository) {
	t.Helper()
	now := time.Now().UTC()
	for i, u := range []domain.User{
		{ID: "u1", FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Role: domain.RoleCustomer},
		{ID: "u2", FirstName: "Vikram", LastName: "Shah", Email: "vikram@example.com", Role: domain.RoleAdmin},
		{ID: "u3", FirstName: "Meera", LastName: "Rao", Email: "meera@shop.in", Role: domain.RoleVendor},
	} {
		u.CreatedAt = now.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.UpsertUser(context.Background(), &u))
	}
}

func TestList(t *testing.T) {
	st := memory.NewStore()
	svc := NewService(st)
	seedUsers(t, st)

	tests := []struct {
		name   string
		filter domain.UserFilter
		want   []string
	}{
		{name: "all newest first", want: []string{"u3", "u2", "u1"}},
		{name: "by role", filter: domain.UserFilter{Role: domain.RoleAdmin}, want: []string{"u2"}},
		{name: "search last name", filter: domain.UserFilter{Search: "rao"}, want: []string{"u3", "u1"}},
		{name: "search email", filter: domain.UserFilter{Search: "SHOP.IN"}, want: []string{"u3"}},
		{name: "no match", filter: domain.UserFilter{Search: "zzz"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(context.Background(), tt.filter, domain.PageRequest{})
			require.NoError(t, err)
			ids := []string{}
			for _, u := range page.Items {
				ids = append(ids, u.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestList_UnknownRole(t *testing.T) {
	svc := NewService(memory.NewStore())
	_, err := svc.List(context.Background(), domain.UserFilter{Role: "root"}, domain.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestUpdateRole(t *testing.T) {
	st := memory.NewStore()
	svc := NewService(st)
	seedUsers(t, st)

	u, err := svc.UpdateRole(context.Background(), "u1", domain.RoleVendor)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleVendor, u.Role)

	_, err = svc.UpdateRole(context.Background(), "u1", "superuser")
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.UpdateRole(context.Background(), "nobody", domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
