package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrainbook/booking-api/internal/domain"
)

func TestAuthService(t *testing.T) {
	s := NewAuthService(&fakeUsers{})
	ctx := context.Background()

	created, err := s.CreateStaff(ctx, domain.User{Email: " Desk@Example.com ", Password: "Secret123!", Name: "Desk"})
	require.NoError(t, err)
	assert.Equal(t, "desk@example.com", created.Email)
	assert.Equal(t, domain.RoleStaff, created.Role)
	assert.NotEqual(t, "Secret123!", created.Password)

	user, err := s.Login(ctx, "DESK@example.com", "Secret123!")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = s.Login(ctx, "desk@example.com", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = s.Login(ctx, "nobody@example.com", "Secret123!")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.CreateStaff(ctx, domain.User{Email: "desk@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserEmailExists)
}

func TestEnsureAdmin(t *testing.T) {
	users := &fakeUsers{}
	s := NewAuthService(users)
	ctx := context.Background()

	require.NoError(t, s.EnsureAdmin(ctx, "root@example.com", "Secret123!"))
	require.NoError(t, s.EnsureAdmin(ctx, "root@example.com", "Secret123!"))
	require.NoError(t, s.EnsureAdmin(ctx, "", ""))

	all, err := s.ListStaff(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsAdmin())
}

func TestListStaff_ByRole(t *testing.T) {
	s := NewAuthService(&fakeUsers{})
	ctx := context.Background()

	for _, u := range []domain.User{
		{Email: "zoe@example.com", Password: "Secret123!", Name: "Zoe"},
		{Email: "boss@example.com", Password: "Secret123!", Name: "Boss", Role: domain.RoleAdmin},
		{Email: "abel@example.com", Password: "Secret123!", Name: "Abel"},
	} {
		_, err := s.CreateStaff(ctx, u)
		require.NoError(t, err)
	}

	all, err := s.ListStaff(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Boss", "Abel", "Zoe"}, []string{all[0].Name, all[1].Name, all[2].Name})

	staff, err := s.ListStaff(ctx, domain.RoleStaff)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	for _, u := range staff {
		assert.False(t, u.IsAdmin())
	}

	_, err = s.ListStaff(ctx, "owner")
	assert.ErrorIs(t, err, ErrInvalidRole)
}
