package services

import (
	"context"
	"testing"

	"github.com/chip-race/league-server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "League Admin",
		Email:    "Admin@ChipRace.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, "admin@chiprace.com", user.Email, "emails are normalized to lowercase")
	assert.Empty(t, user.PasswordHash, "hash must never leave the service")

	logged, err := svc.Login(ctx, LoginInput{Email: "admin@chiprace.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.Empty(t, logged.PasswordHash)

	_, err = svc.Login(ctx, LoginInput{Email: "admin@chiprace.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@chiprace.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "long enough"})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Register(ctx, RegisterInput{Name: "x", Email: "not-an-email", Password: "long enough"})
	assert.ErrorIs(t, err, ErrEmailInvalid)

	_, err = svc.Register(ctx, RegisterInput{Name: "x", Email: "a@b.com", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	input := RegisterInput{Name: "First", Email: "dup@chiprace.com", Password: "long enough"}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	input.Name = "Second"
	_, err = svc.Register(ctx, input)
	assert.ErrorIs(t, err, ErrUserEmailConflict)
}
