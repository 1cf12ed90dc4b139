package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pageza/recipeshare/backend/internal/apperror"
	"github.com/pageza/recipeshare/backend/internal/service"
	"github.com/pageza/recipeshare/backend/internal/testhelpers"
)

func setupAuthTest(t *testing.T) *service.AuthService {
	db := testhelpers.NewSQLiteDB(t)
	return service.NewAuthService(db, bcrypt.MinCost, nil)
}

func TestRegister(t *testing.T) {
	auth := setupAuthTest(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "  Cook@Example.com ", "secret")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "cook@example.com", user.Email)
	assert.NotEqual(t, "secret", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth := setupAuthTest(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "dup@example.com", "secret")
	require.NoError(t, err)

	_, err = auth.Register(ctx, "DUP@example.com", "other")
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestRegisterValidation(t *testing.T) {
	auth := setupAuthTest(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing email", "", "secret"},
		{"missing password", "a@example.com", ""},
		{"malformed email", "not-an-email", "secret"},
		{"password too long", "a@example.com", string(make([]byte, 73))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tt.email, tt.password)
			require.Error(t, err)
			assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
		})
	}
}

func TestLogin(t *testing.T) {
	auth := setupAuthTest(t)
	ctx := context.Background()

	registered, err := auth.Register(ctx, "login@example.com", "secret")
	require.NoError(t, err)

	user, err := auth.Login(ctx, "LOGIN@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	auth := setupAuthTest(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "known@example.com", "secret")
	require.NoError(t, err)

	_, wrongPassword := auth.Login(ctx, "known@example.com", "wrong")
	_, unknownEmail := auth.Login(ctx, "unknown@example.com", "secret")

	wp, ok := apperror.As(wrongPassword)
	require.True(t, ok)
	ue, ok := apperror.As(unknownEmail)
	require.True(t, ok)

	assert.Equal(t, apperror.KindUnauthorized, wp.Kind)
	assert.Equal(t, wp.Kind, ue.Kind)
	assert.Equal(t, wp.Message, ue.Message)
}

func TestLoginMissingFields(t *testing.T) {
	auth := setupAuthTest(t)

	_, err := auth.Login(context.Background(), "", "")
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestGetUserByID(t *testing.T) {
	auth := setupAuthTest(t)
	ctx := context.Background()

	registered, err := auth.Register(ctx, "find@example.com", "secret")
	require.NoError(t, err)

	user, err := auth.GetUserByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "find@example.com", user.Email)

	_, err = auth.GetUserByID(ctx, 9999)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}
