package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shopease/shopease/internal/common/shoperrors"
)

func newTestAuthService(t *testing.T) *AuthService {
	auth := NewAuthService(newTestStore(t, 0))
	auth.cost = bcrypt.MinCost
	return auth
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuthService(t)

	registered, err := auth.Register(ctx, "alice_01", "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.NotZero(t, registered.ID)
	assert.Equal(t, "alice_01", registered.Username)
	assert.NotEqual(t, "secret1", registered.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(registered.PasswordHash), []byte("secret1")))

	loggedIn, err := auth.Login(ctx, "alice_01", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, loggedIn.ID)
	assert.Equal(t, "alice@example.com", loggedIn.Email)
}

func TestAuthService_HashesAreSalted(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuthService(t)

	a, err := auth.Register(ctx, "alice", "alice@example.com", "samepassword")
	require.NoError(t, err)
	b, err := auth.Register(ctx, "bob", "bob@example.com", "samepassword")
	require.NoError(t, err)
	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	tests := map[string]struct {
		username string
		email    string
		password string
		field    string
	}{
		"username too short":     {username: "al", email: "a@example.com", password: "secret1", field: "username"},
		"username too long":      {username: "a123456789012345678901234567890123456789012345678901", email: "a@example.com", password: "secret1", field: "username"},
		"username with a space":  {username: "al ice", email: "a@example.com", password: "secret1", field: "username"},
		"username with a hyphen": {username: "al-ice", email: "a@example.com", password: "secret1", field: "username"},
		"missing email":          {username: "alice", email: "  ", password: "secret1", field: "email"},
		"malformed email":        {username: "alice", email: "alice", password: "secret1", field: "email"},
		"password too short":     {username: "alice", email: "a@example.com", password: "12345", field: "password"},
		"username checked first": {username: "a", email: "", password: "", field: "username"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			auth := newTestAuthService(t)
			user, err := auth.Register(context.Background(), tc.username, tc.email, tc.password)
			assert.Nil(t, user)
			var invalid *shoperrors.ErrInvalidArgument
			require.True(t, errors.As(err, &invalid), "%v", err)
			assert.Equal(t, tc.field, invalid.Name)
			assert.NotEmpty(t, invalid.Message)
		})
	}
}

func TestAuthService_PasswordNotInError(t *testing.T) {
	auth := newTestAuthService(t)
	_, err := auth.Register(context.Background(), "alice", "a@example.com", "abc")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "abc")
}

func TestAuthService_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuthService(t)

	_, err := auth.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	_, err = auth.Register(ctx, "alice", "other@example.com", "secret2")
	var exists *shoperrors.ErrAlreadyExists
	require.True(t, errors.As(err, &exists), "%v", err)
	assert.Contains(t, err.Error(), "Username already exists")
}

func TestAuthService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuthService(t)
	_, err := auth.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	for name, credentials := range map[string][2]string{
		"unknown user":   {"bob", "secret1"},
		"wrong password": {"alice", "secret2"},
	} {
		t.Run(name, func(t *testing.T) {
			user, err := auth.Login(ctx, credentials[0], credentials[1])
			assert.Nil(t, user)
			var unauthenticated *shoperrors.ErrUnauthenticated
			require.True(t, errors.As(err, &unauthenticated), "%v", err)
			assert.Equal(t, "Invalid username or password.", unauthenticated.Error())
		})
	}

	_, err = auth.Login(ctx, " ", "")
	var invalid *shoperrors.ErrInvalidArgument
	assert.True(t, errors.As(err, &invalid))
}
