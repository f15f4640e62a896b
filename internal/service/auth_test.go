package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/wallpaperhub/wallpaper-server/internal/errors"
)

func TestAuth_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, RegisterRequest{
		Username: " ana.paints ",
		Email:    "Ana@Example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "ana.paints", reg.User.Username)
	assert.Equal(t, "artist", reg.User.Role)

	login, err := env.auth.Login(ctx, LoginRequest{Email: "ana@example.com", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	user, err := env.auth.VerifyToken(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, user.ID)
}

func TestAuth_RegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "taken")

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"same username", RegisterRequest{Username: "taken", Email: "new@example.com", Password: testPassword}},
		{"same email", RegisterRequest{Username: "fresh", Email: "TAKEN@example.com", Password: testPassword}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.req)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
		})
	}
}

func TestAuth_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), RegisterRequest{Username: "a b", Email: "nope", Password: "1"})
	require.Error(t, err)

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeValidation, de.Code)
	details, ok := de.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "username")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestAuth_LoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "ana")

	_, err := env.auth.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))

	_, err = env.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: testPassword})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestAuth_VerifyToken_Invalid(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.VerifyToken(context.Background(), "v4.local.garbage")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))
}
