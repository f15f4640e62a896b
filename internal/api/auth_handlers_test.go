package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallpaperhub/wallpaper-server/internal/service"
	"github.com/wallpaperhub/wallpaper-server/internal/versionpolicy"
)

func TestRegister(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": "luna",
		"email":    "luna@example.com",
		"password": testPassword,
	})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode[service.AuthResponse](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Data.Token)
	assert.Equal(t, "luna", env.Data.User.Username)
	assert.Equal(t, "artist", env.Data.User.Role)

	// The issued token authenticates.
	resp = ts.api.Get("/api/v1/auth/profile", "Authorization: Bearer "+env.Data.Token)
	require.Equal(t, http.StatusOK, resp.Code)
	profile := decode[service.Profile](t, resp.Body.Bytes())
	assert.Equal(t, "luna@example.com", profile.Data.Email)
}

func TestRegister_Duplicate(t *testing.T) {
	ts := setupTestServer(t)
	ts.createUser(t, "luna")

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": "other",
		"email":    "luna@example.com",
		"password": testPassword,
	})

	require.Equal(t, http.StatusConflict, resp.Code)
	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "ALREADY_EXISTS", env.Code)
}

func TestLogin(t *testing.T) {
	ts := setupTestServer(t)
	user, _ := ts.createUser(t, "sol")

	t.Run("wrong password", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"email":    user.Email,
			"password": "not-the-password",
		})

		require.Equal(t, http.StatusUnauthorized, resp.Code)
		env := decode[any](t, resp.Body.Bytes())
		assert.Equal(t, "INVALID_CREDENTIALS", env.Code)
	})

	t.Run("unknown email looks the same", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"email":    "ghost@example.com",
			"password": testPassword,
		})

		require.Equal(t, http.StatusUnauthorized, resp.Code)
		env := decode[any](t, resp.Body.Bytes())
		assert.Equal(t, "INVALID_CREDENTIALS", env.Code)
	})

	t.Run("success", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"email":    user.Email,
			"password": testPassword,
		})

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		env := decode[service.AuthResponse](t, resp.Body.Bytes())
		assert.NotEmpty(t, env.Data.Token)
		assert.Equal(t, user.ID, env.Data.User.ID)
	})
}

func TestVersionCheck_Default(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/auth/version-check")

	require.Equal(t, http.StatusOK, resp.Code)
	env := decode[versionpolicy.Policy](t, resp.Body.Bytes())
	assert.Equal(t, versionpolicy.Default(), env.Data)
}

func TestSaveToken(t *testing.T) {
	ts := setupTestServer(t)
	user, bearer := ts.createUser(t, "nube")
	token := expoToken("abc")

	resp := ts.api.Put("/api/v1/auth/save-token", map[string]any{"token": token})
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Put("/api/v1/auth/save-token", bearer, map[string]any{"token": token})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode[MessageResponse](t, resp.Body.Bytes())
	assert.Equal(t, "Token de notificaciones actualizado", env.Data.Message)

	stored, err := ts.store.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, token, stored.PushToken)
}

func TestSaveToken_MovesBetweenAccounts(t *testing.T) {
	ts := setupTestServer(t)
	token := expoToken("shared")
	first, _ := ts.createUser(t, "first", withPushToken(token))
	_, bearer := ts.createUser(t, "second")

	resp := ts.api.Put("/api/v1/auth/save-token", bearer, map[string]any{"token": token})
	require.Equal(t, http.StatusOK, resp.Code)

	stored, err := ts.store.GetUser(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PushToken)
}
