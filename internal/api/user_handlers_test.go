package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/service"
)

func TestProfile_OwnIncludesEmail(t *testing.T) {
	ts := setupTestServer(t)
	user, bearer := ts.createUser(t, "marea")

	resp := ts.api.Get("/api/v1/auth/profile", bearer)

	require.Equal(t, http.StatusOK, resp.Code)
	env := decode[service.Profile](t, resp.Body.Bytes())
	assert.Equal(t, user.ID, env.Data.ID)
	assert.Equal(t, user.Email, env.Data.Email)
}

func TestProfile_PublicOmitsEmail(t *testing.T) {
	ts := setupTestServer(t)
	user, _ := ts.createUser(t, "marea")

	for _, path := range []string{
		"/api/v1/auth/user/" + user.ID,
		"/api/v1/wallpapers/user/" + user.ID,
	} {
		resp := ts.api.Get(path)

		require.Equal(t, http.StatusOK, resp.Code, path)
		assert.NotContains(t, resp.Body.String(), user.Email)
		env := decode[service.Profile](t, resp.Body.Bytes())
		assert.Equal(t, "marea", env.Data.Username)
	}
}

func TestProfile_UnknownUser(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/auth/user/usr-missing")

	require.Equal(t, http.StatusNotFound, resp.Code)
	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestUpdateSocial(t *testing.T) {
	ts := setupTestServer(t)
	_, bearer := ts.createUser(t, "brisa")

	resp := ts.api.Put("/api/v1/auth/update-social", bearer, map[string]any{
		"instagram": "@brisa",
		"tiktok":    "@brisa.art",
	})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode[service.Profile](t, resp.Body.Bytes())
	assert.Equal(t, "@brisa", env.Data.Instagram)
	assert.Equal(t, "@brisa.art", env.Data.TikTok)
	assert.Empty(t, env.Data.Facebook)
}

func TestUpdateProfile(t *testing.T) {
	ts := setupTestServer(t)
	ts.createUser(t, "taken")
	_, bearer := ts.createUser(t, "brisa")

	t.Run("username taken", func(t *testing.T) {
		resp := ts.api.Put("/api/v1/auth/update-profile", bearer, map[string]any{"username": "taken"})

		require.Equal(t, http.StatusConflict, resp.Code)
		env := decode[any](t, resp.Body.Bytes())
		assert.Equal(t, "ALREADY_EXISTS", env.Code)
	})

	t.Run("rename and replace links", func(t *testing.T) {
		resp := ts.api.Put("/api/v1/auth/update-profile", bearer, map[string]any{
			"username": "brisa2",
			"web":      "https://brisa.example.com",
		})

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		env := decode[service.Profile](t, resp.Body.Bytes())
		assert.Equal(t, "brisa2", env.Data.Username)
		assert.Equal(t, "https://brisa.example.com", env.Data.Web)
	})
}

func TestChangePassword(t *testing.T) {
	ts := setupTestServer(t)
	user, bearer := ts.createUser(t, "roca")

	resp := ts.api.Put("/api/v1/auth/change-password", bearer, map[string]any{
		"oldPassword": "wrong-password",
		"newPassword": "brand-new-pass",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[any](t, resp.Body.Bytes()).Code)

	resp = ts.api.Put("/api/v1/auth/change-password", bearer, map[string]any{
		"oldPassword": testPassword,
		"newPassword": "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Contraseña actualizada con éxito", decode[MessageResponse](t, resp.Body.Bytes()).Data.Message)

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{"email": user.Email, "password": "brand-new-pass"})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestFollow(t *testing.T) {
	ts := setupTestServer(t)
	artist, _ := ts.createUser(t, "pintora")
	fan, bearer := ts.createUser(t, "fan")

	resp := ts.api.Put("/api/v1/auth/follow/"+artist.ID, bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	state := decode[service.FollowState](t, resp.Body.Bytes())
	assert.True(t, state.Data.IsFollowing)

	resp = ts.api.Get("/api/v1/auth/followers/" + artist.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	followers := decode[[]domain.ArtistSummary](t, resp.Body.Bytes())
	require.Len(t, followers.Data, 1)
	assert.Equal(t, fan.ID, followers.Data[0].ID)

	resp = ts.api.Get("/api/v1/auth/following/" + fan.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	following := decode[[]domain.ArtistSummary](t, resp.Body.Bytes())
	require.Len(t, following.Data, 1)
	assert.Equal(t, artist.ID, following.Data[0].ID)

	// Second toggle unfollows.
	resp = ts.api.Put("/api/v1/auth/follow/"+artist.ID, bearer)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decode[service.FollowState](t, resp.Body.Bytes()).Data.IsFollowing)
}

func TestFollow_Self(t *testing.T) {
	ts := setupTestServer(t)
	user, bearer := ts.createUser(t, "solo")

	resp := ts.api.Put("/api/v1/auth/follow/"+user.ID, bearer)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[any](t, resp.Body.Bytes()).Code)
}

func TestFollow_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	artist, _ := ts.createUser(t, "pintora")

	resp := ts.api.Put("/api/v1/auth/follow/" + artist.ID)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAllArtists(t *testing.T) {
	ts := setupTestServer(t)
	a, _ := ts.createUser(t, "uno")
	b, _ := ts.createUser(t, "dos")
	ts.createUser(t, "jefa", asAdmin)
	ts.follow(t, b, a)

	resp := ts.api.Get("/api/v1/auth/all-artists")

	require.Equal(t, http.StatusOK, resp.Code)
	env := decode[[]service.ArtistCard](t, resp.Body.Bytes())
	require.Len(t, env.Data, 2)

	byID := map[string]service.ArtistCard{}
	for _, card := range env.Data {
		byID[card.ID] = card
	}
	assert.Equal(t, []string{b.ID}, byID[a.ID].Followers)
	assert.Empty(t, byID[b.ID].Followers)
}
