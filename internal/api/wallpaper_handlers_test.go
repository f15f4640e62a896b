package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/service"
)

func TestListWallpapers_ApprovedOnly(t *testing.T) {
	ts := setupTestServer(t)
	artist, _ := ts.createUser(t, "aurora")
	shown := ts.createWallpaper(t, artist.ID, "Bosque nocturno", domain.StatusApproved)
	ts.createWallpaper(t, artist.ID, "Borrador", domain.StatusPending)

	resp := ts.api.Get("/api/v1/wallpapers")

	require.Equal(t, http.StatusOK, resp.Code)
	env := decode[[]domain.WallpaperWithArtist](t, resp.Body.Bytes())
	require.Len(t, env.Data, 1)
	assert.Equal(t, shown.ID, env.Data[0].ID)
	assert.Equal(t, "aurora", env.Data[0].Artist.Username)
}

func TestListWallpapers_Filters(t *testing.T) {
	ts := setupTestServer(t)
	artist, _ := ts.createUser(t, "aurora")
	ts.createWallpaper(t, artist.ID, "Bosque nocturno", domain.StatusApproved)
	ts.createWallpaper(t, artist.ID, "Mar en calma", domain.StatusApproved)

	resp := ts.api.Get("/api/v1/wallpapers?search=BOSQUE")
	require.Equal(t, http.StatusOK, resp.Code)
	env := decode[[]domain.WallpaperWithArtist](t, resp.Body.Bytes())
	require.Len(t, env.Data, 1)
	assert.Equal(t, "Bosque nocturno", env.Data[0].Title)

	resp = ts.api.Get("/api/v1/wallpapers?category=Todos")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]domain.WallpaperWithArtist](t, resp.Body.Bytes()).Data, 2)

	resp = ts.api.Get("/api/v1/wallpapers?category=Anime")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[[]domain.WallpaperWithArtist](t, resp.Body.Bytes()).Data)
}

func TestToggleLike(t *testing.T) {
	ts := setupTestServer(t)
	artist, _ := ts.createUser(t, "aurora")
	fan, bearer := ts.createUser(t, "fan")
	w := ts.createWallpaper(t, artist.ID, "Niebla", domain.StatusApproved)

	resp := ts.api.Put("/api/v1/wallpapers/like/" + w.ID)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Put("/api/v1/wallpapers/like/"+w.ID, bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, []string{fan.ID}, decode[LikesResponse](t, resp.Body.Bytes()).Data.Likes)

	resp = ts.api.Put("/api/v1/wallpapers/like/"+w.ID, bearer)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[LikesResponse](t, resp.Body.Bytes()).Data.Likes)

	resp = ts.api.Put("/api/v1/wallpapers/like/wp-missing", bearer)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRecordDownload(t *testing.T) {
	ts := setupTestServer(t)
	artist, _ := ts.createUser(t, "aurora")
	w := ts.createWallpaper(t, artist.ID, "Niebla", domain.StatusApproved)

	for want := 1; want <= 2; want++ {
		resp := ts.api.Put("/api/v1/wallpapers/download/" + w.ID)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, want, decode[DownloadsResponse](t, resp.Body.Bytes()).Data.Downloads)
	}

	resp := ts.api.Put("/api/v1/wallpapers/download/wp-missing")
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode[any](t, resp.Body.Bytes()).Code)
}

func TestArtistWallpapers_PendingVisibleToOwnerOnly(t *testing.T) {
	ts := setupTestServer(t)
	artist, ownerBearer := ts.createUser(t, "aurora")
	_, otherBearer := ts.createUser(t, "curioso")
	ts.createWallpaper(t, artist.ID, "Publicado", domain.StatusApproved)
	ts.createWallpaper(t, artist.ID, "En revision", domain.StatusPending)
	path := "/api/v1/wallpapers/artist/" + artist.ID

	resp := ts.api.Get(path)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]domain.Wallpaper](t, resp.Body.Bytes()).Data, 1)

	resp = ts.api.Get(path, otherBearer)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]domain.Wallpaper](t, resp.Body.Bytes()).Data, 1)

	resp = ts.api.Get(path, ownerBearer)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]domain.Wallpaper](t, resp.Body.Bytes()).Data, 2)
}

func TestDeleteWallpaper(t *testing.T) {
	ts := setupTestServer(t)
	artist, ownerBearer := ts.createUser(t, "aurora")
	_, otherBearer := ts.createUser(t, "intruso")
	w := ts.createWallpaper(t, artist.ID, "Niebla", domain.StatusApproved)

	resp := ts.api.Delete("/api/v1/wallpapers/"+w.ID, otherBearer)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	_, ok := ts.media.Get(w.AssetID)
	assert.True(t, ok, "asset must survive a refused delete")

	resp = ts.api.Delete("/api/v1/wallpapers/"+w.ID, ownerBearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Wallpaper eliminado correctamente", decode[MessageResponse](t, resp.Body.Bytes()).Data.Message)

	_, err := ts.store.GetWallpaper(context.Background(), w.ID)
	assert.Error(t, err)
	_, ok = ts.media.Get(w.AssetID)
	assert.False(t, ok)

	resp = ts.api.Delete("/api/v1/wallpapers/"+w.ID, ownerBearer)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSearchWallpapers_AfterApproval(t *testing.T) {
	ts := setupTestServer(t)
	_, adminBearer := ts.createUser(t, "admin", asAdmin)
	artist, _ := ts.createUser(t, "aurora")
	w := ts.createWallpaper(t, artist.ID, "Atardecer volcánico", domain.StatusPending)

	resp := ts.api.Get("/api/v1/wallpapers/search?q=volcanico")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[service.SearchResult](t, resp.Body.Bytes()).Data.Wallpapers)

	resp = ts.api.Put("/api/v1/wallpapers/admin/decide/"+w.ID, adminBearer, map[string]any{"action": "approved"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/wallpapers/search?q=volcanico")
	require.Equal(t, http.StatusOK, resp.Code)
	env := decode[service.SearchResult](t, resp.Body.Bytes())
	require.Len(t, env.Data.Wallpapers, 1)
	assert.Equal(t, w.ID, env.Data.Wallpapers[0].ID)
	assert.Equal(t, uint64(1), env.Data.Total)
}

func TestSearchWallpapers_LimitBounds(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/wallpapers/search?q=x&limit=500")

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[any](t, resp.Body.Bytes()).Code)
}
