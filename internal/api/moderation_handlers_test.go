package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/push"
	"github.com/wallpaperhub/wallpaper-server/internal/service"
)

// awaitDelivery waits for one background delivery report.
func (ts *testServer) awaitDelivery(t *testing.T) domain.DeliveryReport {
	t.Helper()
	select {
	case report := <-ts.dispatcher.Results():
		return report
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for push delivery")
		return domain.DeliveryReport{}
	}
}

func recipients(messages []push.Message) []string {
	to := make([]string, len(messages))
	for i, m := range messages {
		to[i] = m.To
	}
	return to
}

func TestModeration_RequiresAdmin(t *testing.T) {
	ts := setupTestServer(t)
	artist, bearer := ts.createUser(t, "aurora")
	w := ts.createWallpaper(t, artist.ID, "Niebla", domain.StatusPending)

	resp := ts.api.Get("/api/v1/wallpapers/admin/pending", bearer)
	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "FORBIDDEN", decode[any](t, resp.Body.Bytes()).Code)

	resp = ts.api.Put("/api/v1/wallpapers/admin/decide/"+w.ID, bearer, map[string]any{"action": "approved"})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Post("/api/v1/auth/broadcast", bearer, map[string]any{})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Get("/api/v1/wallpapers/admin/pending")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestPendingQueue(t *testing.T) {
	ts := setupTestServer(t)
	_, adminBearer := ts.createUser(t, "admin", asAdmin)
	artist, _ := ts.createUser(t, "aurora")
	first := ts.createWallpaper(t, artist.ID, "Primero", domain.StatusPending)
	time.Sleep(2 * time.Millisecond)
	second := ts.createWallpaper(t, artist.ID, "Segundo", domain.StatusPending)
	ts.createWallpaper(t, artist.ID, "Publicado", domain.StatusApproved)

	resp := ts.api.Get("/api/v1/wallpapers/admin/pending", adminBearer)

	require.Equal(t, http.StatusOK, resp.Code)
	env := decode[[]domain.PendingWallpaper](t, resp.Body.Bytes())
	require.Len(t, env.Data, 2)
	assert.Equal(t, first.ID, env.Data[0].ID)
	assert.Equal(t, second.ID, env.Data[1].ID)
	assert.Equal(t, artist.Email, env.Data[0].Uploader.Email)
}

func TestDecide_InvalidAction(t *testing.T) {
	ts := setupTestServer(t)
	_, adminBearer := ts.createUser(t, "admin", asAdmin)
	artist, _ := ts.createUser(t, "aurora")
	w := ts.createWallpaper(t, artist.ID, "Niebla", domain.StatusPending)

	resp := ts.api.Put("/api/v1/wallpapers/admin/decide/"+w.ID, adminBearer, map[string]any{"action": "maybe"})

	require.Equal(t, http.StatusBadRequest, resp.Code)
	env := decode[map[string]any](t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", env.Code)
	assert.Contains(t, env.Details, "action")

	stored, err := ts.store.GetWallpaper(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestDecide_ApproveNotifiesArtistAndFollowers(t *testing.T) {
	ts := setupTestServer(t)
	_, adminBearer := ts.createUser(t, "admin", asAdmin)
	artist, _ := ts.createUser(t, "aurora", withPushToken(expoToken("artist")))
	fanA, _ := ts.createUser(t, "fan-a", withPushToken(expoToken("a")))
	fanB, _ := ts.createUser(t, "fan-b", withPushToken(expoToken("b")))
	fanC, _ := ts.createUser(t, "fan-c")
	ts.follow(t, fanA, artist)
	ts.follow(t, fanB, artist)
	ts.follow(t, fanC, artist)
	w := ts.createWallpaper(t, artist.ID, "Niebla", domain.StatusPending)

	resp := ts.api.Put("/api/v1/wallpapers/admin/decide/"+w.ID, adminBearer, map[string]any{"action": "approved"})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	decision := decode[service.Decision](t, resp.Body.Bytes()).Data
	assert.Equal(t, domain.StatusApproved, decision.Status)
	assert.True(t, decision.ArtistNotified)
	assert.Equal(t, 2, decision.FollowersNotified)

	report := ts.awaitDelivery(t)
	assert.Equal(t, domain.DeliveryApproval, report.Kind)
	assert.Equal(t, w.ID, report.WallpaperID)
	assert.Equal(t, 3, report.Messages)
	assert.True(t, report.Delivered())

	assert.ElementsMatch(t,
		[]string{expoToken("artist"), expoToken("a"), expoToken("b")},
		recipients(ts.gateway.received()))

	stored, err := ts.store.GetWallpaper(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)

	// The report is visible to admins.
	resp = ts.api.Get("/api/v1/wallpapers/admin/dispatches", adminBearer)
	require.Equal(t, http.StatusOK, resp.Code)
	dispatches := decode[[]domain.DeliveryReport](t, resp.Body.Bytes()).Data
	require.NotEmpty(t, dispatches)
	assert.Equal(t, w.ID, dispatches[0].WallpaperID)
}

func TestDecide_CooldownSkipsFollowers(t *testing.T) {
	ts := setupTestServer(t)
	_, adminBearer := ts.createUser(t, "admin", asAdmin)
	artist, _ := ts.createUser(t, "aurora", withPushToken(expoToken("artist")))
	fan, _ := ts.createUser(t, "fan", withPushToken(expoToken("fan")))
	ts.follow(t, fan, artist)
	first := ts.createWallpaper(t, artist.ID, "Uno", domain.StatusPending)
	second := ts.createWallpaper(t, artist.ID, "Dos", domain.StatusPending)

	resp := ts.api.Put("/api/v1/wallpapers/admin/decide/"+first.ID, adminBearer, map[string]any{"action": "approved"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, decode[service.Decision](t, resp.Body.Bytes()).Data.FollowersNotified)
	ts.awaitDelivery(t)

	resp = ts.api.Put("/api/v1/wallpapers/admin/decide/"+second.ID, adminBearer, map[string]any{"action": "approved"})
	require.Equal(t, http.StatusOK, resp.Code)
	decision := decode[service.Decision](t, resp.Body.Bytes()).Data
	assert.True(t, decision.ArtistNotified, "artist confirmation ignores the cooldown")
	assert.Zero(t, decision.FollowersNotified)

	report := ts.awaitDelivery(t)
	assert.Equal(t, 1, report.Messages)
}

func TestDecide_AlreadyApprovedDoesNotNotify(t *testing.T) {
	ts := setupTestServer(t)
	_, adminBearer := ts.createUser(t, "admin", asAdmin)
	artist, _ := ts.createUser(t, "aurora", withPushToken(expoToken("artist")))
	w := ts.createWallpaper(t, artist.ID, "Niebla", domain.StatusApproved)

	resp := ts.api.Put("/api/v1/wallpapers/admin/decide/"+w.ID, adminBearer, map[string]any{"action": "approved"})

	require.Equal(t, http.StatusOK, resp.Code)
	decision := decode[service.Decision](t, resp.Body.Bytes()).Data
	assert.False(t, decision.ArtistNotified)
	assert.Empty(t, ts.gateway.received())
}

func TestDecide_RejectDeletes(t *testing.T) {
	ts := setupTestServer(t)
	_, adminBearer := ts.createUser(t, "admin", asAdmin)
	artist, _ := ts.createUser(t, "aurora", withPushToken(expoToken("artist")))
	w := ts.createWallpaper(t, artist.ID, "Niebla", domain.StatusPending)
	path := "/api/v1/wallpapers/admin/decide/" + w.ID

	resp := ts.api.Put(path, adminBearer, map[string]any{"action": "rejected"})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	decision := decode[service.Decision](t, resp.Body.Bytes()).Data
	assert.Equal(t, domain.StatusRejected, decision.Status)
	assert.Equal(t, "Wallpaper rechazado y eliminado", decision.Message)

	_, ok := ts.media.Get(w.AssetID)
	assert.False(t, ok)
	assert.Empty(t, ts.gateway.received())

	resp = ts.api.Put(path, adminBearer, map[string]any{"action": "approved"})
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode[any](t, resp.Body.Bytes()).Code)
}

func TestBroadcast(t *testing.T) {
	t.Run("no devices", func(t *testing.T) {
		ts := setupTestServer(t)
		_, adminBearer := ts.createUser(t, "admin", asAdmin)

		resp := ts.api.Post("/api/v1/auth/broadcast", adminBearer, map[string]any{"title": "Hola"})

		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "VALIDATION", decode[any](t, resp.Body.Bytes()).Code)
	})

	t.Run("reaches every device once", func(t *testing.T) {
		ts := setupTestServer(t)
		_, adminBearer := ts.createUser(t, "admin", asAdmin, withPushToken(expoToken("admin")))
		ts.createUser(t, "uno", withPushToken(expoToken("1")))
		ts.createUser(t, "dos", withPushToken(expoToken("2")))
		ts.createUser(t, "sin-token")

		resp := ts.api.Post("/api/v1/auth/broadcast", adminBearer, map[string]any{
			"title": "Novedades",
			"body":  "Nueva categoría disponible",
		})

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		result := decode[service.BroadcastResult](t, resp.Body.Bytes()).Data
		assert.Equal(t, 3, result.DevicesReached)
		assert.Equal(t, 1, result.Batches)
		assert.Zero(t, result.FailedBatches)

		received := ts.gateway.received()
		assert.ElementsMatch(t,
			[]string{expoToken("admin"), expoToken("1"), expoToken("2")},
			recipients(received))
		for _, m := range received {
			assert.Equal(t, "Novedades", m.Title)
		}
	})

	t.Run("defaults fill empty fields", func(t *testing.T) {
		ts := setupTestServer(t)
		_, adminBearer := ts.createUser(t, "admin", asAdmin, withPushToken(expoToken("admin")))

		resp := ts.api.Post("/api/v1/auth/broadcast", adminBearer, map[string]any{})

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		received := ts.gateway.received()
		require.Len(t, received, 1)
		assert.Equal(t, service.DefaultBroadcastTitle, received[0].Title)
		assert.Equal(t, service.DefaultBroadcastBody, received[0].Body)
	})
}
