package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wallpaperhub/wallpaper-server/internal/auth"
	"github.com/wallpaperhub/wallpaper-server/internal/cooldown"
	"github.com/wallpaperhub/wallpaper-server/internal/dispatch"
	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/id"
	"github.com/wallpaperhub/wallpaper-server/internal/media"
	"github.com/wallpaperhub/wallpaper-server/internal/media/images"
	"github.com/wallpaperhub/wallpaper-server/internal/media/memory"
	"github.com/wallpaperhub/wallpaper-server/internal/push"
	"github.com/wallpaperhub/wallpaper-server/internal/search"
	"github.com/wallpaperhub/wallpaper-server/internal/store/sqlite"
	"github.com/wallpaperhub/wallpaper-server/internal/validation"
)

const testPassword = "s3cret-pass"

// fakeDispatcher captures jobs instead of sending them.
type fakeDispatcher struct {
	mu         sync.Mutex
	queued     []dispatch.Job
	delivered  []dispatch.Job
	enqueueErr error
}

func (f *fakeDispatcher) Enqueue(_ context.Context, job dispatch.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	if len(job.Messages) > 0 {
		f.queued = append(f.queued, job)
	}
	return nil
}

func (f *fakeDispatcher) Deliver(_ context.Context, job dispatch.Job) domain.DeliveryReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, job)
	return domain.DeliveryReport{
		Kind:     job.Kind,
		Messages: len(job.Messages),
		Batches:  len(push.Chunk(job.Messages, push.MaxBatchSize)),
	}
}

func (f *fakeDispatcher) jobs() []dispatch.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dispatch.Job(nil), f.queued...)
}

type fakeReports struct {
	reports []*domain.DeliveryReport
}

func (f *fakeReports) Recent(_ context.Context, limit int) ([]*domain.DeliveryReport, error) {
	return f.reports[:min(limit, len(f.reports))], nil
}

type testEnv struct {
	store      *sqlite.Store
	media      *memory.Backend
	index      *search.Index
	dispatcher *fakeDispatcher
	gate       *cooldown.Gate

	auth       *AuthService
	users      *UserService
	follows    *FollowService
	wallpapers *WallpaperService
	moderation *ModerationService
	feedback   *FeedbackService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	index, err := search.Open(search.Options{MemOnly: true, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	tokens, err := auth.NewTokenService(strings.Repeat("ab", 32), time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		store:      st,
		media:      memory.New("https://cdn.test"),
		index:      index,
		dispatcher: &fakeDispatcher{},
		gate:       cooldown.New(DefaultNotifyCooldown),
	}
	v := validation.New()
	processor := images.NewProcessor(64, logger)

	env.auth = NewAuthService(st, tokens, v, logger)
	env.users = NewUserService(st, env.media, processor, v, logger)
	env.follows = NewFollowService(st, logger)
	env.wallpapers = NewWallpaperService(st, env.media, processor, index, logger)
	env.moderation = NewModerationService(st, env.media, env.wallpapers, env.gate, env.dispatcher, &fakeReports{}, logger)
	env.feedback = NewFeedbackService(st, v, logger)
	return env
}

type userOpt func(*domain.User)

func withRole(r domain.Role) userOpt { return func(u *domain.User) { u.Role = r } }

func withToken(token string) userOpt { return func(u *domain.User) { u.PushToken = token } }

func notifiedAgo(d time.Duration) userOpt {
	return func(u *domain.User) {
		at := time.Now().Add(-d)
		u.LastNotificationSentAt = &at
	}
}

func (e *testEnv) createUser(t *testing.T, username string, opts ...userOpt) *domain.User {
	t.Helper()
	hash, err := auth.HashPasswordWith(auth.Argon2Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	}, testPassword)
	require.NoError(t, err)

	u := &domain.User{
		Record:       domain.Record{ID: id.MustGenerate(id.PrefixUser)},
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         domain.RoleArtist,
	}
	u.InitTimestamps()
	for _, opt := range opts {
		opt(u)
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) createWallpaper(t *testing.T, artistID, title string, status domain.Status) *domain.Wallpaper {
	t.Helper()
	ctx := context.Background()

	wpID := id.MustGenerate(id.PrefixWallpaper)
	asset, err := e.media.Upload(ctx, media.FolderWallpapers, wpID+".png", pngBytes(t, 8, 8), images.ContentTypePNG)
	require.NoError(t, err)

	w := &domain.Wallpaper{
		Record:   domain.Record{ID: wpID},
		Title:    title,
		Tags:     domain.TagsFromTitle(title),
		ImageURL: asset.URL,
		AssetID:  asset.ID,
		Category: domain.DefaultCategory,
		ArtistID: artistID,
		Status:   status,
	}
	w.InitTimestamps()
	require.NoError(t, e.store.CreateWallpaper(ctx, w))
	return w
}

func (e *testEnv) follow(t *testing.T, follower, artist *domain.User) {
	t.Helper()
	following, err := e.store.ToggleFollow(context.Background(), follower.ID, artist.ID)
	require.NoError(t, err)
	require.True(t, following)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func expoToken(name string) string {
	return "ExponentPushToken[" + name + "]"
}
