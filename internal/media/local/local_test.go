package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallpaperhub/wallpaper-server/internal/media"
)

func setupBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(t.TempDir(), "/media")
	require.NoError(t, err)
	return b
}

func TestNew(t *testing.T) {
	t.Run("creates nested directories", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "media")
		b, err := New(dir, "")
		require.NoError(t, err)

		info, err := os.Stat(b.Root())
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("rejects empty path", func(t *testing.T) {
		b, err := New("", "")
		assert.Error(t, err)
		assert.Nil(t, b)
	})
}

func TestBackend_Upload(t *testing.T) {
	b := setupBackend(t)

	asset, err := b.Upload(context.Background(), media.FolderAvatars, "usr-1.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "perfiles_app/usr-1.png", asset.ID)
	assert.Equal(t, "/media/perfiles_app/usr-1.png", asset.URL)

	data, err := os.ReadFile(filepath.Join(b.Root(), "perfiles_app", "usr-1.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	_, err = b.Upload(context.Background(), media.FolderAvatars, "empty.png", nil, "image/png")
	assert.Error(t, err)
}

func TestBackend_Delete(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	asset, err := b.Upload(ctx, media.FolderWallpapers, "wp.jpg", []byte("jpg"), "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, b.Delete(ctx, asset.ID))
	assert.ErrorIs(t, b.Delete(ctx, asset.ID), media.ErrNotFound)
}

func TestBackend_PathRejectsTraversal(t *testing.T) {
	b := setupBackend(t)

	for _, key := range []string{"", "../outside.jpg", "wallpapers_app/../../x"} {
		_, err := b.Path(key)
		assert.Error(t, err, key)
	}
}
