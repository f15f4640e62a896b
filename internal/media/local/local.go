// Package local stores media on the filesystem under a base directory.
// The API serves the directory at the configured public URL prefix.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wallpaperhub/wallpaper-server/internal/media"
)

// Backend manages image files on disk.
// Thread-safe for concurrent operations.
type Backend struct {
	basePath string
	baseURL  string
	mu       sync.RWMutex // Protects file operations
}

var _ media.Backend = (*Backend)(nil)

// New creates a Backend rooted at basePath, creating it if needed.
func New(basePath, baseURL string) (*Backend, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &Backend{basePath: basePath, baseURL: baseURL}, nil
}

// Root is the directory that holds all folders.
func (b *Backend) Root() string {
	return b.basePath
}

// Upload writes data to {basePath}/{folder}/{name}.
func (b *Backend) Upload(_ context.Context, folder, name string, data []byte, _ string) (media.Asset, error) {
	if len(data) == 0 {
		return media.Asset{}, fmt.Errorf("image data cannot be empty")
	}

	key := media.ObjectKey(folder, name)
	path, err := b.Path(key)
	if err != nil {
		return media.Asset{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return media.Asset{}, fmt.Errorf("failed to create %s directory: %w", folder, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return media.Asset{}, fmt.Errorf("failed to write image file: %w", err)
	}

	return media.Asset{ID: key, URL: media.PublicURL(b.baseURL, key)}, nil
}

// Delete removes the file for assetID.
func (b *Backend) Delete(_ context.Context, assetID string) error {
	path, err := b.Path(assetID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return media.ErrNotFound
		}
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// Path returns the filesystem path for a key. Keys escaping the base
// directory are rejected.
func (b *Backend) Path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("asset id cannot be empty")
	}
	path := filepath.Join(b.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(b.basePath, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid asset id %q", key)
	}
	return path, nil
}
