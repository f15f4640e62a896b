// Package memory is an in-process media backend for development and tests.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/wallpaperhub/wallpaper-server/internal/media"
)

// Backend keeps objects in a map.
type Backend struct {
	mu      sync.RWMutex
	base    string
	objects map[string][]byte
	deleted []string

	// FailUploads and FailDeletes force errors, for exercising failure paths.
	FailUploads bool
	FailDeletes bool
}

var _ media.Backend = (*Backend)(nil)

// ErrForced is returned when a failure has been forced.
var ErrForced = errors.New("memory media: forced failure")

// New creates an empty backend. URLs are built from base.
func New(base string) *Backend {
	return &Backend{
		base:    base,
		objects: make(map[string][]byte),
	}
}

// Upload stores a copy of data.
func (b *Backend) Upload(_ context.Context, folder, name string, data []byte, _ string) (media.Asset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.FailUploads {
		return media.Asset{}, ErrForced
	}

	key := media.ObjectKey(folder, name)
	b.objects[key] = slices.Clone(data)
	return media.Asset{ID: key, URL: media.PublicURL(b.base, key)}, nil
}

// Delete removes an object. Every call is recorded, including failed ones.
func (b *Backend) Delete(_ context.Context, assetID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deleted = append(b.deleted, assetID)
	if b.FailDeletes {
		return ErrForced
	}
	if _, ok := b.objects[assetID]; !ok {
		return media.ErrNotFound
	}
	delete(b.objects, assetID)
	return nil
}

// Get returns the stored bytes for assetID.
func (b *Backend) Get(assetID string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[assetID]
	return data, ok
}

// Deleted returns the asset ids passed to Delete, in call order.
func (b *Backend) Deleted() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.deleted)
}

// Len returns the number of stored objects.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
