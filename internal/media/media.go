// Package media stores uploaded images in an object store and hands back
// public URLs plus a handle that can later delete the object.
package media

import (
	"context"
	"errors"
	"path"
	"strings"
)

// Folders used by the application.
const (
	FolderAvatars    = "perfiles_app"
	FolderWallpapers = "wallpapers_app"
)

// ErrNotFound is returned by Delete when the asset no longer exists.
var ErrNotFound = errors.New("media: asset not found")

// Asset identifies a stored object.
// ID is the handle passed back to Delete, URL is what clients load.
type Asset struct {
	ID  string
	URL string
}

// Backend is an object store for images.
type Backend interface {
	Upload(ctx context.Context, folder, name string, data []byte, contentType string) (Asset, error)
	Delete(ctx context.Context, assetID string) error
}

// ObjectKey joins folder and name into a slash separated object key.
func ObjectKey(folder, name string) string {
	return path.Join(strings.Trim(folder, "/"), strings.TrimLeft(name, "/"))
}

// PublicURL prefixes key with base. An empty base yields a root-relative URL.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// ExtensionFor maps an image content type to a file extension.
func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
