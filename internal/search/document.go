// Package search provides full-text search over approved wallpapers using Bleve.
package search

import (
	"strings"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
)

// Document is the indexed form of a wallpaper. The artist's username is
// denormalized so one query covers title, tags, category and artist.
type Document struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags,omitempty"`
	Category  string   `json:"category"`
	Artist    string   `json:"artist"`
	CreatedAt int64    `json:"created_at"` // Unix millis, for recency sort
}

// NewDocument builds a document from a wallpaper and its artist's username.
func NewDocument(w *domain.Wallpaper, artist string) *Document {
	return &Document{
		ID:        w.ID,
		Title:     w.Title,
		Tags:      w.Tags,
		Category:  strings.ToLower(w.Category),
		Artist:    artist,
		CreatedAt: w.CreatedAt.UnixMilli(),
	}
}

// toMap converts the document to the field names used by the mapping.
func (d *Document) toMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"title":      d.Title,
		"category":   d.Category,
		"artist":     d.Artist,
		"created_at": float64(d.CreatedAt),
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}
