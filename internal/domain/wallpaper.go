package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Status is the moderation state of a wallpaper.
type Status string

const (
	// StatusPending is the state of every new upload.
	StatusPending Status = "pending"
	// StatusApproved wallpapers are publicly listed and searchable.
	StatusApproved Status = "approved"
	// StatusRejected is only ever used as a decision; rejected wallpapers are deleted.
	StatusRejected Status = "rejected"
)

// Defaults applied on upload.
const (
	DefaultTitle    = "Sin título"
	DefaultCategory = "General"
	// AllCategories disables the category filter when listing.
	AllCategories = "Todos"
)

// ParseDecision validates a moderation action.
func ParseDecision(action string) (Status, bool) {
	switch Status(action) {
	case StatusApproved, StatusRejected:
		return Status(action), true
	default:
		return "", false
	}
}

// Wallpaper is an uploaded image and its moderation state.
type Wallpaper struct {
	Record
	Title     string   `json:"title"`
	Tags      []string `json:"tags"`
	ImageURL  string   `json:"imageUrl"`
	AssetID   string   `json:"-"` // media backend handle used for deletion
	BlurHash  string   `json:"blurHash,omitempty"`
	Width     int      `json:"width,omitempty"`
	Height    int      `json:"height,omitempty"`
	Category  string   `json:"category"`
	Downloads int      `json:"downloads"`
	Likes     []string `json:"likes"`
	ArtistID  string   `json:"artistId"`
	Status    Status   `json:"status"`
}

// IsApproved reports whether the wallpaper is publicly visible.
func (w *Wallpaper) IsApproved() bool {
	return w.Status == StatusApproved
}

// WallpaperWithArtist is a public listing entry.
type WallpaperWithArtist struct {
	Wallpaper
	Artist ArtistSummary `json:"artist"`
}

// PendingWallpaper is a moderation queue entry.
type PendingWallpaper struct {
	Wallpaper
	Uploader UserContact `json:"artist"`
}

// TagsFromTitle derives lowercase search tokens from a title.
// Accents are folded ("Ñandú" -> "nandu"), duplicates and single characters dropped.
func TagsFromTitle(title string) []string {
	folded := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return unicode.ToLower(r)
	}, norm.NFKD.String(title))

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tags := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		if len([]rune(w)) < 2 || seen[w] {
			continue
		}
		seen[w] = true
		tags = append(tags, w)
	}
	return tags
}
