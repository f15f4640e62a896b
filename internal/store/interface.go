// Package store defines the persistence interface for the wallpaper server.
package store

import (
	"context"
	"time"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	ListArtists(ctx context.Context, limit int) ([]*domain.User, error)

	// Push addresses and notification cooldown
	SetPushToken(ctx context.Context, userID, token string) error
	DistinctPushTokens(ctx context.Context) ([]string, error)
	SetLastNotified(ctx context.Context, userID string, at time.Time) error

	// Follow graph
	ToggleFollow(ctx context.Context, followerID, followeeID string) (following bool, err error)
	FollowerIDs(ctx context.Context, userID string) ([]string, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
	Followers(ctx context.Context, userID string) ([]domain.ArtistSummary, error)
	Following(ctx context.Context, userID string) ([]domain.ArtistSummary, error)
	ResolveAudience(ctx context.Context, artistID string) (*domain.Audience, error)

	// Wallpapers
	CreateWallpaper(ctx context.Context, w *domain.Wallpaper) error
	GetWallpaper(ctx context.Context, id string) (*domain.Wallpaper, error)
	GetApprovedWallpapers(ctx context.Context, ids []string) ([]domain.WallpaperWithArtist, error)
	ListApprovedWallpapers(ctx context.Context, filter WallpaperFilter) ([]domain.WallpaperWithArtist, error)
	ListWallpapersByArtist(ctx context.Context, artistID string) ([]*domain.Wallpaper, error)
	ListPendingWallpapers(ctx context.Context) ([]domain.PendingWallpaper, error)
	SetWallpaperStatus(ctx context.Context, id string, status domain.Status) error
	DeleteWallpaper(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, wallpaperID, userID string) ([]string, error)
	IncrementDownloads(ctx context.Context, id string) (int, error)

	// Feedback
	CreateFeedback(ctx context.Context, f *domain.Feedback) error
	ListFeedback(ctx context.Context) ([]domain.FeedbackWithUser, error)
	DeleteFeedback(ctx context.Context, id string) error
}

// WallpaperFilter narrows the public wallpaper listing.
type WallpaperFilter struct {
	// Search is a case-insensitive substring matched against the title.
	Search string
	// Category filters by exact category. Empty or domain.AllCategories disables it.
	Category string
}
