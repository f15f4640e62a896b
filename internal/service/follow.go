package service

import (
	"context"
	"log/slog"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	domainerrors "github.com/wallpaperhub/wallpaper-server/internal/errors"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
)

// FollowService maintains the follow graph.
type FollowService struct {
	store  store.Store
	logger *slog.Logger
}

// NewFollowService creates a new follow service.
func NewFollowService(store store.Store, logger *slog.Logger) *FollowService {
	return &FollowService{store: store, logger: logger}
}

// FollowState is the graph after a toggle: the artist's followers and the
// actor's following list.
type FollowState struct {
	IsFollowing bool     `json:"isFollowing"`
	Followers   []string `json:"followers"`
	Following   []string `json:"following"`
}

// ToggleFollow follows artistID, or unfollows it if already followed.
func (s *FollowService) ToggleFollow(ctx context.Context, actorID, artistID string) (*FollowState, error) {
	if actorID == artistID {
		return nil, domainerrors.Validation("you cannot follow yourself")
	}

	following, err := s.store.ToggleFollow(ctx, actorID, artistID)
	if err != nil {
		return nil, storeError(err, "user")
	}

	followers, err := s.store.FollowerIDs(ctx, artistID)
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to load followers")
	}
	followingIDs, err := s.store.FollowingIDs(ctx, actorID)
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to load following")
	}

	s.logger.Debug("follow toggled", "actor_id", actorID, "artist_id", artistID, "following", following)
	return &FollowState{IsFollowing: following, Followers: followers, Following: followingIDs}, nil
}

// Followers lists who follows userID.
func (s *FollowService) Followers(ctx context.Context, userID string) ([]domain.ArtistSummary, error) {
	users, err := s.store.Followers(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return users, nil
}

// Following lists who userID follows.
func (s *FollowService) Following(ctx context.Context, userID string) ([]domain.ArtistSummary, error) {
	users, err := s.store.Following(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return users, nil
}
