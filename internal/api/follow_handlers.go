package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/service"
)

func (s *Server) registerFollowRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "toggleFollow",
		Method:      http.MethodPut,
		Path:        authPrefix + "/follow/{id}",
		Summary:     "Follow or unfollow",
		Description: "Follows the artist, or unfollows if already following",
		Tags:        []string{"Social"},
		Security:    bearerSecurity,
	}, s.handleToggleFollow)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFollowers",
		Method:      http.MethodGet,
		Path:        authPrefix + "/followers/{id}",
		Summary:     "Followers of a user",
		Tags:        []string{"Social"},
	}, s.handleFollowers)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFollowing",
		Method:      http.MethodGet,
		Path:        authPrefix + "/following/{id}",
		Summary:     "Users followed by a user",
		Tags:        []string{"Social"},
	}, s.handleFollowing)
}

// FollowOutput wraps the follow state for Huma.
type FollowOutput struct {
	Body service.FollowState
}

// UserListOutput wraps a list of user summaries for Huma.
type UserListOutput struct {
	Body []domain.ArtistSummary
}

func (s *Server) handleToggleFollow(ctx context.Context, input *UserIDInput) (*FollowOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	state, err := s.services.Follows.ToggleFollow(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &FollowOutput{Body: *state}, nil
}

func (s *Server) handleFollowers(ctx context.Context, input *UserIDInput) (*UserListOutput, error) {
	users, err := s.services.Follows.Followers(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &UserListOutput{Body: users}, nil
}

func (s *Server) handleFollowing(ctx context.Context, input *UserIDInput) (*UserListOutput, error) {
	users, err := s.services.Follows.Following(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &UserListOutput{Body: users}, nil
}
