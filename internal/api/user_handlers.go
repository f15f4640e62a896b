package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        authPrefix + "/profile",
		Summary:     "Own profile",
		Description: "Returns the caller's profile including email",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        authPrefix + "/user/{id}",
		Summary:     "Public profile",
		Description: "Returns a user's public profile and follow graph",
		Tags:        []string{"Users"},
	}, s.handleGetUser)

	// Same view, kept under the wallpaper prefix where the app's artist screen looks for it.
	huma.Register(s.api, huma.Operation{
		OperationID: "getArtist",
		Method:      http.MethodGet,
		Path:        wallpaperPrefix + "/user/{id}",
		Summary:     "Public artist profile",
		Tags:        []string{"Users"},
	}, s.handleGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSocial",
		Method:      http.MethodPut,
		Path:        authPrefix + "/update-social",
		Summary:     "Update social links",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
	}, s.handleUpdateSocial)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPut,
		Path:        authPrefix + "/update-profile",
		Summary:     "Update profile",
		Description: "Changes the username and replaces all social links. Empty links are cleared.",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "changePassword",
		Method:      http.MethodPut,
		Path:        authPrefix + "/change-password",
		Summary:     "Change password",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
	}, s.handleChangePassword)

	huma.Register(s.api, huma.Operation{
		OperationID: "listArtists",
		Method:      http.MethodGet,
		Path:        authPrefix + "/all-artists",
		Summary:     "Artist directory",
		Description: "Lists up to 20 artists with their followers",
		Tags:        []string{"Users"},
	}, s.handleAllArtists)
}

// UserIDInput identifies a user by path.
type UserIDInput struct {
	ID string `path:"id" doc:"User ID"`
}

// ProfileOutput wraps a profile for Huma.
type ProfileOutput struct {
	Body service.Profile
}

// UpdateSocialInput contains the social links to store.
type UpdateSocialInput struct {
	Body struct {
		Instagram string `json:"instagram" required:"false" maxLength:"200"`
		Facebook  string `json:"facebook" required:"false" maxLength:"200"`
		Twitter   string `json:"twitter" required:"false" maxLength:"200"`
		TikTok    string `json:"tiktok" required:"false" maxLength:"200"`
	}
}

// UpdateProfileInput contains the new username and social links.
type UpdateProfileInput struct {
	Body struct {
		Username  string `json:"username" required:"false" doc:"New username, unchanged when empty"`
		Instagram string `json:"instagram" required:"false" maxLength:"200"`
		Facebook  string `json:"facebook" required:"false" maxLength:"200"`
		Twitter   string `json:"twitter" required:"false" maxLength:"200"`
		TikTok    string `json:"tiktok" required:"false" maxLength:"200"`
		Web       string `json:"web" required:"false" maxLength:"200"`
	}
}

// ChangePasswordInput contains the current and new password.
type ChangePasswordInput struct {
	Body struct {
		OldPassword string `json:"oldPassword" doc:"Current password"`
		NewPassword string `json:"newPassword" minLength:"6" maxLength:"1024" doc:"New password"`
	}
}

// ArtistsOutput wraps the artist directory for Huma.
type ArtistsOutput struct {
	Body []service.ArtistCard
}

func (s *Server) handleGetProfile(ctx context.Context, _ *struct{}) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Users.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: *profile}, nil
}

func (s *Server) handleGetUser(ctx context.Context, input *UserIDInput) (*ProfileOutput, error) {
	profile, err := s.services.Users.PublicProfile(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: *profile}, nil
}

func (s *Server) handleUpdateSocial(ctx context.Context, input *UpdateSocialInput) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Users.UpdateSocial(ctx, userID, service.UpdateSocialRequest{
		Instagram: input.Body.Instagram,
		Facebook:  input.Body.Facebook,
		Twitter:   input.Body.Twitter,
		TikTok:    input.Body.TikTok,
	})
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: *profile}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Users.UpdateProfile(ctx, userID, service.UpdateProfileRequest{
		Username:  input.Body.Username,
		Instagram: input.Body.Instagram,
		Facebook:  input.Body.Facebook,
		Twitter:   input.Body.Twitter,
		TikTok:    input.Body.TikTok,
		Web:       input.Body.Web,
	})
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: *profile}, nil
}

func (s *Server) handleChangePassword(ctx context.Context, input *ChangePasswordInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Users.ChangePassword(ctx, userID, service.ChangePasswordRequest{
		OldPassword: input.Body.OldPassword,
		NewPassword: input.Body.NewPassword,
	}); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Contraseña actualizada con éxito"}}, nil
}

func (s *Server) handleAllArtists(ctx context.Context, _ *struct{}) (*ArtistsOutput, error) {
	artists, err := s.services.Users.AllArtists(ctx)
	if err != nil {
		return nil, err
	}
	return &ArtistsOutput{Body: artists}, nil
}
