package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/service"
	"github.com/wallpaperhub/wallpaper-server/internal/versionpolicy"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        authPrefix + "/register",
		Summary:     "Register new artist",
		Description: "Creates an artist account and returns an access token",
		Tags:        []string{"Authentication"},
		Middlewares: huma.Middlewares{s.rateLimited},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        authPrefix + "/login",
		Summary:     "User login",
		Description: "Authenticates by email and password and returns an access token",
		Tags:        []string{"Authentication"},
		Middlewares: huma.Middlewares{s.rateLimited},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveToken",
		Method:      http.MethodPut,
		Path:        authPrefix + "/save-token",
		Summary:     "Register push token",
		Description: "Assigns an Expo push token to the caller, releasing it from any other account",
		Tags:        []string{"Authentication"},
		Security:    bearerSecurity,
	}, s.handleSaveToken)

	huma.Register(s.api, huma.Operation{
		OperationID: "versionCheck",
		Method:      http.MethodGet,
		Path:        authPrefix + "/version-check",
		Summary:     "App version policy",
		Description: "Returns the latest app version and whether older builds must update",
		Tags:        []string{"Authentication"},
	}, s.handleVersionCheck)
}

// RegisterInput contains registration data.
type RegisterInput struct {
	Body struct {
		Username string `json:"username" minLength:"3" maxLength:"30" doc:"Public artist name"`
		Email    string `json:"email" format:"email" doc:"Login email"`
		Password string `json:"password" minLength:"6" maxLength:"1024" doc:"Password"`
	}
}

// LoginInput contains login credentials.
type LoginInput struct {
	Body struct {
		Email    string `json:"email" doc:"Login email"`
		Password string `json:"password" doc:"Password"`
	}
}

// AuthOutput wraps a token response for Huma.
type AuthOutput struct {
	Body service.AuthResponse
}

// SaveTokenInput carries an Expo push token.
type SaveTokenInput struct {
	Body struct {
		Token string `json:"token" doc:"Expo push token, e.g. ExponentPushToken[...]"`
	}
}

// MessageResponse is the acknowledgement returned by mutations without a payload.
type MessageResponse struct {
	Message string `json:"msg" doc:"Human-readable outcome"`
}

// MessageOutput wraps a message for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// VersionOutput wraps the version policy for Huma.
type VersionOutput struct {
	Body versionpolicy.Policy
}

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Username: input.Body.Username,
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: *resp}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: *resp}, nil
}

func (s *Server) handleSaveToken(ctx context.Context, input *SaveTokenInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Users.SaveToken(ctx, userID, input.Body.Token); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Token de notificaciones actualizado"}}, nil
}

func (s *Server) handleVersionCheck(_ context.Context, _ *struct{}) (*VersionOutput, error) {
	return &VersionOutput{Body: s.services.Version.Check()}, nil
}
