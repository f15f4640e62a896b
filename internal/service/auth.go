package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wallpaperhub/wallpaper-server/internal/auth"
	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	domainerrors "github.com/wallpaperhub/wallpaper-server/internal/errors"
	"github.com/wallpaperhub/wallpaper-server/internal/id"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
	"github.com/wallpaperhub/wallpaper-server/internal/validation"
)

// AuthService registers users, logs them in and verifies access tokens.
type AuthService struct {
	store     store.Store
	tokens    *auth.TokenService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokens *auth.TokenService,
	validator *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokens:    tokens,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRequest contains the data for a new artist account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=1024"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthUser is the user view returned alongside a token.
type AuthUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
}

// AuthResponse is a fresh access token and the user it belongs to.
type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// Register creates an artist account and logs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if taken, err := s.identityTaken(ctx, req.Username, req.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, domainerrors.AlreadyExists("user already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Record:       domain.Record{ID: userID},
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         domain.RoleArtist,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("user already exists")
		}
		return nil, domainerrors.Persistence(err, "failed to create user")
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return s.respond(user)
}

// Login authenticates by email and password.
// Unknown emails and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.InvalidCredentials("invalid credentials")
	}
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to load user")
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		s.logger.Warn("stored password hash unreadable", "user_id", user.ID, "error", err)
		return nil, domainerrors.InvalidCredentials("invalid credentials")
	}
	if !ok {
		return nil, domainerrors.InvalidCredentials("invalid credentials")
	}

	return s.respond(user)
}

// VerifyToken validates an access token and returns its user.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired token")
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Unauthorized("user no longer exists")
	}
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to load user")
	}
	return user, nil
}

func (s *AuthService) identityTaken(ctx context.Context, username, email string) (bool, error) {
	for _, lookup := range []func() (*domain.User, error){
		func() (*domain.User, error) { return s.store.GetUserByEmail(ctx, email) },
		func() (*domain.User, error) { return s.store.GetUserByUsername(ctx, username) },
	} {
		_, err := lookup()
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return false, domainerrors.Persistence(err, "failed to check user")
		}
	}
	return false, nil
}

func (s *AuthService) respond(user *domain.User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &AuthResponse{
		Token: token,
		User: AuthUser{
			ID:        user.ID,
			Username:  user.Username,
			Role:      string(user.Role),
			Instagram: user.Instagram,
			Facebook:  user.Facebook,
		},
	}, nil
}
