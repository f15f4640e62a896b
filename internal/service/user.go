package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/auth"
	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	domainerrors "github.com/wallpaperhub/wallpaper-server/internal/errors"
	"github.com/wallpaperhub/wallpaper-server/internal/media"
	"github.com/wallpaperhub/wallpaper-server/internal/media/images"
	"github.com/wallpaperhub/wallpaper-server/internal/push"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
	"github.com/wallpaperhub/wallpaper-server/internal/validation"
)

// artistListLimit caps the artist directory.
const artistListLimit = 20

// UserService manages profiles, avatars and push registrations.
type UserService struct {
	store     store.Store
	media     media.Backend
	images    *images.Processor
	validator *validation.Validator
	logger    *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	store store.Store,
	media media.Backend,
	images *images.Processor,
	validator *validation.Validator,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		store:     store,
		media:     media,
		images:    images,
		validator: validator,
		logger:    logger,
	}
}

// Profile is a user with both sides of the follow graph.
// Email is only set for the user's own profile.
type Profile struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	Role       string    `json:"role"`
	ProfilePic string    `json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
	domain.Socials
	Followers []string `json:"followers"`
	Following []string `json:"following"`
}

// ArtistCard is an entry in the artist directory.
type ArtistCard struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	ProfilePic string   `json:"profilePic"`
	Followers  []string `json:"followers"`
}

// UpdateSocialRequest replaces the social links shown on a profile.
type UpdateSocialRequest struct {
	Instagram string `json:"instagram" validate:"max=200"`
	Facebook  string `json:"facebook" validate:"max=200"`
	Twitter   string `json:"twitter" validate:"max=200"`
	TikTok    string `json:"tiktok" validate:"max=200"`
}

// UpdateProfileRequest changes the username and every social link.
// Links left empty are cleared.
type UpdateProfileRequest struct {
	Username  string `json:"username" validate:"omitempty,min=3,max=30,username"`
	Instagram string `json:"instagram" validate:"max=200"`
	Facebook  string `json:"facebook" validate:"max=200"`
	Twitter   string `json:"twitter" validate:"max=200"`
	TikTok    string `json:"tiktok" validate:"max=200"`
	Web       string `json:"web" validate:"max=200"`
}

// ChangePasswordRequest carries the current and the new password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=1024"`
}

// Profile returns the caller's own profile.
func (s *UserService) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, user, true)
}

// PublicProfile returns another user's profile without contact details.
func (s *UserService) PublicProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, user, false)
}

// UpdateSocial replaces instagram, facebook, twitter and tiktok.
func (s *UserService) UpdateSocial(ctx context.Context, userID string, req UpdateSocialRequest) (*Profile, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	user.Instagram = strings.TrimSpace(req.Instagram)
	user.Facebook = strings.TrimSpace(req.Facebook)
	user.Twitter = strings.TrimSpace(req.Twitter)
	user.TikTok = strings.TrimSpace(req.TikTok)
	return s.save(ctx, user)
}

// UpdateProfile changes the username and replaces every social link.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*Profile, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != "" && req.Username != user.Username {
		existing, err := s.store.GetUserByUsername(ctx, req.Username)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, domainerrors.AlreadyExists("username already taken")
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.Persistence(err, "failed to check username")
		}
		user.Username = req.Username
	}

	user.Socials = domain.Socials{
		Instagram: strings.TrimSpace(req.Instagram),
		Facebook:  strings.TrimSpace(req.Facebook),
		Twitter:   strings.TrimSpace(req.Twitter),
		TikTok:    strings.TrimSpace(req.TikTok),
		Web:       strings.TrimSpace(req.Web),
	}
	return s.save(ctx, user)
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return err
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.OldPassword)
	if err != nil || !ok {
		return domainerrors.Validation("current password is incorrect")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.Touch()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return storeError(err, "user")
	}
	s.logger.Info("password changed", "user_id", user.ID)
	return nil
}

// UpdateAvatar stores a new profile picture and releases the previous one.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, data []byte) (*Profile, error) {
	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	prepared, err := prepareImage(s.images, data)
	if err != nil {
		return nil, err
	}

	suffix, err := gonanoid.New(8)
	if err != nil {
		return nil, fmt.Errorf("generate asset name: %w", err)
	}
	name := user.ID + "-" + suffix + media.ExtensionFor(prepared.ContentType)

	asset, err := s.media.Upload(ctx, media.FolderAvatars, name, prepared.Data, prepared.ContentType)
	if err != nil {
		return nil, domainerrors.Upstream(err, "failed to upload avatar")
	}

	previous := user.ProfilePicID
	user.ProfilePic = asset.URL
	user.ProfilePicID = asset.ID

	profile, err := s.save(ctx, user)
	if err != nil {
		s.releaseAsset(ctx, asset.ID)
		return nil, err
	}
	if previous != "" {
		s.releaseAsset(ctx, previous)
	}
	return profile, nil
}

// AllArtists lists the artist directory with follower ids.
func (s *UserService) AllArtists(ctx context.Context) ([]ArtistCard, error) {
	artists, err := s.store.ListArtists(ctx, artistListLimit)
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to list artists")
	}

	cards := make([]ArtistCard, 0, len(artists))
	for _, a := range artists {
		followers, err := s.store.FollowerIDs(ctx, a.ID)
		if err != nil {
			return nil, domainerrors.Persistence(err, "failed to load followers")
		}
		cards = append(cards, ArtistCard{
			ID:         a.ID,
			Username:   a.Username,
			ProfilePic: a.ProfilePic,
			Followers:  followers,
		})
	}
	return cards, nil
}

// SaveToken registers the caller's device for push notifications. The
// token is released from any other account holding it.
func (s *UserService) SaveToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domainerrors.Validation("token is required")
	}
	if !push.ValidAddress(token) {
		// Stored anyway; fan-out drops addresses the gateway would refuse.
		s.logger.Warn("registered push token has unexpected format", "user_id", userID)
	}

	if err := s.store.SetPushToken(ctx, userID, token); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domainerrors.Conflict("push token is registered to another account")
		}
		return storeError(err, "user")
	}
	return nil
}

func (s *UserService) save(ctx context.Context, user *domain.User) (*Profile, error) {
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("username already taken")
		}
		return nil, storeError(err, "user")
	}
	return s.profileOf(ctx, user, true)
}

func (s *UserService) profileOf(ctx context.Context, user *domain.User, private bool) (*Profile, error) {
	followers, err := s.store.FollowerIDs(ctx, user.ID)
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to load followers")
	}
	following, err := s.store.FollowingIDs(ctx, user.ID)
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to load following")
	}

	p := &Profile{
		ID:         user.ID,
		Username:   user.Username,
		Role:       string(user.Role),
		ProfilePic: user.ProfilePic,
		CreatedAt:  user.CreatedAt,
		Socials:    user.Socials,
		Followers:  followers,
		Following:  following,
	}
	if private {
		p.Email = user.Email
	}
	return p, nil
}

func (s *UserService) releaseAsset(ctx context.Context, assetID string) {
	releaseAsset(ctx, s.media, s.logger, assetID)
}

// releaseAsset deletes a media asset, logging instead of failing.
func releaseAsset(ctx context.Context, backend media.Backend, logger *slog.Logger, assetID string) {
	if assetID == "" {
		return
	}
	err := backend.Delete(ctx, assetID)
	switch {
	case err == nil:
	case errors.Is(err, media.ErrNotFound):
		logger.Debug("media asset already gone", "asset_id", assetID)
	default:
		logger.Warn("failed to delete media asset", "asset_id", assetID, "error", err)
	}
}

// prepareImage validates and normalizes an uploaded image.
func prepareImage(p *images.Processor, data []byte) (*images.Prepared, error) {
	if len(data) == 0 {
		return nil, domainerrors.Validation("image is required")
	}
	prepared, err := p.Prepare(data)
	if errors.Is(err, images.ErrUnsupportedFormat) {
		return nil, domainerrors.Validation("image must be JPEG, PNG or WebP")
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "image could not be decoded")
	}
	return prepared, nil
}
