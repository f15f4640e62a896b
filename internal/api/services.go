package api

import (
	"github.com/wallpaperhub/wallpaper-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth       *service.AuthService
	Users      *service.UserService
	Follows    *service.FollowService
	Wallpapers *service.WallpaperService
	Moderation *service.ModerationService
	Feedback   *service.FeedbackService
	Version    *service.VersionService
}
