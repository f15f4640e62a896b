package providers

import (
	"github.com/samber/do/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/auth"
	"github.com/wallpaperhub/wallpaper-server/internal/cooldown"
	"github.com/wallpaperhub/wallpaper-server/internal/logger"
	"github.com/wallpaperhub/wallpaper-server/internal/media/images"
	"github.com/wallpaperhub/wallpaper-server/internal/service"
	"github.com/wallpaperhub/wallpaper-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, validator, log.Logger), nil
}

// ProvideUserService provides the profile service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storage := do.MustInvoke[*MediaStorage](i)
	processor := do.MustInvoke[*images.Processor](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, storage.Backend, processor, validator, log.Logger), nil
}

// ProvideFollowService provides the follow graph service.
func ProvideFollowService(i do.Injector) (*service.FollowService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFollowService(storeHandle.Store, log.Logger), nil
}

// ProvideWallpaperService provides the wallpaper catalog service.
func ProvideWallpaperService(i do.Injector) (*service.WallpaperService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storage := do.MustInvoke[*MediaStorage](i)
	processor := do.MustInvoke[*images.Processor](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewWallpaperService(storeHandle.Store, storage.Backend, processor, indexHandle.Index, log.Logger), nil
}

// ProvideModerationService provides the moderation and broadcast service.
func ProvideModerationService(i do.Injector) (*service.ModerationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storage := do.MustInvoke[*MediaStorage](i)
	wallpapers := do.MustInvoke[*service.WallpaperService](i)
	gate := do.MustInvoke[*cooldown.Gate](i)
	dispatcher := do.MustInvoke[*DispatcherHandle](i)
	reports := do.MustInvoke[*DeliveryLogHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewModerationService(
		storeHandle.Store,
		storage.Backend,
		wallpapers,
		gate,
		dispatcher.Dispatcher,
		reports.Log,
		log.Component("moderation"),
	), nil
}

// ProvideFeedbackService provides the feedback service.
func ProvideFeedbackService(i do.Injector) (*service.FeedbackService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFeedbackService(storeHandle.Store, validator, log.Logger), nil
}

// ProvideVersionService provides the version check service.
func ProvideVersionService(i do.Injector) (*service.VersionService, error) {
	policy := do.MustInvoke[*VersionPolicyHandle](i)
	return service.NewVersionService(policy.Source), nil
}
