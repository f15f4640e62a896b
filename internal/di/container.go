// Package di provides dependency injection configuration for the wallpaper server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/auth"
	"github.com/wallpaperhub/wallpaper-server/internal/config"
	"github.com/wallpaperhub/wallpaper-server/internal/cooldown"
	"github.com/wallpaperhub/wallpaper-server/internal/di/providers"
	"github.com/wallpaperhub/wallpaper-server/internal/logger"
	"github.com/wallpaperhub/wallpaper-server/internal/media/images"
	"github.com/wallpaperhub/wallpaper-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideValidator)

	// Persistence
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideDeliveryLog)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Media
	do.Provide(injector, providers.ProvideMediaStorage)
	do.Provide(injector, providers.ProvideImageProcessor)

	// Push
	do.Provide(injector, providers.ProvidePushClient)
	do.Provide(injector, providers.ProvideDispatcher)
	do.Provide(injector, providers.ProvideNotifyGate)
	do.Provide(injector, providers.ProvideVersionPolicy)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideFollowService)
	do.Provide(injector, providers.ProvideWallpaperService)
	do.Provide(injector, providers.ProvideModerationService)
	do.Provide(injector, providers.ProvideFeedbackService)
	do.Provide(injector, providers.ProvideVersionService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.DeliveryLogHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.MediaStorage](injector)
	_ = do.MustInvoke[*images.Processor](injector)
	_ = do.MustInvoke[*providers.PushClientHandle](injector)
	_ = do.MustInvoke[*providers.DispatcherHandle](injector)
	_ = do.MustInvoke[*cooldown.Gate](injector)
	_ = do.MustInvoke[*providers.VersionPolicyHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.FollowService](injector)
	_ = do.MustInvoke[*service.WallpaperService](injector)
	_ = do.MustInvoke[*service.ModerationService](injector)
	_ = do.MustInvoke[*service.FeedbackService](injector)
	_ = do.MustInvoke[*service.VersionService](injector)

	providers.TriggerSearchReindexIfNeeded(injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
