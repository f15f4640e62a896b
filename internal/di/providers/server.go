package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/api"
	"github.com/wallpaperhub/wallpaper-server/internal/config"
	"github.com/wallpaperhub/wallpaper-server/internal/logger"
	"github.com/wallpaperhub/wallpaper-server/internal/service"
)

// drainTimeout bounds how long in-flight requests get on shutdown.
const drainTimeout = 30 * time.Second

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storage := do.MustInvoke[*MediaStorage](i)

	services := &api.Services{
		Auth:       do.MustInvoke[*service.AuthService](i),
		Users:      do.MustInvoke[*service.UserService](i),
		Follows:    do.MustInvoke[*service.FollowService](i),
		Wallpapers: do.MustInvoke[*service.WallpaperService](i),
		Moderation: do.MustInvoke[*service.ModerationService](i),
		Feedback:   do.MustInvoke[*service.FeedbackService](i),
		Version:    do.MustInvoke[*service.VersionService](i),
	}

	handler := api.NewServer(services, api.Config{
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		MediaRoot:      storage.LocalRoot,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
