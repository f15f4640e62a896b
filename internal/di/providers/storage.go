package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/api"
	"github.com/wallpaperhub/wallpaper-server/internal/config"
	"github.com/wallpaperhub/wallpaper-server/internal/logger"
	"github.com/wallpaperhub/wallpaper-server/internal/media"
	"github.com/wallpaperhub/wallpaper-server/internal/media/images"
	"github.com/wallpaperhub/wallpaper-server/internal/media/local"
	"github.com/wallpaperhub/wallpaper-server/internal/media/memory"
	"github.com/wallpaperhub/wallpaper-server/internal/media/minio"
	"github.com/wallpaperhub/wallpaper-server/internal/media/s3"
)

// MediaStorage is the configured image asset backend.
type MediaStorage struct {
	media.Backend
	// LocalRoot is set for the local backend; the API serves it directly.
	LocalRoot string
}

// ProvideMediaStorage provides the image asset backend selected in config.
func ProvideMediaStorage(i do.Injector) (*MediaStorage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	mc := cfg.Media

	switch mc.Backend {
	case config.MediaBackendS3:
		backend, err := s3.New(s3.Config{
			Endpoint:      mc.Endpoint,
			Region:        mc.Region,
			Bucket:        mc.Bucket,
			AccessKeyID:   mc.AccessKeyID,
			SecretKey:     mc.SecretKey,
			PublicBaseURL: mc.PublicBaseURL,
			Timeout:       mc.Timeout,
		}, log.Component("media"))
		if err != nil {
			return nil, fmt.Errorf("s3 media backend: %w", err)
		}
		log.Info("Media backend ready", "backend", mc.Backend, "bucket", mc.Bucket)
		return &MediaStorage{Backend: backend}, nil

	case config.MediaBackendMinio:
		backend, err := minio.New(minio.Config{
			Endpoint:      mc.Endpoint,
			AccessKeyID:   mc.AccessKeyID,
			SecretKey:     mc.SecretKey,
			Bucket:        mc.Bucket,
			UseSSL:        mc.UseSSL,
			PublicBaseURL: mc.PublicBaseURL,
			Timeout:       mc.Timeout,
		}, log.Component("media"))
		if err != nil {
			return nil, fmt.Errorf("minio media backend: %w", err)
		}
		log.Info("Media backend ready", "backend", mc.Backend, "bucket", mc.Bucket)
		return &MediaStorage{Backend: backend}, nil

	case config.MediaBackendMemory:
		log.Warn("Using in-memory media backend, uploads are lost on restart")
		return &MediaStorage{Backend: memory.New(localBaseURL(cfg))}, nil

	default:
		backend, err := local.New(cfg.MediaPath(), localBaseURL(cfg))
		if err != nil {
			return nil, fmt.Errorf("local media backend: %w", err)
		}
		log.Info("Media backend ready", "backend", config.MediaBackendLocal, "path", backend.Root())
		return &MediaStorage{Backend: backend, LocalRoot: backend.Root()}, nil
	}
}

func localBaseURL(cfg *config.Config) string {
	if cfg.Media.PublicBaseURL != "" {
		return cfg.Media.PublicBaseURL
	}
	return "http://localhost:" + cfg.Server.Port + api.MediaPrefix
}

// ProvideImageProcessor provides the upload image processor.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(cfg.Media.MaxWidth, log.Component("images")), nil
}
