// Package api provides the HTTP API server and handlers for the wallpaper backend.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wallpaperhub/wallpaper-server/internal/logger"
)

// Config tunes the HTTP surface.
type Config struct {
	CORSOrigins    []string
	MaxUploadBytes int64
	// MediaRoot is served under MediaPrefix. Empty when assets live in object storage.
	MediaRoot string
	// AuthRateLimiter throttles login and register per client IP. Nil uses 20/min, burst 10.
	AuthRateLimiter *RateLimiter
	// UploadRateLimiter throttles multipart uploads per client IP. Nil uses 30/min, burst 10.
	UploadRateLimiter *RateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services          *Services
	router            *chi.Mux
	api               huma.API
	logger            *slog.Logger
	authRateLimiter   *RateLimiter
	uploadRateLimiter *RateLimiter
	maxUploadBytes    int64
	mediaRoot         string
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, cfg Config, log *slog.Logger) *Server {
	if cfg.AuthRateLimiter == nil {
		cfg.AuthRateLimiter = NewRateLimiter(20, time.Minute, 10)
	}
	if cfg.UploadRateLimiter == nil {
		cfg.UploadRateLimiter = NewRateLimiter(30, time.Minute, 10)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadSize
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.RequestLogger(log))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("Wallpaper API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		services:          services,
		router:            router,
		api:               api,
		logger:            log,
		authRateLimiter:   cfg.AuthRateLimiter,
		uploadRateLimiter: cfg.UploadRateLimiter,
		maxUploadBytes:    cfg.MaxUploadBytes,
		mediaRoot:         cfg.MediaRoot,
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerFollowRoutes()
	s.registerWallpaperRoutes()
	s.registerModerationRoutes()
	s.registerFeedbackRoutes()
	s.registerUploadRoutes()
	s.registerMediaRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background cleanup of the rate limiters.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
	s.uploadRateLimiter.Stop()
}
