package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wallpaperhub/wallpaper-server/internal/http/response"
	"github.com/wallpaperhub/wallpaper-server/internal/service"
)

// Multipart endpoints stay on plain chi: huma's typed bodies buffer the
// whole form into the schema, and the app posts images with extra fields.
func (s *Server) registerUploadRoutes() {
	limited := s.router.With(RateLimitMiddleware(s.uploadRateLimiter, s.logger))
	limited.Post(wallpaperPrefix+"/upload", s.handleUploadWallpaper)
	limited.Put(authPrefix+"/update-avatar", s.handleUpdateAvatar)
}

// handleUploadWallpaper submits a wallpaper for review.
// POST /api/v1/wallpapers/upload
// Content-Type: multipart/form-data with "image", "title" and "category" fields
func (s *Server) handleUploadWallpaper(w http.ResponseWriter, r *http.Request) {
	userID := optionalUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	data, ok := s.readImage(w, r, "image")
	if !ok {
		return
	}

	wallpaper, err := s.services.Wallpapers.Upload(r.Context(), service.UploadRequest{
		ArtistID: userID,
		Title:    r.FormValue("title"),
		Category: r.FormValue("category"),
		Image:    data,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, wallpaper, s.logger)
}

// handleUpdateAvatar replaces the caller's profile picture.
// PUT /api/v1/auth/update-avatar
// Content-Type: multipart/form-data with "avatar" field
func (s *Server) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID := optionalUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	data, ok := s.readImage(w, r, "avatar")
	if !ok {
		return
	}

	profile, err := s.services.Users.UpdateAvatar(r.Context(), userID, data)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, profile, s.logger)
}

// readImage parses the multipart body and returns the named file's bytes.
// On failure it writes the response and returns false.
func (s *Server) readImage(w http.ResponseWriter, r *http.Request, field string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(w, fmt.Sprintf("File too large. Maximum size is %dMB", s.maxUploadBytes>>20), s.logger)
			return nil, false
		}
		response.BadRequest(w, "Failed to parse form data", s.logger)
		return nil, false
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		response.BadRequest(w, fmt.Sprintf("No image received. Use '%s' field in multipart form", field), s.logger)
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("Failed to read uploaded file", "error", err, "field", field)
		response.InternalError(w, "Failed to read uploaded file", s.logger)
		return nil, false
	}
	return data, true
}
