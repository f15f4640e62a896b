package api

import (
	"net/http"
	"strings"

	domainerrors "github.com/wallpaperhub/wallpaper-server/internal/errors"
	"github.com/wallpaperhub/wallpaper-server/internal/http/response"
)

// registerMediaRoutes serves the local media directory. Object storage
// backends hand out their own URLs and leave mediaRoot empty.
func (s *Server) registerMediaRoutes() {
	if s.mediaRoot == "" {
		return
	}

	files := http.StripPrefix(MediaPrefix, http.FileServer(http.Dir(s.mediaRoot)))
	s.router.Get(MediaPrefix+"/*", func(w http.ResponseWriter, r *http.Request) {
		// No directory listings.
		if strings.HasSuffix(r.URL.Path, "/") {
			response.Error(w, http.StatusNotFound, domainerrors.CodeNotFound, "asset not found", nil, s.logger)
			return
		}
		// Asset names are never reused.
		w.Header().Set("Cache-Control", CacheOneWeek)
		files.ServeHTTP(w, r)
	})
}
