package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/config"
	"github.com/wallpaperhub/wallpaper-server/internal/logger"
	"github.com/wallpaperhub/wallpaper-server/internal/search"
	"github.com/wallpaperhub/wallpaper-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.Open(search.Options{
		DataPath: cfg.SearchPath(),
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.Count()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index from the store in
// the background. Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	wallpapers := do.MustInvoke[*service.WallpaperService](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.Count()
	if docCount > 0 {
		return
	}

	log.Info("Search index is empty, triggering reindex")

	go func() {
		if err := wallpapers.Reindex(context.Background()); err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		count, _ := indexHandle.Count()
		log.Info("Initial search reindex completed", "documents", count)
	}()
}
