package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	domainerrors "github.com/wallpaperhub/wallpaper-server/internal/errors"
	"github.com/wallpaperhub/wallpaper-server/internal/id"
	"github.com/wallpaperhub/wallpaper-server/internal/media"
	"github.com/wallpaperhub/wallpaper-server/internal/media/images"
	"github.com/wallpaperhub/wallpaper-server/internal/search"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
)

const (
	maxTitleLength    = 120
	maxCategoryLength = 40
)

// WallpaperService handles uploads, listings and per-wallpaper interactions.
type WallpaperService struct {
	store  store.Store
	media  media.Backend
	images *images.Processor
	index  *search.Index
	logger *slog.Logger
}

// NewWallpaperService creates a new wallpaper service.
func NewWallpaperService(
	store store.Store,
	media media.Backend,
	images *images.Processor,
	index *search.Index,
	logger *slog.Logger,
) *WallpaperService {
	return &WallpaperService{
		store:  store,
		media:  media,
		images: images,
		index:  index,
		logger: logger,
	}
}

// UploadRequest is a new submission.
type UploadRequest struct {
	ArtistID string
	Title    string
	Category string
	Image    []byte
}

// SearchResult is a ranked page of approved wallpapers.
type SearchResult struct {
	Query      string                       `json:"query"`
	Total      uint64                       `json:"total"`
	Wallpapers []domain.WallpaperWithArtist `json:"wallpapers"`
}

// List returns approved wallpapers, newest first. search matches a title
// substring and category narrows to one category unless it is "Todos".
func (s *WallpaperService) List(ctx context.Context, search, category string) ([]domain.WallpaperWithArtist, error) {
	list, err := s.store.ListApprovedWallpapers(ctx, store.WallpaperFilter{
		Search:   strings.TrimSpace(search),
		Category: strings.TrimSpace(category),
	})
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to list wallpapers")
	}
	return list, nil
}

// Search runs a full-text query over approved wallpapers.
func (s *WallpaperService) Search(ctx context.Context, params search.Params) (*SearchResult, error) {
	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}

	// The index may briefly lag a deletion; the store has the final say.
	wallpapers, err := s.store.GetApprovedWallpapers(ctx, result.IDs())
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to load wallpapers")
	}
	return &SearchResult{Query: result.Query, Total: result.Total, Wallpapers: wallpapers}, nil
}

// Upload stores a new wallpaper in the moderation queue.
func (s *WallpaperService) Upload(ctx context.Context, req UploadRequest) (*domain.Wallpaper, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = domain.DefaultTitle
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = domain.DefaultCategory
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"title": fmt.Sprintf("must not exceed %d characters", maxTitleLength)})
	}
	if utf8.RuneCountInString(category) > maxCategoryLength {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"category": fmt.Sprintf("must not exceed %d characters", maxCategoryLength)})
	}

	prepared, err := prepareImage(s.images, req.Image)
	if err != nil {
		return nil, err
	}

	wallpaperID, err := id.Generate(id.PrefixWallpaper)
	if err != nil {
		return nil, fmt.Errorf("generate wallpaper ID: %w", err)
	}

	asset, err := s.media.Upload(ctx, media.FolderWallpapers,
		wallpaperID+media.ExtensionFor(prepared.ContentType), prepared.Data, prepared.ContentType)
	if err != nil {
		return nil, domainerrors.Upstream(err, "failed to upload image")
	}

	w := &domain.Wallpaper{
		Record:   domain.Record{ID: wallpaperID},
		Title:    title,
		Tags:     domain.TagsFromTitle(title),
		ImageURL: asset.URL,
		AssetID:  asset.ID,
		BlurHash: prepared.BlurHash,
		Width:    prepared.Width,
		Height:   prepared.Height,
		Category: category,
		Likes:    []string{},
		ArtistID: req.ArtistID,
		Status:   domain.StatusPending,
	}
	w.InitTimestamps()

	if err := s.store.CreateWallpaper(ctx, w); err != nil {
		releaseAsset(ctx, s.media, s.logger, asset.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("artist not found")
		}
		return nil, domainerrors.Persistence(err, "failed to save wallpaper")
	}

	s.logger.Info("wallpaper submitted", "wallpaper_id", w.ID, "artist_id", w.ArtistID, "bytes", len(prepared.Data))
	return w, nil
}

// ToggleLike likes or unlikes a wallpaper and returns the current likes.
func (s *WallpaperService) ToggleLike(ctx context.Context, userID, wallpaperID string) ([]string, error) {
	likes, err := s.store.ToggleLike(ctx, wallpaperID, userID)
	if err != nil {
		return nil, storeError(err, "wallpaper")
	}
	return likes, nil
}

// RecordDownload increments the download counter.
func (s *WallpaperService) RecordDownload(ctx context.Context, wallpaperID string) (int, error) {
	n, err := s.store.IncrementDownloads(ctx, wallpaperID)
	if err != nil {
		return 0, storeError(err, "wallpaper")
	}
	return n, nil
}

// ByArtist lists an artist's wallpapers, newest first. The artist sees
// their pending submissions too; everyone else only sees approved ones.
func (s *WallpaperService) ByArtist(ctx context.Context, viewerID, artistID string) ([]*domain.Wallpaper, error) {
	list, err := s.store.ListWallpapersByArtist(ctx, artistID)
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to list wallpapers")
	}
	if viewerID == artistID {
		return list, nil
	}

	approved := make([]*domain.Wallpaper, 0, len(list))
	for _, w := range list {
		if w.IsApproved() {
			approved = append(approved, w)
		}
	}
	return approved, nil
}

// Delete removes a wallpaper owned by userID.
func (s *WallpaperService) Delete(ctx context.Context, userID, wallpaperID string) error {
	w, err := s.store.GetWallpaper(ctx, wallpaperID)
	if err != nil {
		return storeError(err, "wallpaper")
	}
	if w.ArtistID != userID {
		return domainerrors.Unauthorized("not allowed to delete this wallpaper")
	}

	releaseAsset(ctx, s.media, s.logger, w.AssetID)
	if err := s.store.DeleteWallpaper(ctx, w.ID); err != nil {
		return storeError(err, "wallpaper")
	}
	s.unindex(ctx, w.ID)

	s.logger.Info("wallpaper deleted", "wallpaper_id", w.ID, "artist_id", userID)
	return nil
}

// Reindex rebuilds the search index from the approved wallpapers in the store.
func (s *WallpaperService) Reindex(ctx context.Context) error {
	list, err := s.store.ListApprovedWallpapers(ctx, store.WallpaperFilter{})
	if err != nil {
		return fmt.Errorf("list approved wallpapers: %w", err)
	}

	if err := s.index.Rebuild(); err != nil {
		return err
	}

	docs := make([]*search.Document, len(list))
	for i := range list {
		docs[i] = search.NewDocument(&list[i].Wallpaper, list[i].Artist.Username)
	}
	if err := s.index.IndexAll(ctx, docs); err != nil {
		return fmt.Errorf("index wallpapers: %w", err)
	}

	s.logger.Info("search index rebuilt", "wallpapers", len(docs))
	return nil
}

// indexApproved adds a freshly approved wallpaper to the search index.
// Failures only affect search and are logged.
func (s *WallpaperService) indexApproved(ctx context.Context, w *domain.Wallpaper, artist string) {
	if err := s.index.Index(ctx, search.NewDocument(w, artist)); err != nil {
		s.logger.Warn("failed to index wallpaper", "wallpaper_id", w.ID, "error", err)
	}
}

func (s *WallpaperService) unindex(ctx context.Context, wallpaperID string) {
	if err := s.index.Delete(ctx, wallpaperID); err != nil {
		s.logger.Warn("failed to remove wallpaper from index", "wallpaper_id", wallpaperID, "error", err)
	}
}
