package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/search"
	"github.com/wallpaperhub/wallpaper-server/internal/service"
)

func (s *Server) registerWallpaperRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listWallpapers",
		Method:      http.MethodGet,
		Path:        wallpaperPrefix,
		Summary:     "List approved wallpapers",
		Description: "Newest first. Filters by title substring and category.",
		Tags:        []string{"Wallpapers"},
	}, s.handleListWallpapers)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchWallpapers",
		Method:      http.MethodGet,
		Path:        wallpaperPrefix + "/search",
		Summary:     "Search wallpapers",
		Description: "Full-text search over title, tags, category and artist name",
		Tags:        []string{"Wallpapers"},
	}, s.handleSearchWallpapers)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleLike",
		Method:      http.MethodPut,
		Path:        wallpaperPrefix + "/like/{id}",
		Summary:     "Like or unlike",
		Tags:        []string{"Wallpapers"},
		Security:    bearerSecurity,
	}, s.handleToggleLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordDownload",
		Method:      http.MethodPut,
		Path:        wallpaperPrefix + "/download/{id}",
		Summary:     "Count a download",
		Tags:        []string{"Wallpapers"},
	}, s.handleRecordDownload)

	huma.Register(s.api, huma.Operation{
		OperationID: "listArtistWallpapers",
		Method:      http.MethodGet,
		Path:        wallpaperPrefix + "/artist/{artistId}",
		Summary:     "Wallpapers by artist",
		Description: "The owner also sees submissions still pending review",
		Tags:        []string{"Wallpapers"},
	}, s.handleArtistWallpapers)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteWallpaper",
		Method:      http.MethodDelete,
		Path:        wallpaperPrefix + "/{id}",
		Summary:     "Delete own wallpaper",
		Tags:        []string{"Wallpapers"},
		Security:    bearerSecurity,
	}, s.handleDeleteWallpaper)
}

// ListWallpapersInput filters the public feed.
type ListWallpapersInput struct {
	Search   string `query:"search" doc:"Case-insensitive title substring"`
	Category string `query:"category" doc:"Category name, Todos or empty for all"`
}

// SearchWallpapersInput is a full-text query.
type SearchWallpapersInput struct {
	Query    string `query:"q" doc:"Search terms"`
	Category string `query:"category" doc:"Restrict to one category"`
	Limit    int    `query:"limit" default:"20" minimum:"1" maximum:"100"`
	Offset   int    `query:"offset" default:"0" minimum:"0"`
}

// WallpaperIDInput identifies a wallpaper by path.
type WallpaperIDInput struct {
	ID string `path:"id" doc:"Wallpaper ID"`
}

// ArtistWallpapersInput identifies an artist by path.
type ArtistWallpapersInput struct {
	ArtistID string `path:"artistId" doc:"Artist user ID"`
}

// WallpaperFeedOutput wraps approved wallpapers for Huma.
type WallpaperFeedOutput struct {
	Body []domain.WallpaperWithArtist
}

// WallpaperListOutput wraps an artist's wallpapers for Huma.
type WallpaperListOutput struct {
	Body []*domain.Wallpaper
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body service.SearchResult
}

// LikesResponse lists the users currently liking a wallpaper.
type LikesResponse struct {
	Likes []string `json:"likes"`
}

// LikesOutput wraps likes for Huma.
type LikesOutput struct {
	Body LikesResponse
}

// DownloadsResponse is the updated download counter.
type DownloadsResponse struct {
	Downloads int `json:"downloads"`
}

// DownloadsOutput wraps the counter for Huma.
type DownloadsOutput struct {
	Body DownloadsResponse
}

func (s *Server) handleListWallpapers(ctx context.Context, input *ListWallpapersInput) (*WallpaperFeedOutput, error) {
	list, err := s.services.Wallpapers.List(ctx, input.Search, input.Category)
	if err != nil {
		return nil, err
	}
	return &WallpaperFeedOutput{Body: list}, nil
}

func (s *Server) handleSearchWallpapers(ctx context.Context, input *SearchWallpapersInput) (*SearchOutput, error) {
	result, err := s.services.Wallpapers.Search(ctx, search.Params{
		Query:    input.Query,
		Category: input.Category,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: *result}, nil
}

func (s *Server) handleToggleLike(ctx context.Context, input *WallpaperIDInput) (*LikesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	likes, err := s.services.Wallpapers.ToggleLike(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &LikesOutput{Body: LikesResponse{Likes: likes}}, nil
}

func (s *Server) handleRecordDownload(ctx context.Context, input *WallpaperIDInput) (*DownloadsOutput, error) {
	downloads, err := s.services.Wallpapers.RecordDownload(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &DownloadsOutput{Body: DownloadsResponse{Downloads: downloads}}, nil
}

func (s *Server) handleArtistWallpapers(ctx context.Context, input *ArtistWallpapersInput) (*WallpaperListOutput, error) {
	list, err := s.services.Wallpapers.ByArtist(ctx, optionalUserID(ctx), input.ArtistID)
	if err != nil {
		return nil, err
	}
	return &WallpaperListOutput{Body: list}, nil
}

func (s *Server) handleDeleteWallpaper(ctx context.Context, input *WallpaperIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Wallpapers.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Wallpaper eliminado correctamente"}}, nil
}
