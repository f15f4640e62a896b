package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/service"
)

func (s *Server) registerModerationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPendingWallpapers",
		Method:      http.MethodGet,
		Path:        wallpaperPrefix + "/admin/pending",
		Summary:     "Moderation queue",
		Description: "Pending submissions, oldest first, with uploader contact (admin only)",
		Tags:        []string{"Moderation"},
		Security:    bearerSecurity,
	}, s.handleListPending)

	huma.Register(s.api, huma.Operation{
		OperationID: "decideWallpaper",
		Method:      http.MethodPut,
		Path:        wallpaperPrefix + "/admin/decide/{id}",
		Summary:     "Approve or reject",
		Description: "Rejecting deletes the image and record. Approving publishes the wallpaper, " +
			"confirms to the artist and notifies followers outside the artist's cooldown (admin only).",
		Tags:     []string{"Moderation"},
		Security: bearerSecurity,
	}, s.handleDecide)

	huma.Register(s.api, huma.Operation{
		OperationID: "listDispatches",
		Method:      http.MethodGet,
		Path:        wallpaperPrefix + "/admin/dispatches",
		Summary:     "Recent push deliveries",
		Description: "Latest notification delivery reports, newest first (admin only)",
		Tags:        []string{"Moderation"},
		Security:    bearerSecurity,
	}, s.handleListDispatches)

	huma.Register(s.api, huma.Operation{
		OperationID: "broadcast",
		Method:      http.MethodPost,
		Path:        authPrefix + "/broadcast",
		Summary:     "Broadcast notification",
		Description: "Sends one push notification to every registered device (admin only)",
		Tags:        []string{"Moderation"},
		Security:    bearerSecurity,
	}, s.handleBroadcast)
}

// DecideInput carries a moderation decision.
type DecideInput struct {
	ID   string `path:"id" doc:"Wallpaper ID"`
	Body struct {
		Action string `json:"action" doc:"approved or rejected"`
	}
}

// DecisionOutput wraps a decision for Huma.
type DecisionOutput struct {
	Body service.Decision
}

// PendingOutput wraps the moderation queue for Huma.
type PendingOutput struct {
	Body []domain.PendingWallpaper
}

// DispatchesOutput wraps delivery reports for Huma.
type DispatchesOutput struct {
	Body []*domain.DeliveryReport
}

// BroadcastInput is the notification to send. Empty fields use the default announcement.
type BroadcastInput struct {
	Body struct {
		Title string `json:"title" required:"false" maxLength:"100"`
		Body  string `json:"body" required:"false" maxLength:"500"`
	}
}

// BroadcastOutput wraps the broadcast summary for Huma.
type BroadcastOutput struct {
	Body service.BroadcastResult
}

func (s *Server) handleListPending(ctx context.Context, _ *struct{}) (*PendingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := s.services.Moderation.Pending(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PendingOutput{Body: pending}, nil
}

func (s *Server) handleDecide(ctx context.Context, input *DecideInput) (*DecisionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.services.Moderation.Decide(ctx, userID, input.ID, input.Body.Action)
	if err != nil {
		return nil, err
	}
	return &DecisionOutput{Body: *decision}, nil
}

func (s *Server) handleListDispatches(ctx context.Context, _ *struct{}) (*DispatchesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	reports, err := s.services.Moderation.Dispatches(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &DispatchesOutput{Body: reports}, nil
}

func (s *Server) handleBroadcast(ctx context.Context, input *BroadcastInput) (*BroadcastOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Moderation.Broadcast(ctx, userID, input.Body.Title, input.Body.Body)
	if err != nil {
		return nil, err
	}
	return &BroadcastOutput{Body: *result}, nil
}
