package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	domainerrors "github.com/wallpaperhub/wallpaper-server/internal/errors"
	"github.com/wallpaperhub/wallpaper-server/internal/id"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
	"github.com/wallpaperhub/wallpaper-server/internal/validation"
)

// FeedbackService collects comments and problem reports from the app.
type FeedbackService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(store store.Store, validator *validation.Validator, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{store: store, validator: validator, logger: logger}
}

// FeedbackRequest is a report sent by a user.
type FeedbackRequest struct {
	Type    string `json:"type" validate:"required,oneof=comentario problema"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Submit stores a report. Messages pasted as HTML are kept as Markdown.
func (s *FeedbackService) Submit(ctx context.Context, userID string, req FeedbackRequest) (*domain.Feedback, error) {
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	feedbackID, err := id.Generate(id.PrefixFeedback)
	if err != nil {
		return nil, fmt.Errorf("generate feedback ID: %w", err)
	}

	f := &domain.Feedback{
		Record:  domain.Record{ID: feedbackID},
		UserID:  userID,
		Type:    domain.FeedbackType(req.Type),
		Message: cleanMessage(req.Message),
	}
	f.InitTimestamps()

	if err := s.store.CreateFeedback(ctx, f); err != nil {
		return nil, domainerrors.Persistence(err, "failed to save feedback")
	}

	s.logger.Info("feedback received", "feedback_id", f.ID, "user_id", userID, "type", f.Type)
	return f, nil
}

// List returns every report, newest first.
func (s *FeedbackService) List(ctx context.Context, adminID string) ([]domain.FeedbackWithUser, error) {
	if _, err := requireAdmin(ctx, s.store, adminID); err != nil {
		return nil, err
	}

	list, err := s.store.ListFeedback(ctx)
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to list feedback")
	}
	return list, nil
}

// Delete removes a report.
func (s *FeedbackService) Delete(ctx context.Context, adminID, feedbackID string) error {
	if _, err := requireAdmin(ctx, s.store, adminID); err != nil {
		return err
	}

	if err := s.store.DeleteFeedback(ctx, feedbackID); err != nil {
		return storeError(err, "feedback")
	}
	return nil
}

// cleanMessage converts HTML to Markdown. Plain text is returned as is.
func cleanMessage(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	if markdown = strings.TrimSpace(markdown); markdown == "" {
		return s
	}
	return markdown
}
