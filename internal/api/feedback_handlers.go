package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/service"
)

func (s *Server) registerFeedbackRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "submitFeedback",
		Method:        http.MethodPost,
		Path:          feedbackPrefix,
		Summary:       "Send feedback",
		Description:   "Stores a comment or problem report. HTML is converted to Markdown.",
		Tags:          []string{"Feedback"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleSubmitFeedback)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFeedback",
		Method:      http.MethodGet,
		Path:        feedbackPrefix + "/admin",
		Summary:     "List feedback",
		Description: "All reports, newest first, with author contact (admin only)",
		Tags:        []string{"Feedback"},
		Security:    bearerSecurity,
	}, s.handleListFeedback)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteFeedback",
		Method:      http.MethodDelete,
		Path:        feedbackPrefix + "/{id}",
		Summary:     "Delete feedback",
		Tags:        []string{"Feedback"},
		Security:    bearerSecurity,
	}, s.handleDeleteFeedback)
}

// FeedbackInput is a user report.
type FeedbackInput struct {
	Body struct {
		Type    string `json:"type" doc:"comentario or problema"`
		Message string `json:"message" maxLength:"5000"`
	}
}

// FeedbackOutput wraps a stored report for Huma.
type FeedbackOutput struct {
	Body *domain.Feedback
}

// FeedbackListOutput wraps reports for Huma.
type FeedbackListOutput struct {
	Body []domain.FeedbackWithUser
}

// FeedbackIDInput identifies a report by path.
type FeedbackIDInput struct {
	ID string `path:"id" doc:"Feedback ID"`
}

func (s *Server) handleSubmitFeedback(ctx context.Context, input *FeedbackInput) (*FeedbackOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	f, err := s.services.Feedback.Submit(ctx, userID, service.FeedbackRequest{
		Type:    input.Body.Type,
		Message: input.Body.Message,
	})
	if err != nil {
		return nil, err
	}
	return &FeedbackOutput{Body: f}, nil
}

func (s *Server) handleListFeedback(ctx context.Context, _ *struct{}) (*FeedbackListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.services.Feedback.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &FeedbackListOutput{Body: list}, nil
}

func (s *Server) handleDeleteFeedback(ctx context.Context, input *FeedbackIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Feedback.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Feedback eliminado"}}, nil
}
