package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
)

func TestFeedbackLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createUser(t, s, "usr-a", "ana")

	older := &domain.Feedback{
		Record:  domain.Record{ID: "fb-1", CreatedAt: time.Now().Add(-time.Hour), UpdatedAt: time.Now()},
		UserID:  "usr-a",
		Type:    domain.FeedbackProblem,
		Message: "La descarga falla",
	}
	newer := &domain.Feedback{
		Record:  domain.Record{ID: "fb-2", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		UserID:  "usr-a",
		Type:    domain.FeedbackComment,
		Message: "Me encanta",
	}
	require.NoError(t, s.CreateFeedback(ctx, older))
	require.NoError(t, s.CreateFeedback(ctx, newer))

	list, err := s.ListFeedback(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "fb-2", list[0].ID)
	assert.Equal(t, "ana", list[0].User.Username)
	assert.Equal(t, "ana@example.com", list[1].User.Email)
	assert.Equal(t, domain.FeedbackProblem, list[1].Type)

	require.NoError(t, s.DeleteFeedback(ctx, "fb-1"))
	assert.ErrorIs(t, s.DeleteFeedback(ctx, "fb-1"), store.ErrNotFound)

	list, err = s.ListFeedback(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
