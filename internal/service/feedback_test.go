package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	domainerrors "github.com/wallpaperhub/wallpaper-server/internal/errors"
)

func TestFeedback_SubmitListDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createUser(t, "admin", withRole(domain.RoleAdmin))
	ana := env.createUser(t, "ana")

	f, err := env.feedback.Submit(ctx, ana.ID, FeedbackRequest{Type: "Problema", Message: "La app se <b>cierra</b>"})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackProblem, f.Type)
	assert.Equal(t, "La app se **cierra**", f.Message)

	_, err = env.feedback.List(ctx, ana.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))

	list, err := env.feedback.List(ctx, admin.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ana", list[0].User.Username)

	require.NoError(t, env.feedback.Delete(ctx, admin.ID, f.ID))
	err = env.feedback.Delete(ctx, admin.ID, f.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestFeedback_Validation(t *testing.T) {
	env := newTestEnv(t)
	ana := env.createUser(t, "ana")

	_, err := env.feedback.Submit(context.Background(), ana.ID, FeedbackRequest{Type: "spam", Message: "x"})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))

	_, err = env.feedback.Submit(context.Background(), ana.ID, FeedbackRequest{Type: "comentario"})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

func TestCleanMessage(t *testing.T) {
	assert.Equal(t, "plain text", cleanMessage("plain text"))
	assert.Equal(t, "[site](https://x.test)", cleanMessage(`<a href="https://x.test">site</a>`))
}
