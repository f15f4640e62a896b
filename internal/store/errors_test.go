package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wallpaperhub/wallpaper-server/internal/store"
)

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := store.ErrNotFound.WithCause(cause)

	assert.Contains(t, err.Error(), "resource not found")
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_HTTPCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, store.ErrNotFound.HTTPCode())
	assert.Equal(t, http.StatusConflict, store.ErrAlreadyExists.HTTPCode())
	assert.Equal(t, http.StatusBadRequest, store.ErrInvalidInput.HTTPCode())
}

func TestError_IsMatchesDerivedErrors(t *testing.T) {
	err := fmt.Errorf("get wallpaper: %w", store.ErrNotFound.WithMessage("wallpaper not found"))

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrAlreadyExists)
	assert.Equal(t, "wallpaper not found", store.ErrNotFound.WithMessage("wallpaper not found").Error())
}
