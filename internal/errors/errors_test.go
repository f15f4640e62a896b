package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeValidation, http.StatusBadRequest},
		{CodeUpstream, http.StatusBadGateway},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodePersistence, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := Forbidden("admin access required")

	assert.True(t, Is(err, ErrForbidden))
	assert.False(t, Is(err, ErrNotFound))

	wrapped := fmt.Errorf("decide: %w", err)
	assert.True(t, Is(wrapped, ErrForbidden))
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Persistence(cause, "failed to approve wallpaper")

	assert.Equal(t, "failed to approve wallpaper: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, ErrPersistence))
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
}

func TestError_WithDetails(t *testing.T) {
	base := Validation("validation failed")
	detailed := base.WithDetails(map[string]string{"action": "is invalid"})

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]string{"action": "is invalid"}, detailed.Details)
	assert.Equal(t, CodeValidation, detailed.Code)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeUpstream, CodeOf(fmt.Errorf("x: %w", Upstream(nil, "gateway"))))
	assert.Equal(t, CodeInternal, CodeOf(stderrors.New("plain")))
}
