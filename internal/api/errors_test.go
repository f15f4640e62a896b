package api

import (
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/wallpaperhub/wallpaper-server/internal/errors"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
)

func TestRegisterErrorHandler(t *testing.T) {
	RegisterErrorHandler()

	tests := []struct {
		name    string
		status  int
		message string
		errs    []error
		want    int
		code    string
	}{
		{
			name:   "domain error wins over status",
			status: http.StatusInternalServerError,
			errs:   []error{domainerrors.Forbidden("admin access required")},
			want:   http.StatusForbidden,
			code:   "FORBIDDEN",
		},
		{
			name:   "store sentinel",
			status: http.StatusInternalServerError,
			errs:   []error{store.ErrNotFound.WithMessage("wallpaper not found")},
			want:   http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:    "schema violation becomes 400",
			status:  http.StatusUnprocessableEntity,
			message: "validation failed",
			errs:    []error{&huma.ErrorDetail{Location: "body.email", Message: "expected string to be RFC 5322 email"}},
			want:    http.StatusBadRequest,
			code:    "VALIDATION",
		},
		{
			name:   "plain status",
			status: http.StatusTooManyRequests,
			want:   http.StatusTooManyRequests,
			code:   "RATE_LIMITED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := huma.NewError(tt.status, tt.message, tt.errs...)

			apiErr, ok := err.(*APIError)
			require.True(t, ok)
			assert.Equal(t, tt.want, apiErr.GetStatus())
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestSchemaDetails(t *testing.T) {
	details := schemaDetails([]error{
		&huma.ErrorDetail{Location: "body.title", Message: "expected length <= 100"},
	})
	assert.Equal(t, map[string]string{"body.title": "expected length <= 100"}, details)

	assert.Nil(t, schemaDetails(nil))
}
