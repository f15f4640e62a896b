// Package service holds the business logic behind the HTTP API.
//
// Services take user ids from the authenticated request, load the acting
// user themselves and return coded errors from internal/errors.
package service

import (
	"context"
	"errors"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	domainerrors "github.com/wallpaperhub/wallpaper-server/internal/errors"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
)

// storeError translates a store error about what (e.g. "wallpaper") into a
// domain error.
func storeError(err error, what string) error {
	var se *store.Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s not found", what)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists(what + " already exists")
	case errors.Is(err, store.ErrInvalidInput) && errors.As(err, &se):
		return domainerrors.Validation(se.Message)
	default:
		return domainerrors.Persistence(err, "failed to access "+what)
	}
}

func loadUser(ctx context.Context, st store.Store, userID string) (*domain.User, error) {
	user, err := st.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}

// requireAdmin loads the acting user and checks the admin role.
// A token whose user no longer exists is treated as unauthenticated.
func requireAdmin(ctx context.Context, st store.Store, userID string) (*domain.User, error) {
	user, err := st.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Unauthorized("user not found")
	}
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to load user")
	}
	if !user.IsAdmin() {
		return nil, domainerrors.Forbidden("admin access required")
	}
	return user, nil
}
