package controller

import (
	"context"

	"github.com/Alturino/storefront/cart/internal/model"
	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

// ownerFromContext prefers the authenticated user and falls back to the guest session.
func ownerFromContext(c context.Context) (model.Owner, error) {
	if _, ok := auth.ClaimsFromContext(c); ok {
		userID, err := auth.UserIdFromContext(c)
		if err != nil {
			return model.Owner{}, err
		}
		return model.UserOwner(userID), nil
	}
	if sessionID := auth.SessionIDFromContext(c); sessionID != "" {
		return model.GuestOwner(sessionID), nil
	}
	return model.Owner{}, inErrors.ErrMissingOwner
}
