// Package refreshtokens declares the server-side store for issued refresh
// tokens and its PostgreSQL and Redis implementations.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository tracks refresh tokens by their jti. Records are revoked, never
// deleted.
type Repository interface {
	// Create stores a new, unrevoked token and fills in ID and CreatedAt.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindByJTI returns the record for jti or common.ErrorNotFound.
	FindByJTI(ctx context.Context, jti string) (*models.RefreshToken, error)

	// Revoke flips revoked from false to true. It reports whether this call
	// performed the transition, so of two concurrent callers only one wins.
	Revoke(ctx context.Context, id string) (bool, error)

	// RevokeByJTI revokes the token with the given jti if it is still active
	// and returns the number of records changed.
	RevokeByJTI(ctx context.Context, jti string) (int64, error)

	// RevokeAllForUser revokes every active token of a user and returns the
	// number of records changed.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}
