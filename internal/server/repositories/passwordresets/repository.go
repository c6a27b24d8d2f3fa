// Package passwordresets stores single-use password reset tokens. Only a
// bcrypt digest of each secret is persisted.
package passwordresets

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// Create stores a new unused token and fills in ID and CreatedAt.
	Create(ctx context.Context, token *models.PasswordResetToken) error

	// FindActive lists tokens that are unused and whose expiry is at or after now.
	FindActive(ctx context.Context, now time.Time) ([]*models.PasswordResetToken, error)

	// MarkUsed flips used from false to true and reports whether this call
	// performed the transition.
	MarkUsed(ctx context.Context, id string) (bool, error)
}
