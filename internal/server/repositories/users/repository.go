// Package users declares the user account store and its PostgreSQL and Redis
// implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository persists user accounts. Email is unique across all users.
type Repository interface {
	// Create stores a new user and fills in ID and CreatedAt. A duplicate email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// UpdatePassword replaces the stored password hash. Unknown ids yield
	// common.ErrorNotFound.
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}
