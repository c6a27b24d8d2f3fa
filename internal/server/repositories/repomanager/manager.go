// Package repomanager groups the per-entity repositories behind one storage
// backend and exposes a unit-of-work helper.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// Repositories is the set of stores the auth service works with.
type Repositories interface {
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	PasswordResets() passwordresets.Repository
}

type RepositoryManager interface {
	Repositories

	// WithTx runs fn with repositories bound to a single unit of work. On
	// PostgreSQL this is a database transaction that commits when fn returns
	// nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
