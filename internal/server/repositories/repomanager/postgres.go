package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/migrations"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// postgresRepos binds the PostgreSQL repositories to one DBTX.
type postgresRepos struct {
	db dbx.DBTX
}

func (r *postgresRepos) Users() users.Repository {
	return users.NewPostgresRepository(r.db)
}

func (r *postgresRepos) RefreshTokens() refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(r.db)
}

func (r *postgresRepos) PasswordResets() passwordresets.Repository {
	return passwordresets.NewPostgresRepository(r.db)
}

// PostgresRepositoryManager vends PostgreSQL-backed repositories and runs the
// embedded goose migrations.
type PostgresRepositoryManager struct {
	postgresRepos
	db *sql.DB
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) (*PostgresRepositoryManager, error) {
	return &PostgresRepositoryManager{postgresRepos: postgresRepos{db: db}, db: db}, nil
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &postgresRepos{db: tx})
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and applies them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
