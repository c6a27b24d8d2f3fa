package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// PostgresRepository keeps refresh tokens in the refresh_tokens table over
// dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (jti, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, token.JTI, token.UserID, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		if dbx.IsDuplicateKeyError(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	token.Revoked = false
	return nil
}

func (r *PostgresRepository) FindByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	query := `
		SELECT id, jti, user_id, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE jti = $1
	`
	t := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, jti).
		Scan(&t.ID, &t.JTI, &t.UserID, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE refresh_tokens SET revoked = TRUE
		WHERE id = $1 AND revoked = FALSE
	`
	n, err := r.exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepository) RevokeByJTI(ctx context.Context, jti string) (int64, error) {
	query := `
		UPDATE refresh_tokens SET revoked = TRUE
		WHERE jti = $1 AND revoked = FALSE
	`
	return r.exec(ctx, query, jti)
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	query := `
		UPDATE refresh_tokens SET revoked = TRUE
		WHERE user_id = $1 AND revoked = FALSE
	`
	return r.exec(ctx, query, userID)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, arg string) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
