package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	insertQ = `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\s*\(jti,\s*user_id,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at\s*$`
	findQ   = `(?s)^\s*SELECT\s+id,\s*jti,\s*user_id,\s*expires_at,\s*revoked,\s*created_at\s+FROM\s+refresh_tokens\s+WHERE\s+jti\s*=\s*\$1\s*$`
	revokeQ = `(?s)^\s*UPDATE\s+refresh_tokens\s+SET\s+revoked\s*=\s*TRUE\s+WHERE\s+id\s*=\s*\$1\s+AND\s+revoked\s*=\s*FALSE\s*$`
	byJTIQ  = `(?s)^\s*UPDATE\s+refresh_tokens\s+SET\s+revoked\s*=\s*TRUE\s+WHERE\s+jti\s*=\s*\$1\s+AND\s+revoked\s*=\s*FALSE\s*$`
	byUserQ = `(?s)^\s*UPDATE\s+refresh_tokens\s+SET\s+revoked\s*=\s*TRUE\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+revoked\s*=\s*FALSE\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(insertQ).
		WithArgs("jti-1", "u1", exp).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("rt-1", created))

	tok := &models.RefreshToken{JTI: "jti-1", UserID: "u1", ExpiresAt: exp}
	if err := repo.Create(context.Background(), tok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.ID != "rt-1" || !tok.CreatedAt.Equal(created) || tok.Revoked {
		t.Fatalf("unexpected token: %+v", tok)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicateJTI(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("jti-1", "u1", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &models.RefreshToken{JTI: "jti-1", UserID: "u1", ExpiresAt: time.Now()})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("jti-1", "u1", sqlmock.AnyArg()).
		WillReturnError(errors.New("insert failed"))

	err := repo.Create(context.Background(), &models.RefreshToken{JTI: "jti-1", UserID: "u1", ExpiresAt: time.Now()})
	if err == nil || !regexp.MustCompile(`db error: .*insert failed`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByJTI_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour).UTC()
	rows := sqlmock.NewRows([]string{"id", "jti", "user_id", "expires_at", "revoked", "created_at"}).
		AddRow("rt-1", "jti-1", "u1", exp, true, time.Now())
	mock.ExpectQuery(findQ).WithArgs("jti-1").WillReturnRows(rows)

	got, err := repo.FindByJTI(context.Background(), "jti-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "rt-1" || got.UserID != "u1" || !got.Revoked || !got.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected token: %+v", got)
	}
}

func TestFindByJTI_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByJTI(context.Background(), "nope")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFindByJTI_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).WithArgs("jti-1").WillReturnError(errors.New("select failed"))

	_, err := repo.FindByJTI(context.Background(), "jti-1")
	if err == nil || !regexp.MustCompile(`db error: .*select failed`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestRevoke_CompareAndSwap(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(revokeQ).WithArgs("rt-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(revokeQ).WithArgs("rt-1").WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.Revoke(context.Background(), "rt-1")
	if err != nil || !won {
		t.Fatalf("first revoke: won=%v err=%v", won, err)
	}
	won, err = repo.Revoke(context.Background(), "rt-1")
	if err != nil || won {
		t.Fatalf("second revoke: won=%v err=%v", won, err)
	}
}

func TestRevoke_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(revokeQ).WithArgs("rt-1").WillReturnError(errors.New("update failed"))

	if _, err := repo.Revoke(context.Background(), "rt-1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestRevokeByJTI(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(byJTIQ).WithArgs("jti-1").WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.RevokeByJTI(context.Background(), "jti-1")
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestRevokeAllForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(byUserQ).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.RevokeAllForUser(context.Background(), "u1")
	if err != nil || n != 3 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestRevokeAllForUser_RowsAffectedError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(byUserQ).WithArgs("u1").
		WillReturnResult(sqlmock.NewErrorResult(errors.New("rows unknown")))

	if _, err := repo.RevokeAllForUser(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
}
