package users

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
	insertQuery     = `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*name,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at\s*$`
	selectByEmail   = `(?s)^SELECT\s+id,\s*email,\s*name,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`
	selectByID      = `(?s)^SELECT\s+id,\s*email,\s*name,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	updatePassQuery = `(?s)^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow("42", created)
	mock.ExpectQuery(insertQuery).
		WithArgs("alice@example.com", "Alice", "hash").
		WillReturnRows(rows)

	name := "Alice"
	u := &models.User{Email: "alice@example.com", Name: &name, PasswordHash: "hash"}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "42" || got.Email != "alice@example.com" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_NilNameStoredAsNull(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow("43", time.Now())
	mock.ExpectQuery(insertQuery).
		WithArgs("bob@example.com", nil, "hash").
		WillReturnRows(rows)

	if _, err := repo.Create(context.Background(), &models.User{Email: "bob@example.com", PasswordHash: "hash"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("alice@example.com", nil, "hash").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com", PasswordHash: "hash"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("alice@example.com", nil, "hash").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com", PasswordHash: "hash"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetUserByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at"}).
		AddRow("u-1", "alice@example.com", "Alice", "hash", time.Now())
	mock.ExpectQuery(selectByEmail).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	got, err := repo.GetUserByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.Name == nil || *got.Name != "Alice" || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetUserByEmail_NullName(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at"}).
		AddRow("u-1", "alice@example.com", nil, "hash", time.Now())
	mock.ExpectQuery(selectByEmail).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	got, err := repo.GetUserByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	if got.Name != nil {
		t.Fatalf("expected nil name, got %q", *got.Name)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectByEmail).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetUserByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectByID).
		WithArgs("u-1").
		WillReturnError(errors.New("db err"))

	_, err := repo.GetUserByID(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(updatePassQuery).
		WithArgs("u-1", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.UpdatePassword(context.Background(), "u-1", "newhash"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}

	mock.ExpectExec(updatePassQuery).
		WithArgs("ghost", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.UpdatePassword(context.Background(), "ghost", "newhash"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}

	mock.ExpectExec(updatePassQuery).
		WithArgs("u-1", "newhash").
		WillReturnError(errors.New("db err"))
	if err := repo.UpdatePassword(context.Background(), "u-1", "newhash"); err == nil {
		t.Fatal("expected error")
	}
}
