package remembermetokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
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
	qInsert   = `(?s)^INSERT\s+INTO\s+remember_me_tokens\s*\(id,\s*user_id,\s*verifier_hash,\s*expires_at,\s*is_used,\s*created_at,\s*user_type\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*$`
	qFind     = `(?s)^SELECT\s+id,\s*user_id,\s*verifier_hash,\s*expires_at,\s*is_used,\s*created_at,\s*used_at,\s*user_type\s+FROM\s+remember_me_tokens\s+WHERE\s+id\s*=\s*\$1\s*$`
	qMarkUsed = `(?s)^UPDATE\s+remember_me_tokens\s+SET\s+is_used\s*=\s*TRUE,\s*used_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s+AND\s+is_used\s*=\s*FALSE\s+AND\s+expires_at\s*>\s*\$2\s*$`
	qInvAll   = `(?s)^UPDATE\s+remember_me_tokens\s+SET\s+is_used\s*=\s*TRUE,\s*used_at\s*=\s*\$2\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+is_used\s*=\s*FALSE\s*$`
	qDelete   = `(?s)^DELETE\s+FROM\s+remember_me_tokens\s+WHERE\s+expires_at\s*<=\s*\$1\s*$`
)

func sampleToken() *models.RememberMeToken {
	now := time.Now()
	return &models.RememberMeToken{
		ID:           "44444444-4444-4444-8444-444444444444",
		UserID:       "u-1",
		VerifierHash: "$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA",
		ExpiresAt:    now.Add(24 * time.Hour),
		CreatedAt:    now,
		UserType:     models.UserTypePartner,
	}
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	tok := sampleToken()
	mock.ExpectExec(qInsert).
		WithArgs(tok.ID, tok.UserID, tok.VerifierHash, tok.ExpiresAt, false, tok.CreatedAt, tok.UserType).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), tok); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	mock.ExpectExec(qInsert).WillReturnError(errors.New("boom"))
	if err := repo.Create(context.Background(), tok); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	tok := sampleToken()
	usedAt := time.Now()
	mock.ExpectQuery(qFind).
		WithArgs(tok.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "verifier_hash", "expires_at", "is_used", "created_at", "used_at", "user_type"}).
			AddRow(tok.ID, tok.UserID, tok.VerifierHash, tok.ExpiresAt, true, tok.CreatedAt, usedAt, "partner"))

	got, err := repo.FindByID(context.Background(), tok.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if !got.Used || got.UsedAt == nil || !got.UsedAt.Equal(usedAt) || got.UserType != models.UserTypePartner {
		t.Fatalf("unexpected token: %+v", got)
	}

	mock.ExpectQuery(qFind).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	if _, err := repo.FindByID(context.Background(), "missing"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestMarkUsed(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(qMarkUsed).WithArgs("id-1", now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qMarkUsed).WithArgs("id-1", now).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkUsed(context.Background(), "id-1", now)
	if err != nil || !ok {
		t.Fatalf("first MarkUsed = %v, %v", ok, err)
	}
	ok, err = repo.MarkUsed(context.Background(), "id-1", now)
	if err != nil || ok {
		t.Fatalf("second MarkUsed = %v, %v", ok, err)
	}
}

func TestInvalidateAndDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(qInvAll).WithArgs("u-1", now).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(qDelete).WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.InvalidateAllForUser(context.Background(), "u-1", now)
	if err != nil || n != 2 {
		t.Fatalf("InvalidateAllForUser = %d, %v", n, err)
	}
	n, err = repo.DeleteExpired(context.Background(), now)
	if err != nil || n != 4 {
		t.Fatalf("DeleteExpired = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
