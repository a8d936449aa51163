package remembermetokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.RememberMeToken) error {
	query := `
		INSERT INTO remember_me_tokens (id, user_id, verifier_hash, expires_at, is_used, created_at, user_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.VerifierHash, t.ExpiresAt, t.Used, t.CreatedAt, t.UserType); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.RememberMeToken, error) {
	query := `
		SELECT id, user_id, verifier_hash, expires_at, is_used, created_at, used_at, user_type
		FROM remember_me_tokens
		WHERE id = $1
	`
	t := &models.RememberMeToken{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&t.ID, &t.UserID, &t.VerifierHash, &t.ExpiresAt, &t.Used, &t.CreatedAt, &t.UsedAt, &t.UserType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
		UPDATE remember_me_tokens
		SET is_used = TRUE, used_at = $2
		WHERE id = $1 AND is_used = FALSE AND expires_at > $2
	`
	n, err := r.exec(ctx, query, id, now)
	return n > 0, err
}

func (r *PostgresRepository) InvalidateAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	query := `
		UPDATE remember_me_tokens
		SET is_used = TRUE, used_at = $2
		WHERE user_id = $1 AND is_used = FALSE
	`
	return r.exec(ctx, query, userID, now)
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM remember_me_tokens
		WHERE expires_at <= $1
	`
	return r.exec(ctx, query, cutoff)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
