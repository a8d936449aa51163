package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const tokenColumns = `id, user_id, token_hash, jti, expires_at, remember_me, state, replaced_by, created_at, revoked_at, user_type`

func scanToken(row *sql.Row) (*models.RefreshToken, error) {
	t := &models.RefreshToken{}
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.JTI, &t.ExpiresAt,
		&t.RememberMe, &t.State, &t.ReplacedBy, &t.CreatedAt, &t.RevokedAt, &t.UserType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, jti, expires_at, remember_me, state, created_at, user_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.TokenHash, t.JTI, t.ExpiresAt, t.RememberMe, t.State, t.CreatedAt, t.UserType)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	query := `SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	return scanToken(r.db.QueryRowContext(ctx, query, hash))
}

// Consume relies on the row lock taken by UPDATE: a concurrent caller waits,
// re-evaluates the WHERE clause against the committed row and matches nothing.
func (r *PostgresRepository) Consume(ctx context.Context, hash, replacedBy string, now time.Time) (*models.RefreshToken, error) {
	query := `
		UPDATE refresh_tokens
		SET state = 'consumed', replaced_by = $2
		WHERE token_hash = $1 AND state = 'active' AND expires_at > $3
		RETURNING ` + tokenColumns
	return scanToken(r.db.QueryRowContext(ctx, query, hash, replacedBy, now))
}

func (r *PostgresRepository) Revoke(ctx context.Context, hash string, now time.Time) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET state = 'revoked', revoked_at = $2
		WHERE token_hash = $1 AND state = 'active'
	`
	res, err := r.db.ExecContext(ctx, query, hash, now)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET state = 'revoked', revoked_at = $2
		WHERE user_id = $1 AND state = 'active'
	`
	res, err := r.db.ExecContext(ctx, query, userID, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
