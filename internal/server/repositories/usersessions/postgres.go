package usersessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.UserSession) error {
	query := `
		INSERT INTO user_sessions (id, user_id, device_info, ip_address, expires_at, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.DeviceInfo, s.IPAddress, s.ExpiresAt, s.Active, s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]models.UserSession, error) {
	query := `
		SELECT id, user_id, device_info, ip_address, expires_at, is_active, created_at, deactivated_at
		FROM user_sessions
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.UserSession
	for rows.Next() {
		var s models.UserSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.DeviceInfo, &s.IPAddress,
			&s.ExpiresAt, &s.Active, &s.CreatedAt, &s.DeactivatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) DeactivateAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	query := `
		UPDATE user_sessions
		SET is_active = FALSE, deactivated_at = $2
		WHERE user_id = $1 AND is_active = TRUE
	`
	return r.exec(ctx, query, userID, now)
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM user_sessions
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
