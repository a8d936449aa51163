package principals

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

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const principalColumns = `id, username, email, first_name, last_name, password_hash, is_active, created_at, last_login_at`

func scanPrincipal(row *sql.Row) (*models.Principal, error) {
	p := &models.Principal{}
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.FirstName, &p.LastName,
		&p.PasswordHash, &p.Active, &p.CreatedAt, &p.LastLoginAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Principal, error) {
	query := `SELECT ` + principalColumns + `
		FROM users
		WHERE lower(username) = lower($1)
	`
	return scanPrincipal(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Principal, error) {
	query := `SELECT ` + principalColumns + `
		FROM users
		WHERE id = $1
	`
	p, err := scanPrincipal(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	p.Roles, err = r.GetRoles(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepository) GetRoles(ctx context.Context, userID string) ([]models.Role, error) {
	query := `
		SELECT r.name, r.user_type
		FROM user_roles ur
		JOIN roles r ON r.name = ur.role_name
		WHERE ur.user_id = $1
		ORDER BY ur.granted_at, r.name
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	roles := make([]models.Role, 0)
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.Name, &role.UserType); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return roles, nil
}

// Create must run inside a transaction when roles is not empty, otherwise a
// failed role insert leaves a principal without roles behind.
func (r *PostgresRepository) Create(ctx context.Context, p *models.Principal, roles []string) (*models.Principal, error) {
	query := `
		INSERT INTO users (username, email, first_name, last_name, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.Username, p.Email, p.FirstName, p.LastName, p.PasswordHash, p.Active).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p.Roles = make([]models.Role, 0, len(roles))
	for _, name := range roles {
		var role models.Role
		err := r.db.QueryRowContext(ctx, `
			SELECT name, user_type FROM roles
			WHERE name = $1
		`, name).Scan(&role.Name, &role.UserType)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: role %q", common.ErrorNotFound, name)
			}
			return nil, fmt.Errorf("db error: %w", err)
		}

		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO user_roles (user_id, role_name)
			VALUES ($1, $2)
		`, p.ID, role.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		p.Roles = append(p.Roles, role)
	}

	return p, nil
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE users SET last_login_at = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
