// Package principals declares persistence of authenticatable identities and
// their role assignments.
package principals

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the credential store consulted by the login strategies.
type Repository interface {
	// GetByUsername finds a principal by case-insensitive username. Roles are
	// not loaded. Returns common.ErrorNotFound when absent.
	GetByUsername(ctx context.Context, username string) (*models.Principal, error)

	// GetByID finds a principal by id with its roles loaded.
	GetByID(ctx context.Context, id string) (*models.Principal, error)

	// GetRoles returns the current role assignments of userID.
	GetRoles(ctx context.Context, userID string) ([]models.Role, error)

	// Create inserts p together with the named roles and fills in ID and
	// CreatedAt. Duplicate username or email yields common.ErrAlreadyExists.
	Create(ctx context.Context, p *models.Principal, roles []string) (*models.Principal, error)

	// TouchLastLogin records a successful login.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
