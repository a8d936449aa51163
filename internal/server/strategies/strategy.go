// Package strategies validates credentials for each user-type population.
// A failed check is "no match" (nil principal, nil error); only storage
// failures are reported as errors.
package strategies

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/principals"
)

// Strategy authenticates one user type.
type Strategy interface {
	UserType() models.UserType
	Validate(ctx context.Context, username, password string) (*models.Principal, error)
	AdditionalClaims(p *models.Principal) map[string]any
}

// PasswordVerifier checks a plaintext against a stored hash.
type PasswordVerifier interface {
	Verify(plain, encoded string) bool
}

// dummyPasswordHash is verified against when there is no usable stored
// hash, so unknown and inactive usernames cost the same argon2id work as a
// wrong password. Its parameters match cryptox.DefaultParams.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=3,p=1$Z29waGF1dGgtZHVtbXktcw$Z29waGF1dGgtdW5rbm93bi1wcmluY2lwYWwta2V5ISE"

// base holds the checks shared by every strategy: the principal exists, is
// active, the password matches, and the freshly loaded roles still include
// the strategy's user type.
type base struct {
	userType   models.UserType
	principals principals.Repository
	passwords  PasswordVerifier
	logger     logging.Logger
}

func newBase(t models.UserType, repo principals.Repository, pv PasswordVerifier, l logging.Logger) base {
	return base{
		userType:   t,
		principals: repo,
		passwords:  pv,
		logger:     l.With("module", "strategies", "user_type", string(t)),
	}
}

func (b base) UserType() models.UserType { return b.userType }

func (b base) Validate(ctx context.Context, username, password string) (*models.Principal, error) {
	p, err := b.principals.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			b.passwords.Verify(password, dummyPasswordHash)
			b.logger.Debug(ctx, "principal not found", "username", username)
			return nil, nil
		}
		return nil, fmt.Errorf("lookup principal: %w", err)
	}

	if !p.Active {
		b.passwords.Verify(password, dummyPasswordHash)
		b.logger.Warn(ctx, "principal is inactive", "username", username)
		return nil, nil
	}

	if !b.passwords.Verify(password, p.PasswordHash) {
		b.logger.Debug(ctx, "password mismatch", "username", username)
		return nil, nil
	}

	// roles are reloaded rather than trusted from the lookup above
	withRoles, err := b.principals.GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load roles: %w", err)
	}
	if !withRoles.Active || !withRoles.HasUserType(b.userType) {
		b.logger.Debug(ctx, "principal lacks user type", "username", username)
		return nil, nil
	}

	return withRoles, nil
}

type EndUser struct{ base }

func NewEndUser(repo principals.Repository, pv PasswordVerifier, l logging.Logger) *EndUser {
	return &EndUser{newBase(models.UserTypeEndUser, repo, pv, l)}
}

func (s *EndUser) AdditionalClaims(p *models.Principal) map[string]any {
	return map[string]any{
		"user_type":  string(models.UserTypeEndUser),
		"is_premium": p.HasRole(models.RolePremium),
	}
}

type Partner struct{ base }

func NewPartner(repo principals.Repository, pv PasswordVerifier, l logging.Logger) *Partner {
	return &Partner{newBase(models.UserTypePartner, repo, pv, l)}
}

func (s *Partner) AdditionalClaims(p *models.Principal) map[string]any {
	level := "basic"
	switch {
	case p.HasRole(models.RoleManager):
		level = "admin"
	case p.HasRole(models.RolePartner):
		level = "standard"
	}
	return map[string]any{
		"user_type":        string(models.UserTypePartner),
		"is_partner_admin": p.HasRole(models.RoleManager),
		"partner_level":    level,
	}
}

type Admin struct{ base }

func NewAdmin(repo principals.Repository, pv PasswordVerifier, l logging.Logger) *Admin {
	return &Admin{newBase(models.UserTypeAdmin, repo, pv, l)}
}

func (s *Admin) AdditionalClaims(p *models.Principal) map[string]any {
	level := "standard"
	switch {
	case p.HasRole(models.RoleSuperAdmin):
		level = "super"
	case p.HasRole(models.RoleSystem):
		level = "system"
	}
	return map[string]any{
		"user_type":      string(models.UserTypeAdmin),
		"is_super_admin": p.HasRole(models.RoleSuperAdmin),
		"admin_level":    level,
	}
}
