package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// SeedAdmin creates a SuperAdmin account unless the username is taken.
// Both arguments empty is a no-op.
func (s *AuthService) SeedAdmin(ctx context.Context, username, password string) error {
	if username == "" && password == "" {
		return nil
	}
	if username == "" || password == "" {
		return fmt.Errorf("%w: seed admin needs both username and password", common.ErrInvalidArgument)
	}
	if ok, reasons := s.opts.PasswordPolicy.Validate(password); !ok {
		return fmt.Errorf("%w: %s", common.ErrWeakPassword, strings.Join(reasons, ", "))
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	p, err := s.store.Repos.Principals(s.store.DB).Create(ctx, &models.Principal{
		Username:     username,
		Email:        strings.ToLower(username) + "@localhost",
		FirstName:    "System",
		LastName:     "Administrator",
		PasswordHash: hash,
		Active:       true,
	}, []string{models.RoleSuperAdmin})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			s.logger.Info(ctx, "seed admin already exists", "username", username)
			return nil
		}
		return fmt.Errorf("seed admin: %w", err)
	}
	s.logger.Info(ctx, "seed admin created", "user_id", p.ID, "username", username)
	return nil
}
