package strategies

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/principals"
)

// Registry is an ordered strategy list. Auto-detection tries strategies in
// list order and the first match wins, so a username present in two
// populations always resolves to the earlier one.
type Registry struct {
	strategies []Strategy
}

// NewRegistry keeps the given order. Duplicate user types are rejected.
func NewRegistry(ss ...Strategy) (*Registry, error) {
	seen := make(map[models.UserType]struct{}, len(ss))
	for _, s := range ss {
		if _, dup := seen[s.UserType()]; dup {
			return nil, fmt.Errorf("duplicate strategy for user type %q", s.UserType())
		}
		seen[s.UserType()] = struct{}{}
	}
	return &Registry{strategies: ss}, nil
}

// NewDefaultRegistry wires the built-in strategies in priority order
// EndUser, Partner, Admin.
func NewDefaultRegistry(repo principals.Repository, pv PasswordVerifier, l logging.Logger) *Registry {
	return &Registry{strategies: []Strategy{
		NewEndUser(repo, pv, l),
		NewPartner(repo, pv, l),
		NewAdmin(repo, pv, l),
	}}
}

// Get returns the strategy for t or common.ErrUnknownUserType.
func (r *Registry) Get(t models.UserType) (Strategy, error) {
	for _, s := range r.strategies {
		if s.UserType() == t {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", common.ErrUnknownUserType, t)
}

// All returns the strategies in priority order.
func (r *Registry) All() []Strategy {
	out := make([]Strategy, len(r.strategies))
	copy(out, r.strategies)
	return out
}

// TryAuthenticateAuto returns the first matching principal with the strategy
// that accepted it. No match is (nil, nil, nil).
func (r *Registry) TryAuthenticateAuto(ctx context.Context, username, password string) (*models.Principal, Strategy, error) {
	for _, s := range r.strategies {
		p, err := s.Validate(ctx, username, password)
		if err != nil {
			return nil, nil, err
		}
		if p != nil {
			return p, s, nil
		}
	}
	return nil, nil, nil
}
