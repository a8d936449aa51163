package principals

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps principals in process memory. Returned values are
// copies, so callers cannot mutate the stored state.
type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]*models.Principal
	byUsername map[string]string
	byEmail    map[string]string
	catalog    map[string]models.Role
}

func NewMemoryRepository() *MemoryRepository {
	catalog := make(map[string]models.Role, len(models.DefaultRoles))
	for _, r := range models.DefaultRoles {
		catalog[r.Name] = r
	}
	return &MemoryRepository{
		byID:       map[string]*models.Principal{},
		byUsername: map[string]string{},
		byEmail:    map[string]string{},
		catalog:    catalog,
	}
}

func clone(p *models.Principal, withRoles bool) *models.Principal {
	c := *p
	c.Roles = nil
	if withRoles {
		c.Roles = append([]models.Role(nil), p.Roles...)
	}
	if p.LastLoginAt != nil {
		t := *p.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (*models.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id], false), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(p, true), nil
}

func (r *MemoryRepository) GetRoles(_ context.Context, userID string) ([]models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[userID]
	if !ok {
		return []models.Role{}, nil
	}
	return append([]models.Role{}, p.Roles...), nil
}

func (r *MemoryRepository) Create(_ context.Context, p *models.Principal, roles []string) (*models.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	uname, email := strings.ToLower(p.Username), strings.ToLower(p.Email)
	if _, ok := r.byUsername[uname]; ok {
		return nil, common.ErrAlreadyExists
	}
	if _, ok := r.byEmail[email]; ok && email != "" {
		return nil, common.ErrAlreadyExists
	}

	assigned := make([]models.Role, 0, len(roles))
	for _, name := range roles {
		role, ok := r.catalog[name]
		if !ok {
			return nil, fmt.Errorf("%w: role %q", common.ErrorNotFound, name)
		}
		assigned = append(assigned, role)
	}

	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	p.Roles = assigned

	r.byID[p.ID] = clone(p, true)
	r.byUsername[uname] = p.ID
	if email != "" {
		r.byEmail[email] = p.ID
	}
	return p, nil
}

func (r *MemoryRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.byID[id]; ok {
		t := at
		p.LastLoginAt = &t
	}
	return nil
}

// SetActive toggles the active flag. It exists for seeding and tests; account
// administration is outside this service.
func (r *MemoryRepository) SetActive(id string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.byID[id]; ok {
		p.Active = active
	}
}

// SetRoles replaces the role assignments of id with the named catalog roles.
func (r *MemoryRepository) SetRoles(id string, names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	roles := make([]models.Role, 0, len(names))
	for _, n := range names {
		role, ok := r.catalog[n]
		if !ok {
			return fmt.Errorf("%w: role %q", common.ErrorNotFound, n)
		}
		roles = append(roles, role)
	}
	p.Roles = roles
	return nil
}
