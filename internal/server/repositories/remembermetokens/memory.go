package remembermetokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type MemoryRepository struct {
	mu   sync.Mutex
	byID map[string]*models.RememberMeToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]*models.RememberMeToken{}}
}

func (r *MemoryRepository) Create(_ context.Context, t *models.RememberMeToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[t.ID]; ok {
		return common.ErrAlreadyExists
	}
	c := *t
	r.byID[t.ID] = &c
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*models.RememberMeToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	if t.UsedAt != nil {
		u := *t.UsedAt
		c.UsedAt = &u
	}
	return &c, nil
}

func (r *MemoryRepository) MarkUsed(_ context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok || !t.Usable(now) {
		return false, nil
	}
	markUsed(t, now)
	return true, nil
}

func (r *MemoryRepository) InvalidateAllForUser(_ context.Context, userID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, t := range r.byID {
		if t.UserID == userID && !t.Used {
			markUsed(t, now)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.byID {
		if !t.ExpiresAt.After(cutoff) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func markUsed(t *models.RememberMeToken, now time.Time) {
	at := now
	t.Used = true
	t.UsedAt = &at
}
