package usersessions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type MemoryRepository struct {
	mu   sync.Mutex
	byID map[string]*models.UserSession
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]*models.UserSession{}}
}

func (r *MemoryRepository) Create(_ context.Context, s *models.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; ok {
		return common.ErrAlreadyExists
	}
	c := *s
	r.byID[s.ID] = &c
	return nil
}

func (r *MemoryRepository) ListActiveForUser(_ context.Context, userID string, now time.Time) ([]models.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.UserSession
	for _, s := range r.byID {
		if s.UserID == userID && s.Live(now) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) DeactivateAllForUser(_ context.Context, userID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, s := range r.byID {
		if s.UserID == userID && s.Active {
			at := now
			s.Active = false
			s.DeactivatedAt = &at
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, s := range r.byID {
		if !s.ExpiresAt.After(cutoff) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}
