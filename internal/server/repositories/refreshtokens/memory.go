package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// MemoryRepository is a mutex-guarded map keyed by digest. Consume is a
// compare-and-set under the lock, which gives the same single-winner
// guarantee as the conditional UPDATE of the PostgreSQL repository.
type MemoryRepository struct {
	mu     sync.Mutex
	byHash map[string]*models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byHash: map[string]*models.RefreshToken{}}
}

func copyToken(t *models.RefreshToken) *models.RefreshToken {
	c := *t
	if t.ReplacedBy != nil {
		s := *t.ReplacedBy
		c.ReplacedBy = &s
	}
	if t.RevokedAt != nil {
		r := *t.RevokedAt
		c.RevokedAt = &r
	}
	return &c
}

func (r *MemoryRepository) Create(_ context.Context, t *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byHash[t.TokenHash]; ok {
		return common.ErrAlreadyExists
	}
	r.byHash[t.TokenHash] = copyToken(t)
	return nil
}

func (r *MemoryRepository) FindByHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byHash[hash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyToken(t), nil
}

func (r *MemoryRepository) Consume(_ context.Context, hash, replacedBy string, now time.Time) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byHash[hash]
	if !ok || !t.Usable(now) {
		return nil, common.ErrorNotFound
	}
	t.State = models.TokenConsumed
	t.ReplacedBy = &replacedBy
	return copyToken(t), nil
}

func (r *MemoryRepository) Revoke(_ context.Context, hash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byHash[hash]
	if !ok || t.State != models.TokenActive {
		return false, nil
	}
	revoke(t, now)
	return true, nil
}

func (r *MemoryRepository) RevokeAllForUser(_ context.Context, userID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, t := range r.byHash {
		if t.UserID == userID && t.State == models.TokenActive {
			revoke(t, now)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for h, t := range r.byHash {
		if !t.ExpiresAt.After(cutoff) {
			delete(r.byHash, h)
			n++
		}
	}
	return n, nil
}

func revoke(t *models.RefreshToken, now time.Time) {
	at := now
	t.State = models.TokenRevoked
	t.RevokedAt = &at
}
