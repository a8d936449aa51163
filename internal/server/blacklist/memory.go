package blacklist

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Memory is a process-local blacklist backed by a TTL cache.
type Memory struct {
	// mu serialises Add so the keep-the-later-expiry check and the write
	// are one step. Contains reads the cache directly.
	mu    sync.Mutex
	cache *ttlcache.Cache[string, struct{}]
	now   func() time.Time
}

// NewMemory creates the blacklist and starts its expiry loop. Call Stop to
// release the goroutine.
func NewMemory() *Memory {
	c := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go c.Start()

	return &Memory{cache: c, now: time.Now}
}

func (m *Memory) Add(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ttl := expiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	if item := m.cache.Get(jti); item != nil && !item.ExpiresAt().Before(expiresAt) {
		return nil
	}
	m.cache.Set(jti, struct{}{}, ttl)
	return nil
}

func (m *Memory) Contains(_ context.Context, jti string) (bool, error) {
	return m.cache.Get(jti) != nil, nil
}

// Purge drops expired entries immediately.
func (m *Memory) Purge() {
	m.cache.DeleteExpired()
}

// Len returns the number of stored entries, expired ones included until the
// next purge.
func (m *Memory) Len() int {
	return m.cache.Len()
}

// Stop terminates the expiry loop.
func (m *Memory) Stop() {
	m.cache.Stop()
}
