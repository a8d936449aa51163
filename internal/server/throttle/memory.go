package throttle

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory keeps counters in a process-local expiring cache.
type Memory struct {
	c   *gocache.Cache
	max int
	ttl time.Duration
}

func NewMemory(max int, lockout time.Duration) *Memory {
	return &Memory{
		c:   gocache.New(lockout, lockout),
		max: max,
		ttl: lockout,
	}
}

func (m *Memory) Blocked(_ context.Context, key string) (bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return false, nil
	}
	return v.(int) >= m.max, nil
}

func (m *Memory) Fail(_ context.Context, key string) error {
	// Add only succeeds for a fresh key, which fixes the window start.
	if err := m.c.Add(key, 1, m.ttl); err == nil {
		return nil
	}
	if _, err := m.c.IncrementInt(key, 1); err != nil {
		// expired between Add and Increment
		m.c.Set(key, 1, m.ttl)
	}
	return nil
}

func (m *Memory) Reset(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}
