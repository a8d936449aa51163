package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore is the subset of *redis.Client used here.
type redisStore interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis shares the blacklist between server instances. Every key carries a
// TTL equal to the remaining lifetime of the token.
type Redis struct {
	client redisStore
	prefix string
	now    func() time.Time
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return newRedis(client, prefix)
}

func newRedis(client redisStore, prefix string) *Redis {
	if prefix == "" {
		prefix = "gophauth:bl:"
	}
	return &Redis{client: client, prefix: prefix, now: time.Now}
}

func (r *Redis) key(jti string) string {
	return r.prefix + jti
}

func (r *Redis) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.key(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}
