package throttle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis is a fixed-window counter (INCR + EXPIRE on the first hit) shared by
// all server instances.
type Redis struct {
	client redisStore
	prefix string
	max    int64
	ttl    time.Duration
}

func NewRedis(client *redis.Client, prefix string, max int, lockout time.Duration) *Redis {
	return newRedis(client, prefix, max, lockout)
}

func newRedis(client redisStore, prefix string, max int, lockout time.Duration) *Redis {
	if prefix == "" {
		prefix = "gophauth:login:"
	}
	return &Redis{client: client, prefix: prefix, max: int64(max), ttl: lockout}
}

func (r *Redis) key(k string) string {
	return r.prefix + strings.ReplaceAll(strings.ToLower(k), " ", "_")
}

func (r *Redis) Blocked(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Get(ctx, r.key(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get: %w", err)
	}
	return n >= r.max, nil
}

func (r *Redis) Fail(ctx context.Context, key string) error {
	k := r.key(key)
	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}
	if n == 1 {
		if err := r.client.Expire(ctx, k, r.ttl).Err(); err != nil {
			return fmt.Errorf("redis expire: %w", err)
		}
	}
	return nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
