package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrExpire bumps the counter and re-arms its TTL in one script so the two
// operations cannot interleave with another processor instance.
var incrExpire = redis.NewScript(`
local c = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[1])
return c
`)

// RedisCounter is the production Counter backed by Redis.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter returns a Counter using the given Redis client.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// IncrementAndExpire increments key and re-arms its expiry to ttl atomically,
// returning the post-increment value.
func (c *RedisCounter) IncrementAndExpire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	secs := int64(ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	return incrExpire.Run(ctx, c.client, []string{key}, secs).Int64()
}

// Exists reports whether key is present.
func (c *RedisCounter) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

// SetWithExpiry stores value under key with the given ttl.
func (c *RedisCounter) SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value string) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Ping verifies cache connectivity; used by the health endpoint.
func (c *RedisCounter) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
