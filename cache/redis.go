package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roset-dev/roset-go/logger"
)

// RedisCache backs the Cache interface with a shared Redis instance so
// multiple SDK processes (e.g. workers on one training host) share one
// metadata cache.
type RedisCache struct {
	redis *redis.Client
	log   *logger.Logger
}

// NewRedisCache creates a Redis-backed cache around an existing client
func NewRedisCache(redisClient *redis.Client, log *logger.Logger) *RedisCache {
	return &RedisCache{
		redis: redisClient,
		log:   log,
	}
}

// GetUnderlying returns the underlying redis.Client for advanced operations
func (c *RedisCache) GetUnderlying() *redis.Client {
	return c.redis
}

// Get retrieves a value by key. A missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.log.Debug("redis GET miss", "key", key)
		return nil, false, nil
	}
	if err != nil {
		c.log.Error("redis GET failed", "key", key, "error", err)
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	c.log.Debug("redis GET", "key", key)
	return val, true, nil
}

// Set stores a value with expiration
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Error("redis SET failed", "key", key, "error", err)
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	c.log.Debug("redis SET", "key", key, "ttl", ttl)
	return nil
}

// Delete removes a key
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		c.log.Error("redis DEL failed", "key", key, "error", err)
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying Redis connection
func (c *RedisCache) Close() error {
	return c.redis.Close()
}
