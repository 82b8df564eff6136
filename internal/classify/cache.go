package classify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brandpulse/brandpulse/pkg/models"
)

// Cache stores classifications across runs so unchanged posts are not
// re-billed. Keys include the prompt version: a prompt change invalidates
// every old entry.
type Cache interface {
	Get(ctx context.Context, key string) (models.Classification, bool, error)
	Set(ctx context.Context, key string, value models.Classification) error
}

// CacheKey builds the cache key for a post.
func CacheKey(postID string) string {
	return "classify:" + PromptVersion + ":" + postID
}

// RedisCache is the durable Cache implementation.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis at addr with the given entry TTL.
func NewRedisCache(addr string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Ping verifies the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.Classification, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Classification{}, false, nil
	}
	if err != nil {
		return models.Classification{}, false, err
	}
	var out models.Classification
	if err := json.Unmarshal(data, &out); err != nil {
		// A corrupt entry behaves like a miss; it will be overwritten.
		return models.Classification{}, false, nil
	}
	return out, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value models.Classification) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Close releases the connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }
