package geo

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores geocoding results. Implementations may fail freely; callers
// treat every error as a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache keeps lookups in Redis so repeated quotes for the same address
// do not hit the public geocoder.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisCacheFromURL parses redisURL and checks the connection.
func NewRedisCacheFromURL(ctx context.Context, redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func cacheGet(ctx context.Context, c Cache, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, err := c.Get(ctx, key)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func cacheSet(ctx context.Context, c Cache, key, value string, ttl time.Duration) {
	if c == nil {
		return
	}
	_ = c.Set(ctx, key, value, ttl)
}
