// Package cache holds the read-through cache for catalog lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"travel-checkout/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache stores JSON-encoded values by key.
type Cache interface {
	// Get decodes the cached value into dest and reports whether the key
	// was present.
	Get(ctx context.Context, key string, dest any) (bool, error)

	Set(ctx context.Context, key string, value any) error

	// Delete removes the keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// ItemKey returns the cache key of a catalog item.
func ItemKey(itemType model.ItemType, id int64) string {
	return fmt.Sprintf("catalog:%s:%d", itemType, id)
}

// redisCache implements Cache on top of Redis.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCache creates a Redis backed cache whose entries live for ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) Cache {
	return &redisCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		// A value we cannot decode is treated as a miss and dropped.
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		c.client.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	c.logger.Debug().Strs("keys", keys).Msg("cache keys invalidated")
	return nil
}

// nopCache never stores anything.
type nopCache struct{}

// NewNopCache returns a Cache that always misses. It is used when Redis is
// disabled.
func NewNopCache() Cache {
	return nopCache{}
}

func (nopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (nopCache) Set(context.Context, string, any) error         { return nil }
func (nopCache) Delete(context.Context, ...string) error        { return nil }
