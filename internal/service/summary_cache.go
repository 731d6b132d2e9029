package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vitalbite/wearable-sync/pkg/database"
)

// RedisSummaryCache caches computed summary views in Redis. Invalidation is a
// per-user version counter baked into every key, so a bump after a webhook
// write orphans all of that user's cached views at once and TTLs reap them.
type RedisSummaryCache struct {
	redis *database.Redis
	ttl   time.Duration
}

// NewRedisSummaryCache creates a new summary cache with the given entry TTL
func NewRedisSummaryCache(redis *database.Redis, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{redis: redis, ttl: ttl}
}

// Get loads a cached view into dest, reporting whether it was present
func (c *RedisSummaryCache) Get(ctx context.Context, userID, view string, dest any) (bool, error) {
	key, err := c.viewKey(ctx, userID, view)
	if err != nil {
		return false, err
	}

	payload, err := c.redis.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read summary cache: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("failed to decode cached summary: %w", err)
	}
	return true, nil
}

// Set stores a computed view under the user's current cache version
func (c *RedisSummaryCache) Set(ctx context.Context, userID, view string, value any) error {
	key, err := c.viewKey(ctx, userID, view)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	if err := c.redis.Client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write summary cache: %w", err)
	}
	return nil
}

// Invalidate bumps the user's cache version, orphaning every cached view
func (c *RedisSummaryCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.redis.Client.Incr(ctx, c.versionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to bump summary cache version: %w", err)
	}
	return nil
}

func (c *RedisSummaryCache) versionKey(userID string) string {
	return fmt.Sprintf("summary:version:%s", userID)
}

func (c *RedisSummaryCache) viewKey(ctx context.Context, userID, view string) (string, error) {
	version, err := c.redis.Client.Get(ctx, c.versionKey(userID)).Int64()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return "", fmt.Errorf("failed to read summary cache version: %w", err)
	}
	return fmt.Sprintf("summary:%s:%d:%s", userID, version, view), nil
}
