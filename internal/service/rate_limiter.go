package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vitalbite/wearable-sync/pkg/database"
)

// RateLimiter implements a fixed-window counter in Redis, keyed per caller.
// UI-facing connect/disconnect endpoints use it; the webhook endpoint does
// not, since the sender controls its own retry cadence.
type RateLimiter struct {
	redis *database.Redis
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis}
}

// Allow counts one request against the window and reports whether it fits
// within the limit
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := r.redis.Client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count request: %w", err)
	}

	if count == 1 {
		if err := r.redis.Client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to start rate limit window: %w", err)
		}
	}

	return count <= int64(limit), nil
}
