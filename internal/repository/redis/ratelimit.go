package redis

import (
	"context"
	"fmt"
	"time"
)

const rateLimitPrefix = "interview:ratelimit:"

// RateLimiter is a fixed one-minute window limiter shared by all instances
type RateLimiter struct {
	client            *Client
	requestsPerMinute int
	burst             int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		client:            client,
		requestsPerMinute: requestsPerMinute,
		burst:             burst,
	}
}

func windowKey(key string, windowStart time.Time) string {
	return fmt.Sprintf("%s%s:%d", rateLimitPrefix, key, windowStart.Unix())
}

// Allow checks if a request should be allowed based on rate limits
// Returns (allowed, remaining, resetTime, error)
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	windowStart := time.Now().Truncate(time.Minute)
	windowEnd := windowStart.Add(time.Minute)
	fullKey := windowKey(key, windowStart)

	pipe := r.client.rdb.TxPipeline()
	incrCmd := pipe.Incr(ctx, fullKey)
	pipe.ExpireAt(ctx, fullKey, windowEnd.Add(time.Second))

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	count := incrCmd.Val()
	limit := int64(r.requestsPerMinute + r.burst)
	remaining := max(int(limit-count), 0)

	return count <= limit, remaining, windowEnd, nil
}

// Reset clears the current window for a key
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.rdb.Del(ctx, windowKey(key, time.Now().Truncate(time.Minute))).Err()
}
