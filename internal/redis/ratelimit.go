package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a sliding-window rate limiter keyed by caller identity.
// Lifecycle is explicit: construct one, inject it where needed.
type RateLimiter struct {
	client *redis.Client
}

// NewRateLimiter creates a new RateLimiter.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// RateLimitResult contains a rate limit check result.
type RateLimitResult struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call("ZREMRANGEBYSCORE", key, "-inf", window_start)

	local count = redis.call("ZCARD", key)

	if count < limit then
		redis.call("ZADD", key, now, now .. "-" .. math.random())
		redis.call("PEXPIRE", key, window_ms)
		return {1, limit - count - 1}
	else
		return {0, 0}
	end
`)

// Check records one request for the identity and reports whether it fits
// within limit requests per window.
func (l *RateLimiter) Check(ctx context.Context, identity string, limit int64, window time.Duration) (*RateLimitResult, error) {
	key := "ratelimit:" + identity
	now := time.Now()
	windowStart := now.Add(-window).UnixMilli()

	result, err := slidingWindowScript.Run(ctx, l.client, []string{key},
		now.UnixMilli(),
		windowStart,
		limit,
		window.Milliseconds(),
	).Slice()
	if err != nil {
		return nil, err
	}

	allowed := result[0].(int64) == 1
	remaining := result[1].(int64)

	return &RateLimitResult{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   now.Add(window),
	}, nil
}
