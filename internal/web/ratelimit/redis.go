package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow counts requests in a sorted set scored by arrival time
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start)
	local current = redis.call('ZCARD', key)
	if current < limit then
		redis.call('ZADD', key, now, now .. '-' .. current)
		redis.call('EXPIRE', key, ttl)
		return {1, current + 1}
	end
	return {0, current}
`)

// RedisLimiter is a sliding window limiter shared by every server instance
// that points at the same Redis
type RedisLimiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter creates a Redis backed limiter
func NewRedisLimiter(client redis.UniversalClient, limit int, window time.Duration, prefix string) (*RedisLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be greater than 0")
	}
	if window <= 0 {
		return nil, errors.New("window must be greater than 0")
	}
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: prefix}, nil
}

// Allow records the request and reports whether it fits the window
func (r *RedisLimiter) Allow(ctx context.Context, key string) (*Info, error) {
	now := time.Now()
	ttl := int(r.window.Seconds())
	if ttl < 1 {
		ttl = 1
	}

	result, err := slidingWindow.Run(ctx, r.client, []string{r.prefix + key},
		now.UnixNano(),
		now.Add(-r.window).UnixNano(),
		r.limit,
		ttl,
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}
	if len(result) != 2 {
		return nil, errors.New("unexpected redis script result")
	}

	remaining := r.limit - int(result[1])
	if remaining < 0 {
		remaining = 0
	}
	return &Info{
		Limit:     r.limit,
		Remaining: remaining,
		ResetAt:   now.Add(r.window),
		Allowed:   result[0] == 1,
	}, nil
}

// Reset forgets the requests recorded for key
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
