package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is an in-memory token bucket limiter. Each key holds up to
// Capacity tokens, refilled at Capacity per Window.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	window   time.Duration
	now      func() time.Time
	ticker   *time.Ticker
	done     chan struct{}
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// TokenBucketConfig holds configuration for the token bucket limiter
type TokenBucketConfig struct {
	Capacity        int
	Window          time.Duration
	CleanupInterval time.Duration
}

// DefaultTokenBucketConfig allows 100 requests per minute
func DefaultTokenBucketConfig() TokenBucketConfig {
	return TokenBucketConfig{
		Capacity:        100,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewTokenBucket creates a token bucket limiter
func NewTokenBucket(config TokenBucketConfig) *TokenBucket {
	if config.Capacity <= 0 {
		config.Capacity = DefaultTokenBucketConfig().Capacity
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	tb := &TokenBucket{
		buckets:  make(map[string]*bucket),
		capacity: config.Capacity,
		window:   config.Window,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		tb.ticker = time.NewTicker(config.CleanupInterval)
		go tb.cleanupLoop()
	}
	return tb
}

// Allow takes a token for key if one is available
func (tb *TokenBucket) Allow(ctx context.Context, key string) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(tb.capacity), lastRefill: now}
		tb.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastRefill); elapsed > 0 {
		b.tokens += float64(tb.capacity) * elapsed.Seconds() / tb.window.Seconds()
		if b.tokens > float64(tb.capacity) {
			b.tokens = float64(tb.capacity)
		}
		b.lastRefill = now
	}

	info := &Info{Limit: tb.capacity}
	if b.tokens >= 1 {
		b.tokens--
		info.Allowed = true
	}
	info.Remaining = int(b.tokens)
	info.ResetAt = now.Add(tb.untilFull(b.tokens))
	return info, nil
}

// untilFull returns how long a bucket holding tokens takes to refill
func (tb *TokenBucket) untilFull(tokens float64) time.Duration {
	missing := float64(tb.capacity) - tokens
	if missing <= 0 {
		return 0
	}
	return time.Duration(missing / float64(tb.capacity) * float64(tb.window))
}

func (tb *TokenBucket) cleanupLoop() {
	for {
		select {
		case <-tb.ticker.C:
			tb.cleanup()
		case <-tb.done:
			return
		}
	}
}

// cleanup drops buckets idle long enough to have refilled completely
func (tb *TokenBucket) cleanup() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	for key, b := range tb.buckets {
		if now.Sub(b.lastRefill) > tb.window {
			delete(tb.buckets, key)
		}
	}
}

// Close stops the cleanup goroutine
func (tb *TokenBucket) Close() error {
	close(tb.done)
	if tb.ticker != nil {
		tb.ticker.Stop()
	}
	return nil
}
