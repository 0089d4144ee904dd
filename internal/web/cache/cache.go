// Package cache stores rendered delivery responses in memory or Redis
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is not in the cache
var ErrCacheMiss = errors.New("cache miss")

// Cache is implemented by every cache backend
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Config holds settings shared by the backends
type Config struct {
	// DefaultTTL applies when Set is called with a zero TTL
	DefaultTTL time.Duration
	// Prefix is prepended to every key
	Prefix string
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{
		DefaultTTL: time.Minute,
		Prefix:     "delivery:",
	}
}
