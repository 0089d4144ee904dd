package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache is an in-process cache with per entry expiry
type MemoryCache struct {
	data   sync.Map
	config Config
	cancel context.CancelFunc
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryCache creates a memory cache and starts its expiry sweeper
func NewMemoryCache(config Config) *MemoryCache {
	ctx, cancel := context.WithCancel(context.Background())
	m := &MemoryCache{config: config, cancel: cancel}
	go m.sweep(ctx, time.Minute)
	return m
}

// Get retrieves a value
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullKey := m.config.Prefix + key
	v, ok := m.data.Load(fullKey)
	if !ok {
		return nil, ErrCacheMiss
	}
	e := v.(entry)
	if e.expired(time.Now()) {
		m.data.Delete(fullKey)
		return nil, ErrCacheMiss
	}
	return e.value, nil
}

// Set stores a value. A zero ttl uses the default, a negative ttl never expires.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.data.Store(m.config.Prefix+key, e)
	return nil
}

// Delete removes a value
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.data.Delete(m.config.Prefix + key)
	return nil
}

// Clear removes every value under the cache prefix
func (m *MemoryCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.data.Range(func(k, _ interface{}) bool {
		if strings.HasPrefix(k.(string), m.config.Prefix) {
			m.data.Delete(k)
		}
		return true
	})
	return nil
}

// Close stops the expiry sweeper
func (m *MemoryCache) Close() error {
	m.cancel()
	return nil
}

func (m *MemoryCache) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.data.Range(func(k, v interface{}) bool {
				if v.(entry).expired(now) {
					m.data.Delete(k)
				}
				return true
			})
		}
	}
}
