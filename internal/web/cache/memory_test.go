package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(DefaultConfig())
	defer c.Close()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	value, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), value)

	require.NoError(t, c.Delete(ctx, "a"))
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(DefaultConfig())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("x"), 10*time.Millisecond))
	require.NoError(t, c.Set(ctx, "forever", []byte("y"), -1))

	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryCache_ClearKeepsOtherPrefixes(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(Config{Prefix: "a:"})
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	c.data.Store("b:k", entry{value: []byte("other")})

	require.NoError(t, c.Clear(ctx))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, ok := c.data.Load("b:k")
	assert.True(t, ok)
}

func TestMemoryCache_CanceledContext(t *testing.T) {
	c := NewMemoryCache(DefaultConfig())
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, c.Set(ctx, "a", nil, 0), context.Canceled)
}
