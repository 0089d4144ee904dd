package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, DefaultConfig())
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestDialRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c, err := DialRedis(context.Background(), RedisOptions{Addr: mr.Addr()}, DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, c.Client())
	c.Close()

	_, err = DialRedis(context.Background(), RedisOptions{Addr: "127.0.0.1:1"}, DefaultConfig())
	assert.Error(t, err)
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "item", []byte(`{"a":1}`), 0))
	assert.True(t, mr.Exists("delivery:item"))
	assert.Equal(t, time.Minute, mr.TTL("delivery:item"))

	value, err := c.Get(ctx, "item")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), value)

	require.NoError(t, c.Delete(ctx, "item"))
	_, err = c.Get(ctx, "item")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "item", []byte("x"), 5*time.Second))
	mr.FastForward(6 * time.Second)

	_, err := c.Get(ctx, "item")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "pinned", []byte("y"), -1))
	assert.Equal(t, time.Duration(0), mr.TTL("delivery:pinned"))
}

func TestRedisCache_ClearOnlyOwnPrefix(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, c.Clear(ctx))

	assert.False(t, mr.Exists("delivery:a"))
	assert.False(t, mr.Exists("delivery:b"))
	assert.True(t, mr.Exists("other:key"))
}
