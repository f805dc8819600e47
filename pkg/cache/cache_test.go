package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCacheBasicOps(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(LocalConfig{
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	})
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k1", "v1", 0))

	value, ok := c.Get(ctx, "k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", value)

	assert.True(t, c.Exists(ctx, "k1"))
	assert.False(t, c.Exists(ctx, "missing"))

	require.NoError(t, c.Delete(ctx, "k1"))
	_, ok = c.Get(ctx, "k1")
	assert.False(t, ok)
}

func TestLocalCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(LocalConfig{
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	})
	defer c.Close()

	require.NoError(t, c.Set(ctx, "short", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)
}

func TestLocalCacheExpireRenews(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(LocalConfig{
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	})
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", "v", 30*time.Millisecond))
	require.NoError(t, c.Expire(ctx, "k", time.Minute))
	time.Sleep(60 * time.Millisecond)

	assert.True(t, c.Exists(ctx, "k"))
}

func TestRedisCacheBasicOps(t *testing.T) {
	mr := miniredis.RunT(t)

	ctx := context.Background()
	c, err := NewRedisCache(RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k1", "v1", time.Minute))

	value, ok := c.Get(ctx, "k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", value)

	require.NoError(t, c.Expire(ctx, "k1", time.Hour))
	mr.FastForward(30 * time.Minute)
	assert.True(t, c.Exists(ctx, "k1"))

	mr.FastForward(31 * time.Minute)
	assert.False(t, c.Exists(ctx, "k1"))

	require.NoError(t, c.Delete(ctx, "k1"))
	_, ok = c.Get(ctx, "k1")
	assert.False(t, ok)
}

func TestNewCacheUnknownType(t *testing.T) {
	_, err := NewCache(Config{Type: "memcached"})
	assert.Error(t, err)
}
