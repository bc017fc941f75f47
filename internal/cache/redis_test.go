package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) *RedisCache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCacheFromClient(client, "test")
}

func TestRedisCacheSetGetDelete(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", string(got))

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisCacheSetIfAbsent(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	ok, err := c.SetIfAbsent(ctx, "lock", []byte("1"), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.SetIfAbsent(ctx, "lock", []byte("2"), time.Minute)
	require.NoError(t, err)
	require.False(t, ok, "second SetIfAbsent must not overwrite")

	got, err := c.Get(ctx, "lock")
	require.NoError(t, err)
	require.Equal(t, "1", string(got))
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheSetIfAbsentRespectsExpiry(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	ok, err := c.SetIfAbsent(ctx, "k", []byte("first"), 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(25 * time.Millisecond)

	ok, err = c.SetIfAbsent(ctx, "k", []byte("second"), time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "expired key should be replaceable")

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "second", string(got))
}
