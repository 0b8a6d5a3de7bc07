package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCacheFromClient(client, logrus.New())
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_GetSet(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	// Miss
	body, ok, err := c.Get(ctx, "balances:evm:1:0xabc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, body)

	// Hit
	require.NoError(t, c.Set(ctx, "balances:evm:1:0xabc", []byte(`{"0xtoken":"1"}`), time.Minute))
	body, ok, err = c.Get(ctx, "balances:evm:1:0xabc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"0xtoken":"1"}`, string(body))

	// Expiry
	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "balances:evm:1:0xabc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_ZeroTTLSkipsWrite(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	assert.False(t, mr.Exists("k"))
}

func TestRedisCache_Unavailable(t *testing.T) {
	c, mr := setupTestCache(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, _, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.Set(ctx, "k", []byte("v"), time.Minute))
}
