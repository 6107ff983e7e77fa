package adapter_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/auth-gateway/internal/gateway/adapter"
	redisclient "github.com/aelexs/auth-gateway/internal/redis"
)

func newTestRedisLimiter(t *testing.T, limit, windowSeconds int) (*adapter.RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redisclient.NewClient(redisclient.Config{
		Addr:         mr.Addr(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})

	return adapter.NewRedisRateLimiter(client.RDB, limit, windowSeconds), mr
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	t.Run("allows exactly up to the limit", func(t *testing.T) {
		rl, _ := newTestRedisLimiter(t, 3, 60)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			allowed, err := rl.Allow(ctx, "ratelimit:global")
			require.NoError(t, err)
			assert.True(t, allowed, "request %d should be allowed", i+1)
		}

		allowed, err := rl.Allow(ctx, "ratelimit:global")
		require.NoError(t, err)
		assert.False(t, allowed, "request beyond limit should be rejected")
	})

	t.Run("sets TTL only on first increment", func(t *testing.T) {
		rl, mr := newTestRedisLimiter(t, 10, 60)
		ctx := context.Background()
		key := "ratelimit:ttl"

		_, err := rl.Allow(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 60*time.Second, mr.TTL(key))

		mr.FastForward(20 * time.Second)

		_, err = rl.Allow(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 40*time.Second, mr.TTL(key), "TTL should not reset on subsequent increments")
	})

	t.Run("counter resets after window expires", func(t *testing.T) {
		rl, mr := newTestRedisLimiter(t, 1, 60)
		ctx := context.Background()
		key := "ratelimit:window"

		_, err := rl.Allow(ctx, key)
		require.NoError(t, err)

		allowed, err := rl.Allow(ctx, key)
		require.NoError(t, err)
		assert.False(t, allowed)

		mr.FastForward(61 * time.Second)

		allowed, err = rl.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, allowed, "first request in new window should be allowed")
	})

	t.Run("different keys are independent", func(t *testing.T) {
		rl, _ := newTestRedisLimiter(t, 1, 60)
		ctx := context.Background()

		_, err := rl.Allow(ctx, "ratelimit:a")
		require.NoError(t, err)

		allowed, err := rl.Allow(ctx, "ratelimit:b")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("fails closed on redis error", func(t *testing.T) {
		rl, mr := newTestRedisLimiter(t, 1, 60)
		ctx := context.Background()

		mr.Close()

		allowed, err := rl.Allow(ctx, "ratelimit:down")
		require.Error(t, err)
		assert.False(t, allowed, "redis failure must deny, never allow")
	})
}
