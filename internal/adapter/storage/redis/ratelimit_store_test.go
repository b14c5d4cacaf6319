package redis_test

import (
	"context"
	"testing"
	"time"

	"account-service/internal/adapter/storage/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitStore_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := redis.NewRateLimitStore(client)
	ctx := context.Background()

	t.Run("allows requests within limit", func(t *testing.T) {
		for i := int64(1); i <= 3; i++ {
			result, err := store.Allow(ctx, "1.2.3.4:transfer", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, result.Allowed, "request %d should be allowed", i)
			assert.Equal(t, int64(3), result.Limit)
			assert.Equal(t, 3-i, result.Remaining)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		// 4th request should be blocked (limit is 3 from above)
		result, err := store.Allow(ctx, "1.2.3.4:transfer", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, int64(0), result.Remaining)
	})

	t.Run("different keys are independent", func(t *testing.T) {
		result, err := store.Allow(ctx, "5.6.7.8:transfer", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, int64(4), result.Remaining)
	})

	t.Run("counter key expires with the window", func(t *testing.T) {
		_, err := store.Allow(ctx, "9.9.9.9:accounts", 1, time.Minute)
		require.NoError(t, err)

		result, err := store.Allow(ctx, "9.9.9.9:accounts", 1, time.Minute)
		require.NoError(t, err)
		assert.False(t, result.Allowed)

		// After the window passes the key is gone and counting restarts.
		mr.FastForward(2 * time.Minute)
		result, err = store.Allow(ctx, "9.9.9.9:accounts", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})
}

func TestRateLimitStore_ResetAtIsWindowBoundary(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := redis.NewRateLimitStore(client)

	result, err := store.Allow(context.Background(), "boundary", 10, time.Minute)
	require.NoError(t, err)
	assert.Greater(t, result.ResetAt, time.Now().Unix())
	assert.LessOrEqual(t, result.ResetAt, time.Now().Add(time.Minute+time.Second).Unix())
}
