package ratelimit

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passgen/passgen/internal/config"
)

func redisTestClient(t *testing.T) *redis.Client {
	t.Helper()
	if os.Getenv("TEST_REDIS") != "true" {
		t.Skip("Skipping Redis integration test. Set TEST_REDIS=true to run.")
	}

	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := 6379
	if p, err := strconv.Atoi(os.Getenv("REDIS_PORT")); err == nil {
		port = p
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, &config.RedisConfig{Host: host, Port: port, PoolSize: 5})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewRedisLimiter_InvalidConfig(t *testing.T) {
	l, err := NewRedisLimiter(nil, Config{Requests: -1, Window: time.Second})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Nil(t, l)
}

func TestRedisLimiter_Key(t *testing.T) {
	l, err := NewRedisLimiter(nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "passgen:ratelimit:ip:10.0.0.1", l.key("ip:10.0.0.1"))

	l, err = NewRedisLimiter(nil, DefaultConfig(), WithKeyPrefix("test:"))
	require.NoError(t, err)
	assert.Equal(t, "test:api:k", l.key("api:k"))
}

func TestRedisLimiter_Close_NotOwned(t *testing.T) {
	l, err := NewRedisLimiter(nil, DefaultConfig())
	require.NoError(t, err)
	assert.NoError(t, l.Close())
}

func TestRedisLimiter_Integration(t *testing.T) {
	client := redisTestClient(t)
	ctx := context.Background()
	prefix := "passgen:test:" + uuid.NewString() + ":"

	limiter, err := NewRedisLimiter(client, Config{Requests: 3, Window: time.Minute}, WithKeyPrefix(prefix))
	require.NoError(t, err)
	require.NoError(t, limiter.Ping(ctx))

	t.Run("allows up to limit then blocks", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			result, err := limiter.Allow(ctx, "id")
			require.NoError(t, err)
			assert.True(t, result.Allowed)
			assert.Equal(t, 3-i-1, result.Remaining)
		}

		result, err := limiter.Allow(ctx, "id")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Positive(t, result.RetryAfter)
		assert.LessOrEqual(t, result.RetryAfter, time.Minute)
	})

	t.Run("reset clears state", func(t *testing.T) {
		require.NoError(t, limiter.Reset(ctx, "id"))

		result, err := limiter.Allow(ctx, "id")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 2, result.Remaining)
	})

	t.Run("window slides", func(t *testing.T) {
		clock := newFakeClock()
		l, err := NewRedisLimiter(client, Config{Requests: 1, Window: 10 * time.Second}, WithKeyPrefix(prefix))
		require.NoError(t, err)
		l.now = clock.Now

		result, err := l.Allow(ctx, "slide")
		require.NoError(t, err)
		assert.True(t, result.Allowed)

		result, err = l.Allow(ctx, "slide")
		require.NoError(t, err)
		assert.False(t, result.Allowed)

		clock.Advance(11 * time.Second)
		result, err = l.Allow(ctx, "slide")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Cleanup(func() {
		_ = client.Del(context.Background(), prefix+"id", prefix+"slide").Err()
	})
}
