package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/passgen/passgen/internal/config"
)

const defaultKeyPrefix = "passgen:ratelimit:"

// slidingWindow trims a sorted set of request times (ms scores) to the window,
// then adds the current request if the set is below the limit.
// Returns {allowed, count, reset_ms}.
var slidingWindow = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

local reset = 0
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if #oldest > 0 then
  reset = tonumber(oldest[2]) + window - now
end

if count >= limit then
  return {0, count, reset}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
if count == 0 then
  reset = window
end
return {1, count + 1, reset}
`)

// RedisLimiter is a sliding window limiter shared by every instance that
// points at the same Redis.
type RedisLimiter struct {
	client    redis.UniversalClient
	config    Config
	keyPrefix string
	now       func() time.Time
	owned     bool
}

// RedisOption configures a RedisLimiter.
type RedisOption func(*RedisLimiter)

// WithKeyPrefix overrides the key namespace.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisLimiter) { r.keyPrefix = prefix }
}

// WithOwnedClient makes Close also close the client.
func WithOwnedClient() RedisOption {
	return func(r *RedisLimiter) { r.owned = true }
}

// NewRedisLimiter creates a limiter backed by client.
func NewRedisLimiter(client redis.UniversalClient, cfg Config, opts ...RedisOption) (*RedisLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &RedisLimiter{
		client:    client,
		config:    cfg,
		keyPrefix: defaultKeyPrefix,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Allow records a request for identifier if it fits in the window.
func (r *RedisLimiter) Allow(ctx context.Context, identifier string) (*Result, error) {
	now := r.now().UnixMilli()
	window := r.config.Window.Milliseconds()

	vals, err := slidingWindow.Run(ctx, r.client, []string{r.key(identifier)},
		now, window, r.config.Requests, fmt.Sprintf("%d-%s", now, uuid.NewString()),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("rate limit check failed: unexpected reply %v", vals)
	}

	resetAfter := time.Duration(max(vals[2], 0)) * time.Millisecond
	if vals[0] == 0 {
		return blocked(r.config.Requests, resetAfter), nil
	}
	return allowed(r.config.Requests, int(vals[1]), resetAfter), nil
}

// Reset clears the state for an identifier.
func (r *RedisLimiter) Reset(ctx context.Context, identifier string) error {
	if err := r.client.Del(ctx, r.key(identifier)).Err(); err != nil {
		return fmt.Errorf("rate limit reset failed: %w", err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (r *RedisLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client if the limiter owns it.
func (r *RedisLimiter) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}

func (r *RedisLimiter) key(identifier string) string {
	return r.keyPrefix + identifier
}

// Connect opens a Redis client from configuration and verifies connectivity.
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
