// Package cache holds the Redis-backed stores used by the HTTP layer.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"propertyalerts/internal/types"
)

// RateLimitKey namespaces a limiter key.
func RateLimitKey(scope string) string {
	return fmt.Sprintf("ratelimit:%s", scope)
}

// RedisRateLimitStore is a fixed-window counter. The first increment in a
// window sets the expiry; later increments only read it back.
type RedisRateLimitStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisRateLimitStore connects using a redis:// URL.
func NewRedisRateLimitStore(redisURL string) (*RedisRateLimitStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisRateLimitStoreWithClient(redis.NewClient(opts)), nil
}

func NewRedisRateLimitStoreWithClient(client redis.UniversalClient) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client, now: time.Now}
}

// IncrementAndCheck counts one hit against key and reports whether the
// caller is still within limit for the current window.
func (s *RedisRateLimitStore) IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (types.RateLimitResult, error) {
	key = RateLimitKey(key)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return types.RateLimitResult{}, types.NewAppError(types.ErrCodeUpstreamUnavailable, "rate limit store unavailable", err)
	}

	count := incr.Val()
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	reset := window
	if d := ttl.Val(); d > 0 {
		reset = d
	}

	return types.RateLimitResult{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   s.now().Add(reset),
	}, nil
}

// Name implements the health probe contract.
func (s *RedisRateLimitStore) Name() string { return "redis" }

// Check pings Redis.
func (s *RedisRateLimitStore) Check(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *RedisRateLimitStore) Close() error {
	return s.client.Close()
}
