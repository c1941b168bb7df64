// Package limiter provides a provider quota shared by every tlproxy instance
// that points at the same Redis.
package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window request quota kept in Redis. Each window
// has its own counter key, which expires with the window.
type RedisLimiter struct {
	client    *redis.Client
	limit     int64
	window    time.Duration
	keyPrefix string
	scope     string
	now       func() time.Time
}

// RedisConfig holds configuration for the Redis limiter.
type RedisConfig struct {
	URL       string        // Redis connection URL (e.g., "redis://localhost:6379")
	Limit     int           // Requests allowed per window
	Window    time.Duration // Window length (default: 1 minute)
	KeyPrefix string        // Prefix for all keys (default: "tlproxy:quota:")
}

// NewRedisLimiter connects to Redis and creates a limiter.
func NewRedisLimiter(cfg RedisConfig) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, &tlproxy.ConfigError{Field: "redis_url", Message: err.Error()}
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewRedisLimiterFromClient(client, cfg.Limit, cfg.Window, cfg.KeyPrefix), nil
}

// NewRedisLimiterFromClient creates a RedisLimiter from an existing client.
func NewRedisLimiterFromClient(client *redis.Client, limit int, window time.Duration, keyPrefix string) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "tlproxy:quota:"
	}
	if window <= 0 {
		window = time.Minute
	}
	if limit <= 0 {
		limit = 1
	}

	return &RedisLimiter{
		client:    client,
		limit:     int64(limit),
		window:    window,
		keyPrefix: keyPrefix,
		scope:     "all",
		now:       time.Now,
	}
}

// Scope returns a limiter sharing the connection but counting under its own
// key, typically one per provider.
func (l *RedisLimiter) Scope(name string) *RedisLimiter {
	scoped := *l
	scoped.scope = name
	return &scoped
}

// Allow takes one request from the current window. When the window is
// exhausted it reports how long until the next one starts.
func (l *RedisLimiter) Allow(ctx context.Context) (bool, time.Duration, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	key := fmt.Sprintf("%s%s:%d", l.keyPrefix, l.scope, windowStart.Unix())

	// The counter and its expiry are set in one transaction so a key never
	// outlives its window.
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return false, 0, l.quotaError(err)
	}
	n := incr.Val()

	if n > l.limit {
		return false, windowStart.Add(l.window).Sub(now), nil
	}
	return true, 0, nil
}

// Wait blocks until a request is allowed or ctx is done.
func (l *RedisLimiter) Wait(ctx context.Context) error {
	for {
		ok, retryIn, err := l.Allow(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryIn):
		}
	}
}

// Close closes the Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// Ping tests the Redis connection.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLimiter) quotaError(err error) error {
	return &tlproxy.ProviderError{
		Provider: l.scope,
		Message:  "quota check failed",
		Cause:    err,
	}
}

// Verify RedisLimiter implements tlproxy.Limiter
var _ tlproxy.Limiter = (*RedisLimiter)(nil)
