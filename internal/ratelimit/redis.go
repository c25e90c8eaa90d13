package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// Redis is a fixed-window counter stored in Redis. The first request of a
// window creates the key and sets its expiry; the window ends when the key
// expires.
type Redis struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
}

// NewRedis returns a limiter backed by client.
func NewRedis(client redis.UniversalClient, limit int, window time.Duration) (*Redis, error) {
	if err := validate(limit, window); err != nil {
		return nil, err
	}
	return &Redis{client: client, limit: limit, window: window}, nil
}

// NewRedisFromURL parses a redis:// URL and returns a limiter using it.
func NewRedisFromURL(rawURL string, limit int, window time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedis(redis.NewClient(opts), limit, window)
}

// Allow implements Limiter.
func (l *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	if key == "" {
		return Decision{}, ErrEmptyKey
	}
	redisKey := keyPrefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", redisKey, err)
	}
	if count == 1 {
		if err = l.client.PExpire(ctx, redisKey, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", redisKey, err)
		}
	}

	ttl, err := l.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("pttl %s: %w", redisKey, err)
	}
	if ttl < 0 {
		// key lost its expiry (e.g. crash between INCR and PEXPIRE)
		if err = l.client.PExpire(ctx, redisKey, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", redisKey, err)
		}
		ttl = l.window
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= int64(l.limit),
		Limit:      l.limit,
		Remaining:  remaining,
		ResetAfter: ttl,
	}, nil
}

// Close releases the underlying client.
func (l *Redis) Close() error {
	return l.client.Close()
}
