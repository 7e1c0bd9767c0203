// Package redislock serializes group writers across processes with Redis.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"koerperwerte/internal/domain"
)

const (
	// keyPrefix is the Redis key prefix for group locks.
	keyPrefix = "koerperwerte:lock:group:"
	// DefaultTTL bounds how long a crashed holder can block a group.
	DefaultTTL = 5 * time.Second
	// retryInterval is the pause between acquisition attempts.
	retryInterval = 25 * time.Millisecond
	// releaseTimeout bounds the release round trip.
	releaseTimeout = 2 * time.Second
)

// releaseScript deletes the lock only if it is still held by the caller's token.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

var _ domain.GroupLocker = (*Locker)(nil)

// Locker implements domain.GroupLocker on a Redis key per group.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*Locker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Locker{client: client, ttl: ttl, logger: slog.Default()}
}

// Ping checks Redis connectivity.
func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (l *Locker) Close() error {
	return l.client.Close()
}

// Lock polls until the group key is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, group string) (func(), error) {
	key := lockKey(group)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return l.releaser(key, token), nil
		}

		timer := time.NewTimer(retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Locker) releaser(key, token string) func() {
	var once sync.Once
	return func() { once.Do(func() { l.release(key, token) }) }
}

func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		l.logger.Warn("failed to release group lock", "key", key, "error", err)
	}
}

func lockKey(group string) string {
	return keyPrefix + group
}
