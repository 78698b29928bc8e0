package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/config"
	"credit-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix            = "credit-engine:lock:"
	defaultRetryInterval = 50 * time.Millisecond
)

// Only the holder of the token may extend or release the lock.
var (
	releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	refreshScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// RedisLocker is a lease lock shared by every instance pointed at the same Redis.
// The lease is refreshed while fn runs so long ingestion runs keep it.
type RedisLocker struct {
	client        *goredis.Client
	ttl           time.Duration
	retryInterval time.Duration
	waitTimeout   time.Duration
	logger        *slog.Logger
}

func Connect(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to reach redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func NewRedisLocker(client *goredis.Client, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: defaultRetryInterval,
		waitTimeout:   ttl,
		logger:        logger.With("component", "RedisLocker"),
	}
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	redisKey := keyPrefix + key
	token := uuid.NewString()
	if err := l.acquire(ctx, redisKey, token); err != nil {
		return err
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.keepAlive(redisKey, token, stop)
	}()

	defer func() {
		close(stop)
		<-done
		// release with a fresh context so a cancelled request still frees the key
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			l.logger.Warn("Failed to release lock", "key", key, "error", err)
		}
	}()

	return fn(ctx)
}

func (l *RedisLocker) acquire(ctx context.Context, redisKey, token string) error {
	deadline := time.Now().Add(l.waitTimeout)
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			l.logger.ErrorContext(ctx, "Lock backend unavailable", "key", redisKey, "error", err)
			return fmt.Errorf("%w: acquiring %s: %w", apperrors.ErrInternalServer, redisKey, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s is held by another holder", apperrors.ErrLockNotAcquired, redisKey)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", apperrors.ErrLockNotAcquired, redisKey, ctx.Err())
		case <-time.After(l.retryInterval):
		}
	}
}

func (l *RedisLocker) keepAlive(redisKey, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
			res, err := refreshScript.Run(ctx, l.client, []string{redisKey}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err != nil && !errors.Is(err, goredis.Nil) {
				l.logger.Warn("Failed to refresh lock", "key", redisKey, "error", err)
				continue
			}
			if res == 0 {
				l.logger.Warn("Lock lost before work finished", "key", redisKey)
				return
			}
		}
	}
}
