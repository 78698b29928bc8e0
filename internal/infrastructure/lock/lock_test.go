package lock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"credit-engine/internal/config"
	"credit-engine/internal/pkg/apperrors"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLocker(client, 3*time.Second, logger)
	l.retryInterval = 5 * time.Millisecond
	l.waitTimeout = 60 * time.Millisecond
	return l, s
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	l, s := newTestRedisLocker(t)
	ctx := context.Background()

	err := l.WithLock(ctx, "customer:1", func(ctx context.Context) error {
		assert.True(t, s.Exists(keyPrefix+"customer:1"))
		ttl := s.TTL(keyPrefix + "customer:1")
		assert.Greater(t, ttl, time.Duration(0))
		return nil
	})

	require.NoError(t, err)
	assert.False(t, s.Exists(keyPrefix+"customer:1"))
}

func TestRedisLocker_PropagatesWorkError(t *testing.T) {
	l, s := newTestRedisLocker(t)
	boom := errors.New("boom")

	err := l.WithLock(context.Background(), "ingestion", func(context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.False(t, s.Exists(keyPrefix+"ingestion"))
}

func TestRedisLocker_ContendedKey(t *testing.T) {
	l, s := newTestRedisLocker(t)
	require.NoError(t, s.Set(keyPrefix+"customer:2", "someone-else"))

	called := false
	err := l.WithLock(context.Background(), "customer:2", func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, apperrors.ErrLockNotAcquired)
	assert.False(t, called)
	got, _ := s.Get(keyPrefix + "customer:2")
	assert.Equal(t, "someone-else", got, "a failed acquire must not touch the holder's key")
}

func TestRedisLocker_BackendDownIsNotContention(t *testing.T) {
	l, s := newTestRedisLocker(t)
	s.Close()

	called := false
	err := l.WithLock(context.Background(), "customer:4", func(context.Context) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInternalServer)
	assert.NotErrorIs(t, err, apperrors.ErrLockNotAcquired)
	assert.False(t, called)
}

func TestRedisLocker_DoesNotReleaseForeignToken(t *testing.T) {
	l, s := newTestRedisLocker(t)

	err := l.WithLock(context.Background(), "customer:3", func(context.Context) error {
		// simulate the lease expiring and another instance taking the key
		return s.Set(keyPrefix+"customer:3", "new-holder")
	})

	require.NoError(t, err)
	got, _ := s.Get(keyPrefix + "customer:3")
	assert.Equal(t, "new-holder", got)
}

func TestRedisLocker_WaitsForRelease(t *testing.T) {
	l, _ := newTestRedisLocker(t)
	l.waitTimeout = 2 * time.Second

	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), "customer:4", func(context.Context) error {
				n := inside.Add(1)
				if n > maxInside.Load() {
					maxInside.Store(n)
				}
				time.Sleep(10 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
}

func TestConnect(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := Connect(context.Background(), config.RedisConfig{Addr: s.Addr()})
	require.NoError(t, err)
	_ = client.Close()

	s.Close()
	_, err = Connect(context.Background(), config.RedisConfig{Addr: s.Addr()})
	assert.Error(t, err)
}

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	l := NewLocalLocker()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.WithLock(context.Background(), "customer:1", func(context.Context) error {
				n := inside.Add(1)
				if n > maxInside.Load() {
					maxInside.Store(n)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	assert.Empty(t, l.slots, "idle keys are forgotten")
}

func TestLocalLocker_IndependentKeys(t *testing.T) {
	l := NewLocalLocker()
	release := make(chan struct{})
	held := make(chan struct{})

	go func() {
		_ = l.WithLock(context.Background(), "customer:1", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := l.WithLock(context.Background(), "customer:2", func(context.Context) error { return nil })
	assert.NoError(t, err)
	close(release)
}

func TestLocalLocker_ContextCancelledWhileWaiting(t *testing.T) {
	l := NewLocalLocker()
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = l.WithLock(context.Background(), "ingestion", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.WithLock(ctx, "ingestion", func(context.Context) error { return nil })

	assert.ErrorIs(t, err, apperrors.ErrLockNotAcquired)
	close(release)
}
