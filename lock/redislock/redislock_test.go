package redislock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/custody/lock"
	"github.com/xraph/custody/lock/redislock"
)

func setupLocker(t *testing.T) (*redislock.Locker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l, err := redislock.New(client, redislock.DefaultOptions(), nil)
	require.NoError(t, err)
	return l, mr
}

func TestWithLock(t *testing.T) {
	l, mr := setupLocker(t)

	executed := false
	err := l.WithLock(context.Background(), "state", func(context.Context) error {
		executed = true
		assert.True(t, mr.Exists(redislock.KeyPrefix+"state"), "lock key should exist while held")
		return nil
	})

	require.NoError(t, err)
	assert.True(t, executed)
	assert.False(t, mr.Exists(redislock.KeyPrefix+"state"), "lock key should be released")
}

func TestWithLockReturnsFnError(t *testing.T) {
	l, _ := setupLocker(t)

	err := l.WithLock(context.Background(), "state", func(context.Context) error {
		return assert.AnError
	})
	assert.Equal(t, assert.AnError, err)
}

func TestWithLockMutualExclusion(t *testing.T) {
	l, _ := setupLocker(t)

	var active, violations int32
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), "state", func(context.Context) error {
				if atomic.AddInt32(&active, 1) > 1 {
					atomic.AddInt32(&violations, 1)
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Zero(t, violations)
}

func TestEmptyKey(t *testing.T) {
	l, _ := setupLocker(t)

	err := l.WithLock(context.Background(), "", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, lock.ErrEmptyKey)
}

func TestNilClient(t *testing.T) {
	_, err := redislock.New(nil, redislock.DefaultOptions(), nil)
	assert.ErrorIs(t, err, redislock.ErrNilClient)
}
