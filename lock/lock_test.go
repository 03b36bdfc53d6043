package lock_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/custody/lock"
)

func TestLocalSerializesSameKey(t *testing.T) {
	l := lock.NewLocal()
	ctx := context.Background()

	var active, maxActive int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.WithLock(ctx, "state", func(context.Context) error {
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxActive)
	}
	if l.Keys() != 0 {
		t.Errorf("expected no retained keys, got %d", l.Keys())
	}
}

func TestLocalDistinctKeysDoNotBlock(t *testing.T) {
	l := lock.NewLocal()
	ctx := context.Background()

	done := make(chan struct{})
	err := l.WithLock(ctx, "a", func(ctx context.Context) error {
		go func() {
			_ = l.WithLock(ctx, "b", func(context.Context) error { return nil })
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-time.After(time.Second):
			return errors.New("distinct key blocked")
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestLocalContextCancel(t *testing.T) {
	l := lock.NewLocal()
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = l.WithLock(context.Background(), "k", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.WithLock(ctx, "k", func(context.Context) error {
		t.Error("fn must not run")
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestLocalReturnsFnError(t *testing.T) {
	l := lock.NewLocal()
	sentinel := errors.New("boom")

	err := l.WithLock(context.Background(), "k", func(context.Context) error { return sentinel })
	if err != sentinel {
		t.Errorf("got %v, want sentinel unchanged", err)
	}

	if err := l.WithLock(context.Background(), " ", func(context.Context) error { return nil }); !errors.Is(err, lock.ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
}
