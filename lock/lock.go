// Package lock serializes operations on a key.
//
// The custody engine takes the lock on the ledger state address around every
// state transition. Local is enough for a single process; redislock shares
// the lock across processes.
package lock

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrEmptyKey is returned for a blank lock key.
var ErrEmptyKey = errors.New("lock: key cannot be empty")

// Locker runs fn while holding the lock on key. The error from fn is
// returned unchanged.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Local is an in-process keyed mutex. Waiting honors context cancellation.
// Entries are reference counted and dropped when unused.
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewLocal returns an empty Local locker.
func NewLocal() *Local {
	return &Local{locks: make(map[string]*entry)}
}

// Compile-time interface check.
var _ Locker = (*Local)(nil)

// WithLock implements Locker.
func (l *Local) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	e := l.acquire(key)
	defer l.release(key, e)

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.ch }()

	return fn(ctx)
}

func (l *Local) acquire(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Keys returns the number of keys currently held or awaited.
func (l *Local) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// Nop runs fn without locking. Use it only when the store itself serializes
// transactions on the state account.
type Nop struct{}

// WithLock implements Locker.
func (Nop) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
