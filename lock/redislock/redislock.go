// Package redislock provides a lock.Locker backed by Redis using the
// Redlock algorithm (redsync).
package redislock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/xraph/custody/lock"
)

// KeyPrefix namespaces lock keys in Redis.
const KeyPrefix = "custody:lock:"

var (
	// ErrNilClient is returned when no Redis client is supplied.
	ErrNilClient = errors.New("redislock: redis client is nil")

	// ErrLockNotHeld is returned when the lock expired before release.
	ErrLockNotHeld = errors.New("redislock: lock was not held or already expired")
)

// Options tune lock acquisition.
type Options struct {
	Expiry      time.Duration `json:"expiry" mapstructure:"expiry" yaml:"expiry"`
	Tries       int           `json:"tries" mapstructure:"tries" yaml:"tries"`
	RetryDelay  time.Duration `json:"retry_delay" mapstructure:"retry_delay" yaml:"retry_delay"`
	DriftFactor float64       `json:"drift_factor" mapstructure:"drift_factor" yaml:"drift_factor"`
}

// DefaultOptions returns the default acquisition settings.
func DefaultOptions() Options {
	return Options{
		Expiry:      10 * time.Second,
		Tries:       32,
		RetryDelay:  50 * time.Millisecond,
		DriftFactor: 0.01,
	}
}

// Locker implements lock.Locker over Redis.
type Locker struct {
	rs     *redsync.Redsync
	opts   Options
	logger *slog.Logger
}

// Compile-time interface check.
var _ lock.Locker = (*Locker)(nil)

// New creates a Locker on client.
func New(client redis.UniversalClient, opts Options, logger *slog.Logger) (*Locker, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if opts.Expiry <= 0 {
		opts.Expiry = def.Expiry
	}
	if opts.Tries < 1 {
		opts.Tries = def.Tries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = def.RetryDelay
	}
	if opts.DriftFactor <= 0 || opts.DriftFactor >= 1 {
		opts.DriftFactor = def.DriftFactor
	}

	return &Locker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}, nil
}

// WithLock implements lock.Locker.
func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if strings.TrimSpace(key) == "" {
		return lock.ErrEmptyKey
	}

	mutex := l.rs.NewMutex(
		KeyPrefix+key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
		redsync.WithDriftFactor(l.opts.DriftFactor),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("redislock: acquire %s: %w", key, err)
	}

	defer func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			if err == nil {
				err = ErrLockNotHeld
			}
			l.logger.Warn("failed to release lock", "key", key, "error", err)
		}
	}()

	return fn(ctx)
}
