package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/custody"
	audithook "github.com/xraph/custody/audit_hook"
	"github.com/xraph/custody/config"
	kafkahook "github.com/xraph/custody/kafka_hook"
	"github.com/xraph/custody/lock/redislock"
	"github.com/xraph/custody/store"
	"github.com/xraph/custody/store/memory"
	"github.com/xraph/custody/store/mongo"
	"github.com/xraph/custody/store/postgres"
	"github.com/xraph/custody/store/sqlite"
)

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	ledger *custody.Ledger

	closers []func() error
}

func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	programID, err := cfg.ProgramAddress()
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	opts := []custody.Option{
		custody.WithLogger(logger),
		custody.WithProgramID(programID),
		custody.WithMinimumBalance(cfg.MinimumBalance),
		custody.WithZeroAmountPolicy(cfg.ZeroAmount()),
		custody.WithPlugin(audithook.New(auditLog(logger), audithook.WithLogger(logger))),
	}

	if cfg.Lock.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Lock.RedisAddr,
			Password: cfg.Lock.RedisPassword,
			DB:       cfg.Lock.RedisDB,
		})
		a.closers = append(a.closers, client.Close)

		locker, err := redislock.New(client, redislock.DefaultOptions(), logger)
		if err != nil {
			_ = a.close()
			_ = s.Close()
			return nil, err
		}
		opts = append(opts, custody.WithLocker(locker))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		topic := cfg.Kafka.Topic
		if topic == "" {
			topic = kafkahook.DefaultTopic
		}
		pubOpts := []kafkahook.Option{kafkahook.WithLogger(logger)}
		if cfg.Kafka.Rejections {
			pubOpts = append(pubOpts, kafkahook.WithRejections())
		}
		opts = append(opts, custody.WithPlugin(
			kafkahook.New(kafkahook.NewWriter(cfg.Kafka.Brokers, topic), pubOpts...),
		))
	}

	a.ledger = custody.New(s, opts...)
	if err := a.ledger.Start(ctx); err != nil {
		_ = a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() error {
	var errs []error
	if a.ledger != nil {
		errs = append(errs, a.ledger.Stop())
	}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		s = memory.New()
	case config.DriverSQLite:
		s, err = sqlite.Open(ctx, cfg.DSN)
	case config.DriverPostgres:
		s, err = postgres.Open(ctx, cfg.DSN)
	case config.DriverMongo:
		s, err = mongo.Open(ctx, cfg.DSN, cfg.Database)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	return s, nil
}

// auditLog records audit events to the operator log.
func auditLog(logger *slog.Logger) audithook.RecorderFunc {
	return func(ctx context.Context, ev *audithook.AuditEvent) error {
		logger.InfoContext(ctx, "audit",
			"action", ev.Action,
			"resource", ev.Resource,
			"resource_id", ev.ResourceID,
			"actor", ev.Actor,
			"outcome", ev.Outcome,
			"severity", ev.Severity,
			"reason", ev.Reason,
		)
		return nil
	}
}
