package main

import (
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a zap-backed slog logger. The returned sync func flushes
// buffered entries.
func newLogger(level string, development bool) (*slog.Logger, func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}

	zl, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(zapslog.NewHandler(zl.Core(), zapslog.WithName("custodyctl")))
	return logger, func() { _ = zl.Sync() }, nil
}
