package extension

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/custody"
	"github.com/xraph/custody/address"
	"github.com/xraph/custody/store/memory"
	"github.com/xraph/custody/store/sqlite"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{MinimumBalance: 7})
	if cfg.ZeroAmountPolicy != "reject" || cfg.PluginTimeout != 5*time.Second {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.MinimumBalance != 7 {
		t.Errorf("minimum balance overwritten: %d", cfg.MinimumBalance)
	}
}

func TestMergeConfigurations(t *testing.T) {
	file := Config{ZeroAmountPolicy: "record"}
	prog := Config{ZeroAmountPolicy: "reject", MinimumBalance: 9, DisableMigrate: true}

	cfg := mergeConfigurations(file, prog)
	if cfg.ZeroAmountPolicy != "record" {
		t.Errorf("file value must win, got %q", cfg.ZeroAmountPolicy)
	}
	if cfg.MinimumBalance != 9 || !cfg.DisableMigrate {
		t.Errorf("programmatic values must fill gaps: %+v", cfg)
	}
}

func TestBuild(t *testing.T) {
	other := address.Address{1, 2, 3}
	e := New(
		WithStore(memory.New()),
		WithProgramID(other.String()),
		WithZeroAmountPolicy("record"),
	)
	e.config = mergeWithDefaults(e.config)

	if err := e.build(); err != nil {
		t.Fatal(err)
	}
	if e.Engine().ProgramID() != other {
		t.Errorf("program id = %s", e.Engine().ProgramID())
	}
	if err := e.Health(context.Background()); err != nil {
		t.Errorf("health: %v", err)
	}
}

func TestBuildRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"program id", WithProgramID("0OIl")},
		{"policy", WithZeroAmountPolicy("ignore")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.opt)
			if err := e.build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEngineOptionsPassThrough(t *testing.T) {
	e := New(WithLedgerOption(custody.WithMinimumBalance(1)))
	opts, err := e.buildLedgerOpts()
	if err != nil {
		t.Fatal(err)
	}
	// zero-amount policy plus the pass-through option
	if len(opts) != 2 {
		t.Errorf("got %d options", len(opts))
	}
}

type countingStore struct {
	*memory.Store
	migrations atomic.Int32
}

func (s *countingStore) Migrate(ctx context.Context) error {
	s.migrations.Add(1)
	return s.Store.Migrate(ctx)
}

type initCounter struct{ calls atomic.Int32 }

func (p *initCounter) Name() string { return "init-counter" }

func (p *initCounter) OnInit(context.Context, any) error {
	p.calls.Add(1)
	return nil
}

func TestDisableMigrateStillStartsEngine(t *testing.T) {
	tests := []struct {
		name           string
		opts           []Option
		wantMigrations int32
	}{
		{"migrate", nil, 1},
		{"disable migrate", []Option{WithDisableMigrate()}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &countingStore{Store: memory.New()}
			hook := &initCounter{}
			e := New(append([]Option{WithStore(s), WithPlugin(hook)}, tt.opts...)...)
			e.config = mergeWithDefaults(e.config)
			if err := e.build(); err != nil {
				t.Fatal(err)
			}

			if err := e.Engine().Start(context.Background()); err != nil {
				t.Fatal(err)
			}
			if got := s.migrations.Load(); got != tt.wantMigrations {
				t.Errorf("migrations = %d, want %d", got, tt.wantMigrations)
			}
			if hook.calls.Load() != 1 {
				t.Errorf("OnInit calls = %d, want 1", hook.calls.Load())
			}
			if _, err := e.Engine().Addresses(); err != nil {
				t.Errorf("addresses: %v", err)
			}
		})
	}
}

func TestBuildOnGroveDB(t *testing.T) {
	ctx := context.Background()
	s, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "custody.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	e := New(WithGroveDB(s.DB()))
	e.config = mergeWithDefaults(e.config)
	if err := e.build(); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.Engine().Store().(*sqlite.Store); !ok {
		t.Fatalf("store = %T, want *sqlite.Store", e.Engine().Store())
	}
	if err := e.Engine().Start(ctx); err != nil {
		t.Fatal(err)
	}
}

type otherDriver struct{}

func (otherDriver) Name() string               { return "clickhouse" }
func (otherDriver) Close() error               { return nil }
func (otherDriver) Ping(context.Context) error { return nil }

func TestStoreForGroveRejectsUnknownDriver(t *testing.T) {
	db, err := grove.Open(otherDriver{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := storeForGrove(db); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
