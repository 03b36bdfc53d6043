package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xraph/custody"
	"github.com/xraph/custody/address"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "custody.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Errorf("driver = %q", cfg.Store.Driver)
	}
	if cfg.ZeroAmount() != custody.RejectZeroAmount {
		t.Errorf("zero amount policy = %v", cfg.ZeroAmount())
	}
	program, err := cfg.ProgramAddress()
	if err != nil || program != address.DefaultProgramID {
		t.Errorf("program = %v, %v", program, err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, `
program_id: Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS
minimum_balance: 890880
zero_amount_policy: record
store:
  driver: sqlite
  dsn: file:custody.db
lock:
  redis_addr: localhost:6379
log:
  level: debug
kafka:
  brokers: ["localhost:9092"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Store.DSN != "file:custody.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.MinimumBalance != 890880 {
		t.Errorf("minimum balance = %d", cfg.MinimumBalance)
	}
	if cfg.ZeroAmount() != custody.RecordZeroAmount {
		t.Errorf("zero amount policy = %v", cfg.ZeroAmount())
	}
	if cfg.Lock.RedisAddr != "localhost:6379" || cfg.Log.Level != "debug" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CUSTODY_STORE_DRIVER", "postgres")
	t.Setenv("CUSTODY_STORE_DSN", "postgres://localhost/custody")
	t.Setenv("CUSTODY_MINIMUM_BALANCE", "10")
	t.Setenv("CUSTODY_KAFKA_BROKERS", "a:9092, b:9092")

	path := writeFile(t, "store:\n  driver: sqlite\n  dsn: file:x.db\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Driver != DriverPostgres || cfg.Store.DSN != "postgres://localhost/custody" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.MinimumBalance != 10 {
		t.Errorf("minimum balance = %d", cfg.MinimumBalance)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestEnvInvalidNumber(t *testing.T) {
	t.Setenv("CUSTODY_MINIMUM_BALANCE", "lots")
	if _, err := Load(""); err == nil {
		t.Error("expected error")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"driver", func(c *Config) { c.Store.Driver = "oracle" }, "Driver"},
		{"dsn required", func(c *Config) { c.Store.Driver = DriverSQLite }, "DSN"},
		{"mongo database", func(c *Config) { c.Store.Driver, c.Store.DSN = DriverMongo, "mongodb://localhost" }, "Database"},
		{"policy", func(c *Config) { c.ZeroAmountPolicy = "ignore" }, "ZeroAmountPolicy"},
		{"program id", func(c *Config) { c.ProgramID = "not-base58!" }, "ProgramID"},
		{"redis addr", func(c *Config) { c.Lock.RedisAddr = "localhost" }, "RedisAddr"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "Level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}
}
