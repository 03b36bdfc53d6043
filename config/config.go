// Package config loads operator configuration for custodyctl from a YAML
// file, an optional .env file, and CUSTODY_* environment variables, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xraph/custody"
	"github.com/xraph/custody/address"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config is the full operator configuration.
type Config struct {
	ProgramID        string `yaml:"program_id" validate:"omitempty,program_address"`
	MinimumBalance   uint64 `yaml:"minimum_balance"`
	ZeroAmountPolicy string `yaml:"zero_amount_policy" validate:"oneof=reject record"`

	Store StoreConfig `yaml:"store"`
	Lock  LockConfig  `yaml:"lock"`
	Log   LogConfig   `yaml:"log"`
	Kafka KafkaConfig `yaml:"kafka"`
}

// StoreConfig selects and addresses the record store.
type StoreConfig struct {
	Driver   string `yaml:"driver" validate:"oneof=memory sqlite postgres mongo"`
	DSN      string `yaml:"dsn" validate:"required_unless=Driver memory"`
	Database string `yaml:"database" validate:"required_if=Driver mongo"`
}

// LockConfig configures the transition lock. An empty RedisAddr keeps the
// in-process lock.
type LockConfig struct {
	RedisAddr     string `yaml:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"gte=0"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// KafkaConfig enables event publishing when Brokers is set.
type KafkaConfig struct {
	Brokers    []string `yaml:"brokers" validate:"dive,hostname_port"`
	Topic      string   `yaml:"topic"`
	Rejections bool     `yaml:"rejections"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ZeroAmountPolicy: "reject",
		Store: StoreConfig{
			Driver: DriverMemory,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path (if non-empty), applies environment overrides, and
// validates the result. A missing .env file is ignored.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from CUSTODY_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"CUSTODY_PROGRAM_ID":         &c.ProgramID,
		"CUSTODY_ZERO_AMOUNT_POLICY": &c.ZeroAmountPolicy,
		"CUSTODY_STORE_DRIVER":       &c.Store.Driver,
		"CUSTODY_STORE_DSN":          &c.Store.DSN,
		"CUSTODY_STORE_DATABASE":     &c.Store.Database,
		"CUSTODY_REDIS_ADDR":         &c.Lock.RedisAddr,
		"CUSTODY_REDIS_PASSWORD":     &c.Lock.RedisPassword,
		"CUSTODY_LOG_LEVEL":          &c.Log.Level,
		"CUSTODY_KAFKA_TOPIC":        &c.Kafka.Topic,
	}
	for key, field := range str {
		if v, ok := lookup(key); ok {
			*field = v
		}
	}

	if v, ok := lookup("CUSTODY_MINIMUM_BALANCE"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: CUSTODY_MINIMUM_BALANCE: %w", err)
		}
		c.MinimumBalance = n
	}
	if v, ok := lookup("CUSTODY_REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: CUSTODY_REDIS_DB: %w", err)
		}
		c.Lock.RedisDB = n
	}
	if v, ok := lookup("CUSTODY_KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

func getValidator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		errValidate = v.RegisterValidation("program_address", func(fl validator.FieldLevel) bool {
			_, err := address.Parse(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate, errValidate
}

// Validate checks field constraints.
func (c Config) Validate() error {
	v, err := getValidator()
	if err != nil {
		return fmt.Errorf("config: validator: %w", err)
	}
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ProgramAddress returns the configured program ID, or the default one.
func (c Config) ProgramAddress() (address.Address, error) {
	if c.ProgramID == "" {
		return address.DefaultProgramID, nil
	}
	return address.Parse(c.ProgramID)
}

// ZeroAmount returns the configured zero-amount policy.
func (c Config) ZeroAmount() custody.ZeroAmountPolicy {
	if c.ZeroAmountPolicy == "record" {
		return custody.RecordZeroAmount
	}
	return custody.RejectZeroAmount
}
