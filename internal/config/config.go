// Package config loads the onboard host configuration from an optional YAML
// file followed by ONBOARD_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the host configuration shared by every command.
type Config struct {
	LogLevel string  `yaml:"log_level" env:"ONBOARD_LOG_LEVEL"`
	Gateway  Gateway `yaml:"gateway" envPrefix:"ONBOARD_GATEWAY_"`
	Store    Store   `yaml:"store" envPrefix:"ONBOARD_STORE_"`
	HTTP     HTTP    `yaml:"http" envPrefix:"ONBOARD_HTTP_"`

	// UpdateMode asks the backend to update existing records on commit.
	UpdateMode bool `yaml:"update_mode" env:"ONBOARD_UPDATE_MODE"`
	// LockTTL bounds how long a distributed session lock is held.
	LockTTL time.Duration `yaml:"lock_ttl" env:"ONBOARD_LOCK_TTL"`
}

// Gateway configures the backend the side effects talk to. An empty URL runs
// without a backend: every effect settles as unreachable.
type Gateway struct {
	URL         string        `yaml:"url" env:"URL"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Concurrency int           `yaml:"concurrency" env:"CONCURRENCY"`
}

// Store selects and configures the session snapshot store.
type Store struct {
	Kind string `yaml:"kind" env:"KIND"`
	Dir  string `yaml:"dir" env:"DIR"`

	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB"`
	RedisPrefix   string        `yaml:"redis_prefix" env:"REDIS_PREFIX"`
	RedisTTL      time.Duration `yaml:"redis_ttl" env:"REDIS_TTL"`

	// EncryptionKey is a hex encoded AES-256 key. Snapshots are stored in
	// clear text when it is empty.
	EncryptionKey string `yaml:"encryption_key" env:"ENCRYPTION_KEY"`
}

// HTTP configures the host API.
type HTTP struct {
	Addr           string `yaml:"addr" env:"ADDR"`
	Metrics        bool   `yaml:"metrics" env:"METRICS"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel: "info",
		Gateway: Gateway{
			Concurrency: 4,
		},
		Store: Store{
			Kind:        StoreMemory,
			Dir:         ".onboard/sessions",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "onboard:",
		},
		HTTP: HTTP{
			Addr:           ":8080",
			Metrics:        true,
			MaxUploadBytes: 10 << 20,
		},
		LockTTL: 30 * time.Second,
	}
}

// Load reads path (skipped when empty) over the defaults and then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Kind {
	case StoreMemory, StoreRedis:
	case StoreFile:
		if c.Store.Dir == "" {
			errs = append(errs, errors.New("store.dir is required for the file store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store kind %q", c.Store.Kind))
	}
	if c.Gateway.Concurrency < 0 {
		errs = append(errs, errors.New("gateway.concurrency must not be negative"))
	}
	if c.Gateway.Timeout < 0 {
		errs = append(errs, errors.New("gateway.timeout must not be negative"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}
