// Package config loads settings from an optional YAML file and the environment.
//
// Precedence, lowest first: Default, the YAML file, DATACACHE_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/krisalay/datacache/logging"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Defaults.
const (
	DefaultShards       = 4
	DefaultFetchTimeout = 10 * time.Second
	DefaultContentDir   = "content"
	DefaultAddr         = ":8080"
	MaxShards           = 256
)

// Config is the full configuration.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Content ContentConfig `yaml:"content"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
}

// CacheConfig tunes the store and its fetch engine.
type CacheConfig struct {
	Shards       int           `yaml:"shards" env:"DATACACHE_SHARDS"`
	Coalesce     bool          `yaml:"coalesce" env:"DATACACHE_COALESCE"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"DATACACHE_FETCH_TIMEOUT"`
}

// ContentConfig points at the flat-file content directory.
type ContentConfig struct {
	Dir string `yaml:"dir" env:"DATACACHE_CONTENT_DIR"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"DATACACHE_LOG_LEVEL"`
	Format string `yaml:"format" env:"DATACACHE_LOG_FORMAT"`
}

// ServerConfig configures the HTTP listener of the serve command.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"DATACACHE_ADDR"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Shards:       DefaultShards,
			FetchTimeout: DefaultFetchTimeout,
		},
		Content: ContentConfig{Dir: DefaultContentDir},
		Logging: LoggingConfig{Level: "info", Format: logging.FormatConsole},
		Server:  ServerConfig{Addr: DefaultAddr},
	}
}

// Load builds a Config from path (skipped when empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and required fields.
func (c Config) Validate() error {
	if c.Cache.Shards < 1 || c.Cache.Shards > MaxShards {
		return fmt.Errorf("%w: cache.shards must be between 1 and %d, got %d", ErrInvalidConfig, MaxShards, c.Cache.Shards)
	}
	if c.Cache.FetchTimeout < 0 {
		return fmt.Errorf("%w: cache.fetch_timeout must be >= 0, got %s", ErrInvalidConfig, c.Cache.FetchTimeout)
	}
	if c.Content.Dir == "" {
		return fmt.Errorf("%w: content.dir cannot be empty", ErrInvalidConfig)
	}
	switch c.Logging.Format {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: logging.format must be %q or %q, got %q",
			ErrInvalidConfig, logging.FormatConsole, logging.FormatJSON, c.Logging.Format)
	}
	return nil
}

// ToLoggingConfig converts the logging section for logging.New.
func (lc LoggingConfig) ToLoggingConfig() logging.Config {
	return logging.Config{Level: lc.Level, Format: lc.Format}
}
