// Package config loads slidedeck settings from a YAML file and SLIDEDECK_* environment
// variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full set of runtime settings.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Encryption EncryptionConfig `mapstructure:"encryption" yaml:"encryption"`
	History    HistoryConfig    `mapstructure:"history" yaml:"history"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	CORSOrigins    []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	UploadRate     float64       `mapstructure:"upload_rate" yaml:"upload_rate"`
	UploadBurst    int           `mapstructure:"upload_burst" yaml:"upload_burst"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

type StoreConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Path    string      `mapstructure:"path" yaml:"path"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
	// Redact lists regular expressions masked out of text nodes before saving.
	Redact []string `mapstructure:"redact" yaml:"redact"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
	LockTTL  time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
}

// EncryptionConfig holds base64 encoded AES-256 keys. An empty Key disables encryption.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key" yaml:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys"`
}

type HistoryConfig struct {
	// Limit caps the past stack of each slide. Zero keeps everything.
	Limit int `mapstructure:"limit" yaml:"limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

// Default returns the settings used when neither file nor environment say otherwise.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			UploadRate:     5,
			UploadBurst:    10,
			RequestTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    ".slidedeck/presentations",
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Prefix:  "slidedeck:",
				LockTTL: 30 * time.Second,
			},
		},
		History: HistoryConfig{Limit: 100},
		Log:     LogConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true, Namespace: "slidedeck"},
	}
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalid, c.Store.Backend)
	}
	if (c.Store.Backend == BackendFile || c.Store.Backend == BackendSQLite) && c.Store.Path == "" {
		return fmt.Errorf("%w: store.path is required for the %s backend", ErrInvalid, c.Store.Backend)
	}
	if c.Store.Backend == BackendRedis && c.Store.Redis.Addr == "" {
		return fmt.Errorf("%w: store.redis.addr is required", ErrInvalid)
	}
	for _, p := range c.Store.Redact {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: store.redact: %v", ErrInvalid, err)
		}
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("%w: history.limit must not be negative", ErrInvalid)
	}
	if c.Server.UploadRate < 0 || c.Server.UploadBurst < 0 {
		return fmt.Errorf("%w: upload rate and burst must not be negative", ErrInvalid)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json", ErrInvalid)
	}
	if _, _, err := c.EncryptionKeys(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return lvl, nil
}

// EncryptionKeys decodes the configured keys. A nil active key means encryption is off.
func (c *Config) EncryptionKeys() (active []byte, fallback [][]byte, err error) {
	if c.Encryption.Key == "" {
		if len(c.Encryption.FallbackKeys) > 0 {
			return nil, nil, fmt.Errorf("%w: encryption.fallback_keys set without encryption.key", ErrInvalid)
		}
		return nil, nil, nil
	}
	active, err = decodeKey("encryption.key", c.Encryption.Key)
	if err != nil {
		return nil, nil, err
	}
	for i, k := range c.Encryption.FallbackKeys {
		key, err := decodeKey(fmt.Sprintf("encryption.fallback_keys[%d]", i), k)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(name, s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not base64: %v", ErrInvalid, name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: %s must decode to 32 bytes, got %d", ErrInvalid, name, len(key))
	}
	return key, nil
}
