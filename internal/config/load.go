package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read by Load when no path is given and the file exists.
const DefaultPath = "slidedeck.yaml"

// envKeys maps environment variables onto dotted config keys.
// List values are comma separated.
var envKeys = map[string]string{
	"SLIDEDECK_ADDR":                     "server.addr",
	"SLIDEDECK_CORS_ORIGINS":             "server.cors_origins",
	"SLIDEDECK_UPLOAD_RATE":              "server.upload_rate",
	"SLIDEDECK_UPLOAD_BURST":             "server.upload_burst",
	"SLIDEDECK_REQUEST_TIMEOUT":          "server.request_timeout",
	"SLIDEDECK_STORE":                    "store.backend",
	"SLIDEDECK_STORE_PATH":               "store.path",
	"SLIDEDECK_REDACT":                   "store.redact",
	"SLIDEDECK_REDIS_ADDR":               "store.redis.addr",
	"SLIDEDECK_REDIS_PASSWORD":           "store.redis.password",
	"SLIDEDECK_REDIS_DB":                 "store.redis.db",
	"SLIDEDECK_REDIS_PREFIX":             "store.redis.prefix",
	"SLIDEDECK_REDIS_TTL":                "store.redis.ttl",
	"SLIDEDECK_REDIS_LOCK_TTL":           "store.redis.lock_ttl",
	"SLIDEDECK_ENCRYPTION_KEY":           "encryption.key",
	"SLIDEDECK_ENCRYPTION_FALLBACK_KEYS": "encryption.fallback_keys",
	"SLIDEDECK_HISTORY_LIMIT":            "history.limit",
	"SLIDEDECK_LOG_LEVEL":                "log.level",
	"SLIDEDECK_LOG_FORMAT":               "log.format",
	"SLIDEDECK_METRICS":                  "metrics.enabled",
	"SLIDEDECK_METRICS_NAMESPACE":        "metrics.namespace",
}

// Load builds the configuration from defaults, then the YAML file at path, then the
// environment. An empty path falls back to DefaultPath when that file exists.
func Load(path string) (*Config, error) {
	raw := map[string]any{}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	for name, key := range envKeys {
		if v, ok := os.LookupEnv(name); ok {
			set(raw, key, v)
		}
	}

	cfg := Default()
	if err := decode(raw, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// set stores v under a dotted key, creating intermediate maps.
func set(m map[string]any, key string, v any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}
