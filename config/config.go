// Package config loads addonbridge runtime settings from defaults, an
// optional TOML or HuJSON file, .env files and ADDONBRIDGE_* environment
// variables, in that order of increasing precedence.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/hupe1980/addonbridge/logging"
	"github.com/joho/godotenv"
	"github.com/tailscale/hujson"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds the runtime settings.
type Config struct {
	// Namespace is the transport channel namespace.
	Namespace string `env:"ADDONBRIDGE_NAMESPACE"`
	// BridgeNamespace prefixes bridge request identifiers.
	BridgeNamespace string `env:"ADDONBRIDGE_BRIDGE_NAMESPACE"`
	// TimeoutTicks is the default request tick budget.
	TimeoutTicks int `env:"ADDONBRIDGE_TIMEOUT_TICKS"`

	LogLevel  string `env:"ADDONBRIDGE_LOG_LEVEL"`
	LogFormat string `env:"ADDONBRIDGE_LOG_FORMAT"`

	MetricsEnabled bool   `env:"ADDONBRIDGE_METRICS_ENABLED"`
	MetricsPrefix  string `env:"ADDONBRIDGE_METRICS_PREFIX"`

	// RedisAddr enables Redis backed dynamic properties when set.
	RedisAddr string `env:"ADDONBRIDGE_REDIS_ADDR"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Namespace:       "packet",
		BridgeNamespace: "bridge",
		TimeoutTicks:    20,
		LogLevel:        "info",
		LogFormat:       "json",
		MetricsPrefix:   "addonbridge",
	}
}

// fileConfig mirrors Config for files; nil fields are left untouched.
type fileConfig struct {
	Namespace       *string `toml:"namespace" json:"namespace"`
	BridgeNamespace *string `toml:"bridge_namespace" json:"bridge_namespace"`
	TimeoutTicks    *int    `toml:"timeout_ticks" json:"timeout_ticks"`
	LogLevel        *string `toml:"log_level" json:"log_level"`
	LogFormat       *string `toml:"log_format" json:"log_format"`
	MetricsEnabled  *bool   `toml:"metrics_enabled" json:"metrics_enabled"`
	MetricsPrefix   *string `toml:"metrics_prefix" json:"metrics_prefix"`
	RedisAddr       *string `toml:"redis_addr" json:"redis_addr"`
}

// LoadOptions tunes Load.
type LoadOptions struct {
	// EnvFiles are loaded in order when they exist. The first one never
	// overrides variables already set; later ones do.
	EnvFiles []string
}

// Load builds a Config. path may be empty; otherwise its extension selects
// the format: .toml, or .json/.hujson for JSON with comments and trailing
// commas.
func Load(path string, optFns ...func(o *LoadOptions)) (Config, error) {
	opts := LoadOptions{EnvFiles: []string{".env", ".env.local"}}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := Default()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := loadEnvFiles(opts.EnvFiles); err != nil {
		return Config{}, err
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("%w: unknown key %q in %s", ErrInvalid, undecoded[0].String(), path)
		}
	case ".json", ".hujson":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		std, err := hujson.Standardize(data)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		dec := json.NewDecoder(bytes.NewReader(std))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: unsupported config format %q", ErrInvalid, ext)
	}

	raw.apply(cfg)
	return nil
}

func (f fileConfig) apply(cfg *Config) {
	if f.Namespace != nil {
		cfg.Namespace = strings.TrimSpace(*f.Namespace)
	}
	if f.BridgeNamespace != nil {
		cfg.BridgeNamespace = strings.TrimSpace(*f.BridgeNamespace)
	}
	if f.TimeoutTicks != nil {
		cfg.TimeoutTicks = *f.TimeoutTicks
	}
	if f.LogLevel != nil {
		cfg.LogLevel = strings.TrimSpace(*f.LogLevel)
	}
	if f.LogFormat != nil {
		cfg.LogFormat = strings.TrimSpace(*f.LogFormat)
	}
	if f.MetricsEnabled != nil {
		cfg.MetricsEnabled = *f.MetricsEnabled
	}
	if f.MetricsPrefix != nil {
		cfg.MetricsPrefix = strings.TrimSpace(*f.MetricsPrefix)
	}
	if f.RedisAddr != nil {
		cfg.RedisAddr = strings.TrimSpace(*f.RedisAddr)
	}
}

func loadEnvFiles(files []string) error {
	for i, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		load := godotenv.Overload
		if i == 0 {
			load = godotenv.Load
		}
		if err := load(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	for name, ns := range map[string]string{"namespace": c.Namespace, "bridge_namespace": c.BridgeNamespace} {
		if ns == "" || strings.Contains(ns, ":") {
			return fmt.Errorf("%w: %s must be non-empty and must not contain ':'", ErrInvalid, name)
		}
	}
	if c.TimeoutTicks <= 0 {
		return fmt.Errorf("%w: timeout_ticks must be positive, got %d", ErrInvalid, c.TimeoutTicks)
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalid, c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text", logging.FormatZerolog:
	default:
		return fmt.Errorf("%w: log_format must be json, text or zerolog, got %q", ErrInvalid, c.LogFormat)
	}
	if c.MetricsEnabled && c.MetricsPrefix == "" {
		return fmt.Errorf("%w: metrics_prefix is required when metrics are enabled", ErrInvalid)
	}
	return nil
}

// LoggerConfig returns the logging settings as a logging.LoggerConfig.
func (c Config) LoggerConfig() *logging.LoggerConfig {
	cfg := logging.DefaultLoggerConfig()
	cfg.Level, _ = logging.ParseLevel(c.LogLevel)
	cfg.Format = c.LogFormat
	return cfg
}
