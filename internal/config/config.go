// Package config loads the metawear configuration file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/kenyoneda/MultiMetaWear/pkg/bleuuid"
	"github.com/kenyoneda/MultiMetaWear/pkg/scanner"
)

// Config is the metawear configuration file.
type Config struct {
	Scan    ScanConfig    `yaml:"scan"`
	Radio   RadioConfig   `yaml:"radio"`
	Watch   WatchConfig   `yaml:"watch"`
	Logger  LoggerConfig  `yaml:"logger"`
	Tracer  TracerConfig  `yaml:"tracer"`
	Store   StoreConfig   `yaml:"store"`
	Console ConsoleConfig `yaml:"console"`
}

// ScanConfig holds scan session settings. An empty Services list scans in
// pass-through mode.
type ScanConfig struct {
	Duration  time.Duration `yaml:"duration"`
	Services  []string      `yaml:"services"`
	QueueSize int           `yaml:"queue_size"`
}

// FilterSet parses Services.
func (c ScanConfig) FilterSet() (scanner.FilterSet, error) {
	return scanner.ParseFilterSet(c.Services)
}

// RadioConfig holds adapter settings.
type RadioConfig struct {
	StartGrace time.Duration `yaml:"start_grace"`
}

// WatchConfig holds settings for repeated scans.
type WatchConfig struct {
	Schedule string        `yaml:"schedule"`
	Breaker  BreakerConfig `yaml:"breaker"`
}

// BreakerConfig controls when watch mode stops trying an unavailable radio.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// TracerConfig holds OpenTelemetry settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // stdout, noop
}

// StoreConfig holds scan history settings.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ConsoleConfig holds terminal output settings.
type ConsoleConfig struct {
	RefreshPerSecond float64 `yaml:"refresh_per_second"`
}

// Defaults returns a config with every default applied.
func Defaults() *Config {
	return &Config{
		Scan: ScanConfig{
			Duration:  scanner.DefaultDuration,
			Services:  []string{bleuuid.MetaWear.String()},
			QueueSize: scanner.DefaultQueueSize,
		},
		Radio: RadioConfig{
			StartGrace: 100 * time.Millisecond,
		},
		Watch: WatchConfig{
			Schedule: "@every 1m",
			Breaker: BreakerConfig{
				MaxFailures: 3,
				Timeout:     5 * time.Minute,
			},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Exporter: "noop",
		},
		Store: StoreConfig{
			Path: "metawear.db",
		},
		Console: ConsoleConfig{
			RefreshPerSecond: 2,
		},
	}
}

// Load reads a YAML config file on top of Defaults, applies env var overrides
// and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(err, "read config")
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps METAWEAR_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("METAWEAR_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("METAWEAR_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("METAWEAR_SCAN_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Scan.Duration = d
		}
	}
	if v, ok := os.LookupEnv("METAWEAR_SCAN_SERVICES"); ok {
		if strings.TrimSpace(v) == "*" {
			cfg.Scan.Services = nil
		} else if v != "" {
			cfg.Scan.Services = splitAndTrim(v, ",")
		}
	}
	if v := os.Getenv("METAWEAR_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	switch os.Getenv("METAWEAR_STORE_ENABLED") {
	case "true":
		cfg.Store.Enabled = true
	case "false":
		cfg.Store.Enabled = false
	}
	if v := os.Getenv("METAWEAR_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("METAWEAR_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
