package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/kenyoneda/MultiMetaWear/pkg/bleuuid"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg and returns a *ValidationError listing every problem.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateScan(cfg, ve)
	validateRadio(cfg, ve)
	validateWatch(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	validateStore(cfg, ve)
	validateConsole(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateScan(cfg *Config, ve *ValidationError) {
	if cfg.Scan.Duration <= 0 {
		ve.Add("scan.duration must be > 0")
	}
	if cfg.Scan.QueueSize <= 0 {
		ve.Add("scan.queue_size must be > 0")
	}
	for i, s := range cfg.Scan.Services {
		if _, err := bleuuid.Parse(s); err != nil {
			ve.Add("scan.services[%d]: %v", i, err)
		}
	}
}

func validateRadio(cfg *Config, ve *ValidationError) {
	if cfg.Radio.StartGrace < 0 {
		ve.Add("radio.start_grace must be >= 0")
	}
}

func validateWatch(cfg *Config, ve *ValidationError) {
	if _, err := cron.ParseStandard(cfg.Watch.Schedule); err != nil {
		ve.Add("watch.schedule %q: %v", cfg.Watch.Schedule, err)
	}
	if cfg.Watch.Breaker.MaxFailures == 0 {
		ve.Add("watch.breaker.max_failures must be > 0")
	}
	if cfg.Watch.Breaker.Timeout <= 0 {
		ve.Add("watch.breaker.timeout must be > 0")
	}
}

var validLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

func validateLogger(cfg *Config, ve *ValidationError) {
	if !validLevels[strings.ToLower(cfg.Logger.Level)] {
		ve.Add("logger.level %q is not one of debug, info, warn, error", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "text", "json":
	default:
		ve.Add("logger.format %q must be text or json", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "stdout", "noop", "":
	default:
		ve.Add("tracer.exporter %q must be stdout or noop", cfg.Tracer.Exporter)
	}
}

func validateStore(cfg *Config, ve *ValidationError) {
	if cfg.Store.Enabled && cfg.Store.Path == "" {
		ve.Add("store.path must not be empty when the store is enabled")
	}
}

func validateConsole(cfg *Config, ve *ValidationError) {
	if cfg.Console.RefreshPerSecond < 0 {
		ve.Add("console.refresh_per_second must be >= 0")
	}
}
