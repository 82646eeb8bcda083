package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenyoneda/MultiMetaWear/pkg/bleuuid"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metawear.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 10*time.Second, cfg.Scan.Duration)
	assert.Equal(t, []string{"326a9000-85cb-9195-d9dd-464cfbbae75a"}, cfg.Scan.Services)
	assert.Equal(t, 64, cfg.Scan.QueueSize)
	assert.Equal(t, "@every 1m", cfg.Watch.Schedule)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.NoError(t, Validate(cfg))

	filter, err := cfg.Scan.FilterSet()
	require.NoError(t, err)
	assert.True(t, filter.Contains(bleuuid.MetaWear))
}

func TestLoadNonExistentReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
scan:
  duration: 30s
  services: ["180d", "0x180f"]
watch:
  schedule: "*/5 * * * *"
  breaker:
    max_failures: 5
logger:
  level: debug
  format: json
store:
  enabled: true
  path: /tmp/history.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Scan.Duration)
	assert.Equal(t, 64, cfg.Scan.QueueSize, "unset keys keep defaults")
	assert.Equal(t, "*/5 * * * *", cfg.Watch.Schedule)
	assert.Equal(t, uint32(5), cfg.Watch.Breaker.MaxFailures)
	assert.Equal(t, 5*time.Minute, cfg.Watch.Breaker.Timeout)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Store.Enabled)

	filter, err := cfg.Scan.FilterSet()
	require.NoError(t, err)
	assert.Equal(t, 2, filter.Len())
	assert.True(t, filter.Contains(bleuuid.From16(0x180f)))
}

func TestLoadEmptyServicesIsPassThrough(t *testing.T) {
	cfg, err := Load(writeConfig(t, "scan:\n  services: []\n"))
	require.NoError(t, err)

	filter, err := cfg.Scan.FilterSet()
	require.NoError(t, err)
	assert.True(t, filter.Empty())
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "scan: [unclosed"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, `
scan:
  duration: 0s
  services: ["zz"]
watch:
  schedule: "whenever"
logger:
  level: loud
`))
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 4)
	assert.Contains(t, err.Error(), "scan.duration")
	assert.Contains(t, err.Error(), "scan.services[0]")
	assert.Contains(t, err.Error(), "watch.schedule")
	assert.Contains(t, err.Error(), "logger.level")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("METAWEAR_LOGGER_LEVEL", "debug")
	t.Setenv("METAWEAR_LOGGER_FORMAT", "json")
	t.Setenv("METAWEAR_SCAN_DURATION", "3s")
	t.Setenv("METAWEAR_SCAN_SERVICES", "180d, 180f")
	t.Setenv("METAWEAR_STORE_ENABLED", "true")
	t.Setenv("METAWEAR_STORE_PATH", "/var/lib/metawear.db")
	t.Setenv("METAWEAR_TRACER_ENABLED", "true")
	t.Setenv("METAWEAR_TRACER_EXPORTER", "stdout")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, 3*time.Second, cfg.Scan.Duration)
	assert.Equal(t, []string{"180d", "180f"}, cfg.Scan.Services)
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, "/var/lib/metawear.db", cfg.Store.Path)
	assert.True(t, cfg.Tracer.Enabled)
	assert.Equal(t, "stdout", cfg.Tracer.Exporter)
}

func TestEnvOverridesScanServicesWildcard(t *testing.T) {
	t.Setenv("METAWEAR_SCAN_SERVICES", "*")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)
	assert.Empty(t, cfg.Scan.Services)
}

func TestEnvOverridesIgnoresBadDuration(t *testing.T) {
	t.Setenv("METAWEAR_SCAN_DURATION", "soon")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)
	assert.Equal(t, 10*time.Second, cfg.Scan.Duration)
}

func TestValidateTracerAndStore(t *testing.T) {
	cfg := Defaults()
	cfg.Tracer.Enabled = true
	cfg.Tracer.Exporter = "jaeger"
	cfg.Store.Enabled = true
	cfg.Store.Path = ""

	err := Validate(cfg)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}
