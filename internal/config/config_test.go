package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeYAML(t *testing.T, doc map[string]any) string {
	t.Helper()
	data, err := yaml.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeYAML(t, map[string]any{})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sds011-exporter", cfg.App.Name)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Device.Path)
	assert.Equal(t, 9600, cfg.Device.Baud)
	assert.Equal(t, 1, cfg.Device.WorkingPeriod)
	assert.Equal(t, "active", cfg.Device.ReportingMode)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, time.Duration(0), cfg.HTTP.ReadingMaxAge)
	assert.Equal(t, 5, cfg.Retry.Retries)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.PollInterval)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "sds011:latest", cfg.Redis.Key)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeYAML(t, map[string]any{
		"device": map[string]any{
			"path":          "/dev/ttyAMA0",
			"workingPeriod": 5,
			"reportingMode": "query",
		},
		"http": map[string]any{"addr": ":9100", "readingMaxAge": "3m"},
		"retry": map[string]any{
			"retries": 3,
			"timeout": "250ms",
		},
		"redis": map[string]any{
			"enabled": true,
			"key":     "air:latest",
			"ttl":     "1m",
		},
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyAMA0", cfg.Device.Path)
	assert.Equal(t, 5, cfg.Device.WorkingPeriod)
	assert.Equal(t, "query", cfg.Device.ReportingMode)
	assert.Equal(t, ":9100", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Minute, cfg.HTTP.ReadingMaxAge)
	assert.Equal(t, 3, cfg.Retry.Retries)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Timeout)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "air:latest", cfg.Redis.Key)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)

	// 未覆盖项保持默认
	assert.Equal(t, 9600, cfg.Device.Baud)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeYAML(t, map[string]any{})
	t.Setenv("SDS011_DEVICE_PATH", "/dev/ttyS1")
	t.Setenv("SDS011_HTTP_ADDR", ":8082")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyS1", cfg.Device.Path)
	assert.Equal(t, ":8082", cfg.HTTP.Addr)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
