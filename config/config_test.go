package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/addonbridge/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noEnvFiles(o *LoadOptions) { o.EnvFiles = nil }

// unsetAfter makes sure key is unset now and restored when the test ends.
func unsetAfter(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", noEnvFiles)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "bridge.toml", `
namespace = "mypack"
timeout_ticks = 40
log_level = "debug"
metrics_enabled = true
`)

	cfg, err := Load(path, noEnvFiles)
	require.NoError(t, err)
	assert.Equal(t, "mypack", cfg.Namespace)
	assert.Equal(t, 40, cfg.TimeoutTicks)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "bridge", cfg.BridgeNamespace)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_TOMLUnknownKey(t *testing.T) {
	path := writeFile(t, "bridge.toml", `timeout = 40`)
	_, err := Load(path, noEnvFiles)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_HuJSON(t *testing.T) {
	path := writeFile(t, "bridge.hujson", `{
	// comments are allowed
	"log_format": "text",
	"redis_addr": "localhost:6379", // trailing commas too
}`)

	cfg, err := Load(path, noEnvFiles)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 20, cfg.TimeoutTicks)
}

func TestLoad_JSONUnknownField(t *testing.T) {
	path := writeFile(t, "bridge.json", `{"nope": 1}`)
	_, err := Load(path, noEnvFiles)
	assert.Error(t, err)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, "bridge.yaml", "namespace: x")
	_, err := Load(path, noEnvFiles)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"), noEnvFiles)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "bridge.toml", `timeout_ticks = 40`)
	t.Setenv("ADDONBRIDGE_TIMEOUT_TICKS", "5")
	t.Setenv("ADDONBRIDGE_METRICS_PREFIX", "pack")

	cfg, err := Load(path, noEnvFiles)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TimeoutTicks)
	assert.Equal(t, "pack", cfg.MetricsPrefix)
}

func TestLoad_EnvFiles(t *testing.T) {
	unsetAfter(t, "ADDONBRIDGE_LOG_LEVEL")
	unsetAfter(t, "ADDONBRIDGE_LOG_FORMAT")

	base := writeFile(t, ".env", "ADDONBRIDGE_LOG_LEVEL=warn\nADDONBRIDGE_LOG_FORMAT=text\n")
	local := writeFile(t, ".env.local", "ADDONBRIDGE_LOG_LEVEL=error\n")

	cfg, err := Load("", func(o *LoadOptions) {
		o.EnvFiles = []string{base, local, filepath.Join(t.TempDir(), "absent")}
	})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("ADDONBRIDGE_TIMEOUT_TICKS", "soon")
	_, err := Load("", noEnvFiles)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"empty namespace", func(c *Config) { c.Namespace = "" }},
		{"colon in namespace", func(c *Config) { c.BridgeNamespace = "a:b" }},
		{"zero timeout", func(c *Config) { c.TimeoutTicks = 0 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
		{"metrics without prefix", func(c *Config) {
			c.MetricsEnabled = true
			c.MetricsPrefix = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	assert.NoError(t, Default().Validate())

	cfg := Default()
	cfg.LogFormat = "zerolog"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_LoggerConfig(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "text"

	lc := cfg.LoggerConfig()
	assert.Equal(t, logging.LogLevelWarn, lc.Level)
	assert.Equal(t, "text", lc.Format)
}
