package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 256, cfg.CacheMaxItems)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.False(t, cfg.SaveByDefault)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	clearLiteEnv(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 256, cfg.CacheMaxItems)
	assert.False(t, cfg.SaveByDefault)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearLiteEnv(t)

	t.Setenv("ASCVD_DATA_DIR", "/tmp/test-ascvd")
	t.Setenv("ASCVD_CACHE_MAX_ITEMS", "500")
	t.Setenv("ASCVD_CACHE_TTL", "12h")
	t.Setenv("ASCVD_MCP_SAVE_BY_DEFAULT", "true")
	t.Setenv("ASCVD_LOG_LEVEL", "debug")
	t.Setenv("ASCVD_LOG_FORMAT", "text")

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-ascvd", cfg.DataDir)
	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL)
	assert.True(t, cfg.SaveByDefault)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadLiteConfig_IgnoresInvalidValues(t *testing.T) {
	clearLiteEnv(t)

	t.Setenv("ASCVD_CACHE_MAX_ITEMS", "-3")
	t.Setenv("ASCVD_CACHE_TTL", "soon")
	t.Setenv("ASCVD_MCP_SAVE_BY_DEFAULT", "maybe")

	cfg := LoadLiteConfig()

	assert.Equal(t, 256, cfg.CacheMaxItems)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.False(t, cfg.SaveByDefault)
}

func TestLiteConfig_Paths(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.ascvd-risk"}

	assert.Equal(t, "/home/user/.ascvd-risk/history.db", cfg.HistoryDBPath())
	assert.Equal(t, "/home/user/.ascvd-risk/exports", cfg.ExportDir())
}

func TestLiteConfig_DerivedConfigs(t *testing.T) {
	cfg := &LiteConfig{CacheMaxItems: 10, CacheTTL: time.Minute, LogLevel: "warn", LogFormat: "text"}

	cacheCfg := cfg.CacheConfig()
	assert.Equal(t, "memory", cacheCfg.Driver)
	assert.Equal(t, 10, cacheCfg.MaxItems)
	assert.Equal(t, time.Minute, cacheCfg.DefaultTTL)

	logCfg := cfg.LoggingConfig()
	assert.Equal(t, "warn", logCfg.Level)
	assert.Equal(t, "stderr", logCfg.Output)
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	cfg := &LiteConfig{DataDir: filepath.Join(t.TempDir(), "ascvd")}

	err := cfg.EnsureDataDir()
	require.NoError(t, err)

	// Verify directories exist
	_, err = os.Stat(cfg.DataDir)
	assert.NoError(t, err)

	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func clearLiteEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"ASCVD_DATA_DIR",
		"ASCVD_CACHE_MAX_ITEMS",
		"ASCVD_CACHE_TTL",
		"ASCVD_MCP_SAVE_BY_DEFAULT",
		"ASCVD_LOG_LEVEL",
		"ASCVD_LOG_FORMAT",
	}
	for _, v := range vars {
		t.Setenv(v, "")
	}
}
