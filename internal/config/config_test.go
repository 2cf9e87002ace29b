package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	laraerrors "github.com/livp123/laratail/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// TestLoad_Defaults tests that a missing optional file yields defaults
// TestLoad_Defaults 测试可选文件缺失时使用默认值
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseDir, cfg.Sites.BaseDir)
	assert.Equal(t, DefaultLogFileName, cfg.Sites.LogFileName)
	assert.Equal(t, "*", cfg.Sites.Pattern)
	assert.True(t, cfg.Sites.RetainMissing)
	assert.Equal(t, DefaultListen, cfg.Web.Listen)

	d, err := cfg.Durations()
	require.NoError(t, err)
	assert.Equal(t, time.Second, d.PollInterval)
	assert.Equal(t, 500*time.Millisecond, d.FlushAfter)
	assert.Equal(t, 5*time.Second, d.StopTimeout)
}

func TestLoad_Required(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, laraerrors.ErrConfigNotFound))
}

// TestLoad_File tests that file values override defaults and untouched keys keep them
// TestLoad_File 测试文件值覆盖默认值，未设置的键保留默认值
func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
sites:
  base_dir: /srv/sites
  default_site: shop
  retain_missing: false
tailer:
  poll_interval: 250ms
web:
  listen: ":9000"
  allowed_origins: ["https://example.com"]
`)

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "/srv/sites", cfg.Sites.BaseDir)
	assert.Equal(t, "shop", cfg.Sites.DefaultSite)
	assert.False(t, cfg.Sites.RetainMissing)
	assert.Equal(t, DefaultLogFileName, cfg.Sites.LogFileName)
	assert.Equal(t, ":9000", cfg.Web.Listen)
	assert.Equal(t, []string{"https://example.com"}, cfg.Web.AllowedOrigins)
	assert.Equal(t, "/srv/sites/shop/laravel.log", cfg.Sites.LogPath("shop"))

	d, err := cfg.Durations()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d.PollInterval)
}

// TestLoad_EnvOverrides tests environment variables taking precedence over the file
// TestLoad_EnvOverrides 测试环境变量优先于配置文件
func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "sites:\n  base_dir: /srv/sites\n  default_site: shop\n")
	t.Setenv(EnvSitesBaseURI, "/data/logs")
	t.Setenv(EnvDefaultSite, "blog")
	t.Setenv(EnvListen, "0.0.0.0:7000")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "/data/logs", cfg.Sites.BaseDir)
	assert.Equal(t, "blog", cfg.Sites.DefaultSite)
	assert.Equal(t, "0.0.0.0:7000", cfg.Web.Listen)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Malformed(t *testing.T) {
	path := writeConfig(t, "sites: [unclosed\n")
	_, err := Load(path, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, laraerrors.ErrConfigInvalid))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty base dir", func(c *Config) { c.Sites.BaseDir = "" }, "sites.base_dir"},
		{"absolute log file", func(c *Config) { c.Sites.LogFileName = "/etc/passwd" }, "sites.log_file"},
		{"bad pattern", func(c *Config) { c.Sites.Pattern = "[" }, "sites.pattern"},
		{"negative max pending", func(c *Config) { c.Tailer.MaxPending = -1 }, "tailer.max_pending"},
		{"bad duration", func(c *Config) { c.Tailer.FlushAfter = "soon" }, "tailer.flush_after"},
		{"zero duration", func(c *Config) { c.Tailer.StopTimeout = "0s" }, "tailer.stop_timeout"},
		{"poll too fast", func(c *Config) { c.Tailer.PollInterval = "1ms" }, "tailer.poll_interval"},
		{"empty listen", func(c *Config) { c.Web.Listen = "" }, "web.listen"},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, laraerrors.ErrConfigInvalid))
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	t.Run("bad default site", func(t *testing.T) {
		cfg := Default()
		cfg.Sites.DefaultSite = "../etc"
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, laraerrors.ErrInvalidSite))
	})

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})
}
