package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/livp123/laratail/internal/model"
	"github.com/livp123/laratail/internal/utils/fileutil"
	"github.com/livp123/laratail/internal/utils/logger"
	laraerrors "github.com/livp123/laratail/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default returns the configuration used when no file is present.
// Default 返回没有配置文件时使用的配置。
func Default() *Config {
	return &Config{
		Sites: SitesConfig{
			BaseDir:       DefaultBaseDir,
			LogFileName:   DefaultLogFileName,
			Pattern:       DefaultSitePattern,
			RetainMissing: true,
			PruneInterval: defaultPruneInterval,
		},
		Tailer: TailerConfig{
			PollInterval: defaultPollInterval,
			FlushAfter:   defaultFlushAfter,
			StopTimeout:  defaultStopTimeout,
			MaxPending:   defaultMaxPending,
		},
		Web: WebConfig{
			Enabled:      true,
			Listen:       DefaultListen,
			WriteTimeout: defaultWriteTimeout,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Logging: logger.LoggingConfig{
			Enabled:    false,
			Level:      "info",
			Format:     "console",
			Path:       DefaultLogPath,
			MaxSize:    10, // 10MB
			MaxBackups: 3,
			MaxAge:     30, // 30 days
			Compress:   true,
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error unless required is set.
// Load 在默认值之上读取 path 并应用环境变量覆盖。除非 required 为真，文件缺失不是错误。
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	safePath := filepath.Clean(path) // Sanitize path to prevent directory traversal
	data, err := os.ReadFile(safePath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", laraerrors.ErrConfigInvalid, path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		if required {
			return nil, fmt.Errorf("%w: %s", laraerrors.ErrConfigNotFound, path)
		}
	default:
		return nil, err
	}

	ApplyEnv(cfg, os.Getenv)

	// Validate configuration / 验证配置
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, atomically.
// Save 以原子方式将 cfg 写为 YAML。
func Save(path string, cfg *Config) error {
	var buf strings.Builder
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(path, []byte(buf.String()), 0644)
}

// ApplyEnv overrides fields from the environment, read through getenv.
// ApplyEnv 通过 getenv 读取环境变量并覆盖字段。
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvSitesBaseURI)); v != "" {
		cfg.Sites.BaseDir = v
	}
	if v := strings.TrimSpace(getenv(EnvDefaultSite)); v != "" {
		cfg.Sites.DefaultSite = v
	}
	if v := strings.TrimSpace(getenv(EnvListen)); v != "" {
		cfg.Web.Listen = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for values the daemon cannot run with.
// Validate 检查守护进程无法运行的配置值。
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Sites.BaseDir) == "" {
		return laraerrors.NewConfigError("sites.base_dir", c.Sites.BaseDir)
	}
	if c.Sites.LogFileName == "" || filepath.IsAbs(c.Sites.LogFileName) {
		return laraerrors.NewConfigError("sites.log_file", c.Sites.LogFileName)
	}
	if c.Sites.DefaultSite != "" {
		if err := model.ValidateSiteID(c.Sites.DefaultSite); err != nil {
			return fmt.Errorf("sites.default_site: %w", err)
		}
	}
	if !doublestar.ValidatePattern(c.Sites.Pattern) {
		return laraerrors.NewConfigError("sites.pattern", c.Sites.Pattern)
	}
	if c.Tailer.MaxPending < 0 {
		return laraerrors.NewConfigError("tailer.max_pending", c.Tailer.MaxPending)
	}
	if c.Web.Enabled && strings.TrimSpace(c.Web.Listen) == "" {
		return laraerrors.NewConfigError("web.listen", c.Web.Listen)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return laraerrors.NewConfigError("metrics.path", c.Metrics.Path)
	}

	d, err := c.Durations()
	if err != nil {
		return err
	}
	if d.PollInterval < minPollInterval {
		return laraerrors.NewConfigError("tailer.poll_interval", c.Tailer.PollInterval)
	}
	return nil
}

// Durations parses every duration field. Empty strings fall back to the defaults.
// Durations 解析所有时长字段，空字符串使用默认值。
func (c *Config) Durations() (Durations, error) {
	var d Durations
	fields := []struct {
		name  string
		value string
		def   string
		dst   *time.Duration
	}{
		{"tailer.poll_interval", c.Tailer.PollInterval, defaultPollInterval, &d.PollInterval},
		{"tailer.flush_after", c.Tailer.FlushAfter, defaultFlushAfter, &d.FlushAfter},
		{"tailer.stop_timeout", c.Tailer.StopTimeout, defaultStopTimeout, &d.StopTimeout},
		{"sites.prune_interval", c.Sites.PruneInterval, defaultPruneInterval, &d.PruneInterval},
		{"web.write_timeout", c.Web.WriteTimeout, defaultWriteTimeout, &d.WriteTimeout},
	}
	for _, f := range fields {
		v := f.value
		if v == "" {
			v = f.def
		}
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			return Durations{}, laraerrors.NewConfigError(f.name, f.value)
		}
		*f.dst = parsed
	}
	return d, nil
}

// LogPath returns the log file of a site.
// LogPath 返回站点的日志文件路径。
func (s SitesConfig) LogPath(siteID string) string {
	return filepath.Join(s.BaseDir, siteID, s.LogFileName)
}
