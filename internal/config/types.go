package config

import (
	"time"

	"github.com/livp123/laratail/internal/utils/logger"
)

// Config is the root of the YAML configuration.
// Config 是 YAML 配置的根结构。
type Config struct {
	Sites   SitesConfig          `yaml:"sites"`
	Tailer  TailerConfig         `yaml:"tailer"`
	Web     WebConfig            `yaml:"web"`
	Metrics MetricsConfig        `yaml:"metrics"`
	Logging logger.LoggingConfig `yaml:"logging"`
}

// SitesConfig locates site logs on disk.
// SitesConfig 定位磁盘上的站点日志。
type SitesConfig struct {
	BaseDir string `yaml:"base_dir"`
	// BaseDir: 站点根目录，每个站点一个子目录
	DefaultSite string `yaml:"default_site"`
	// DefaultSite: 启动时自动跟踪的站点，新会话默认订阅该站点
	LogFileName string `yaml:"log_file"`
	// LogFileName: 站点目录内的日志文件相对路径
	Pattern string `yaml:"pattern"`
	// Pattern: 可用站点目录的 doublestar 匹配模式
	RetainMissing bool `yaml:"retain_missing"`
	// RetainMissing: 站点目录被删除后是否保留其 tailer
	PruneInterval string `yaml:"prune_interval"`
	// PruneInterval: 清理检查间隔
}

// TailerConfig tunes every site tailer.
// TailerConfig 调整所有站点的 tailer。
type TailerConfig struct {
	PollInterval string `yaml:"poll_interval"`
	// PollInterval: 兜底轮询间隔
	FlushAfter string `yaml:"flush_after"`
	// FlushAfter: 末尾条目空闲多久后投递
	StopTimeout string `yaml:"stop_timeout"`
	// StopTimeout: 停止时等待进行中检查的最长时间
	MaxPending int `yaml:"max_pending"`
	// MaxPending: 未完成条目的最大缓冲字节数
}

// WebConfig configures the HTTP/WebSocket server.
// WebConfig 配置 HTTP/WebSocket 服务。
type WebConfig struct {
	Enabled bool `yaml:"enabled"`
	// Enabled: 是否启用 Web 服务
	Listen string `yaml:"listen"`
	// Listen: 监听地址
	AllowedOrigins []string `yaml:"allowed_origins"`
	// AllowedOrigins: 允许的 WebSocket Origin，空表示仅同源
	WriteTimeout string `yaml:"write_timeout"`
	// WriteTimeout: 单次 WebSocket 写入超时
}

// MetricsConfig exposes Prometheus metrics on the web server.
// MetricsConfig 在 Web 服务上暴露 Prometheus 指标。
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Durations holds the parsed duration fields.
// Durations 保存解析后的时长字段。
type Durations struct {
	PollInterval  time.Duration
	FlushAfter    time.Duration
	StopTimeout   time.Duration
	PruneInterval time.Duration
	WriteTimeout  time.Duration
}
