package config

import "time"

const (
	// DefaultConfigPath is the standard location for the laratail configuration file.
	// DefaultConfigPath 是 laratail 配置文件的标准位置。
	DefaultConfigPath = "/etc/laratail/config.yaml"

	// DefaultBaseDir holds one directory per site, each with its laravel.log.
	// DefaultBaseDir 下每个站点一个目录，各自包含 laravel.log。
	DefaultBaseDir     = "/var/log/sites"
	DefaultLogFileName = "laravel.log"
	DefaultSitePattern = "*"
	DefaultListen      = "127.0.0.1:8090"
	DefaultMetricsPath = "/metrics"
	DefaultLogPath     = "/var/log/laratail/laratail.log"
)

// Environment variables that override the file.
// 覆盖配置文件的环境变量。
const (
	EnvSitesBaseURI = "SITES_BASE_URI"
	EnvDefaultSite  = "DEFAULT_SITE"
	EnvListen       = "LARATAIL_LISTEN"
	EnvLogLevel     = "LARATAIL_LOG_LEVEL"
)

const (
	defaultPollInterval  = "1s"
	defaultFlushAfter    = "500ms"
	defaultStopTimeout   = "5s"
	defaultPruneInterval = "1m"
	defaultWriteTimeout  = "10s"
	defaultMaxPending    = 4 << 20

	minPollInterval = 10 * time.Millisecond
)
