package config

import "github.com/livp123/laratail/internal/runtime"

// GetConfigPath returns the configuration file path.
// If runtime.ConfigPath is set (e.g., via CLI flag or test), it takes precedence.
// GetConfigPath 返回配置文件路径
// 如果 runtime.ConfigPath 已设置（例如通过 CLI 标志或测试），则优先使用它。
func GetConfigPath() string {
	if runtime.ConfigPath != "" {
		return runtime.ConfigPath
	}
	return DefaultConfigPath
}

// ExplicitConfigPath reports whether the path was given on the command line.
// ExplicitConfigPath 报告路径是否由命令行给出。
func ExplicitConfigPath() bool {
	return runtime.ConfigPath != ""
}
