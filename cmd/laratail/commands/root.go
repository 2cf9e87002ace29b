package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/livp123/laratail/internal/config"
	"github.com/livp123/laratail/internal/runtime"
	"github.com/livp123/laratail/internal/utils/logger"
	"github.com/spf13/cobra"
)

// skipConfigAnnotation marks commands that must run even without a valid config.
const skipConfigAnnotation = "laratail/skip-config"

var cfgManager *config.Manager

var RootCmd = &cobra.Command{
	Use:   "laratail",
	Short: "Live tail for Laravel log files",
	// Short: Laravel 日志文件的实时跟踪工具
	Long: `laratail watches the laravel.log of one or more sites, parses new entries
as they are written and streams them to WebSocket clients or the terminal.
laratail 监听一个或多个站点的 laravel.log，解析新写入的条目，
并将其推送给 WebSocket 客户端或终端。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration to get logging settings
		// 加载配置以获取日志设置
		cm := config.NewManager(config.GetConfigPath(), config.ExplicitConfigPath())
		if err := cm.LoadConfig(); err != nil {
			logger.Init(config.Default().Logging)
			if cmd.Annotations[skipConfigAnnotation] == "" {
				return err
			}
			logger.Get(nil).Warnf("⚠️  Using default configuration: %v", err)
		}
		cfgManager = cm
		logger.Init(cm.GetConfig().Logging)

		// Inject logger into context
		// 将 Logger 注入 Context
		ctx := logger.WithContext(cmd.Context(), logger.Get(nil))
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	// Config file path
	// 配置文件路径
	RootCmd.PersistentFlags().StringVarP(&runtime.ConfigPath, "config", "c", "", fmt.Sprintf("Path to configuration file (default: %s)", config.DefaultConfigPath))

	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(sitesCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(tailCmd)
	RootCmd.AddCommand(rawCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(versionCmd)

	RootCmd.CompletionOptions.DisableDescriptions = true
}

// currentConfig returns the loaded configuration, or the defaults outside a command run.
func currentConfig() *config.Config {
	if cfgManager == nil {
		return config.Default()
	}
	return cfgManager.GetConfig()
}

func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
