package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/livp123/laratail/internal/api"
	"github.com/livp123/laratail/internal/config"
	"github.com/livp123/laratail/internal/hub"
	"github.com/livp123/laratail/internal/model"
	"github.com/livp123/laratail/internal/utils/logger"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	listen string
	site   string
	noWeb  bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live log server",
	// Short: 运行实时日志服务
	Long: `Start tailing the default site and serve the REST API, the /api/lara-sock
WebSocket feed and Prometheus metrics until interrupted.
开始跟踪默认站点，并提供 REST API、/api/lara-sock WebSocket 推送和 Prometheus 指标，直到被中断。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig()
		if serveFlags.listen != "" {
			cfg.Web.Listen = serveFlags.listen
		}
		if serveFlags.site != "" {
			cfg.Sites.DefaultSite = serveFlags.site
		}
		if serveFlags.noWeb {
			cfg.Web.Enabled = false
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.listen, "listen", "l", "", "Listen address (overrides web.listen)")
	serveCmd.Flags().StringVarP(&serveFlags.site, "site", "s", "", "Default site (overrides sites.default_site)")
	serveCmd.Flags().BoolVar(&serveFlags.noWeb, "no-web", false, "Only tail and log entries, without the web server")
}

// runServe blocks until ctx is done.
// runServe 阻塞直到 ctx 结束。
func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.Get(ctx)

	d, err := cfg.Durations()
	if err != nil {
		return err
	}
	registry, err := newRegistry(cfg, log)
	if err != nil {
		return err
	}
	defer registry.StopAll()

	if site := cfg.Sites.DefaultSite; site != "" {
		if _, err := registry.GetOrCreate(site); err != nil {
			// The tailer stays registered and is retried by the next subscriber.
			log.Warnf("⚠️  Default site %s not started: %v", site, err)
		}
		if !cfg.Web.Enabled {
			if _, err := registry.Subscribe(site, logListener(site)); err != nil {
				return err
			}
		}
	}

	go registry.RunPruner(ctx, d.PruneInterval)

	var srv *api.Server
	if cfg.Web.Enabled {
		srv = api.New(registry, api.Options{
			Listen:         cfg.Web.Listen,
			DefaultSite:    cfg.Sites.DefaultSite,
			WriteTimeout:   d.WriteTimeout,
			AllowedOrigins: cfg.Web.AllowedOrigins,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsPath:    cfg.Metrics.Path,
		}, log)
		if err := srv.Start(ctx); err != nil {
			return err
		}
	}

	log.Infof("✅ laratail is running (sites: %s)", cfg.Sites.BaseDir)
	<-ctx.Done()
	log.Infof("🛑 Shutting down...")

	if srv != nil {
		if err := srv.Stop(); err != nil {
			log.Warnf("⚠️  Web server shutdown: %v", err)
		}
	}
	return nil
}

// logListener writes entries to the application log when no web server runs.
func logListener(site string) *hub.Listener {
	log := logger.Named(site)
	return &hub.Listener{
		Key: "log:" + site,
		NewEntry: func(e model.LogEntry) error {
			log.Infof("%s %s: %s", e.Timestamp.Format("15:04:05"), e.Level, e.Message)
			return nil
		},
		Error: func(err error) error {
			log.Warnf("⚠️  %v", err)
			return nil
		},
	}
}
