package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/livp123/laratail/internal/filter"
	"github.com/livp123/laratail/internal/hub"
	"github.com/livp123/laratail/internal/model"
	"github.com/livp123/laratail/internal/parser"
	"github.com/livp123/laratail/internal/tailer"
	"github.com/livp123/laratail/internal/utils/logger"
	"github.com/spf13/cobra"
)

var tailFlags struct {
	file   string
	filter string
	lines  int
	json   bool
}

var tailCmd = &cobra.Command{
	Use:   "tail [site]",
	Short: "Follow parsed entries of a site log",
	// Short: 跟踪站点日志的解析条目
	Long: `Print new entries of a site log as they are written, one block per entry.
按写入顺序打印站点日志的新条目，每个条目一块。

Examples:
  laratail tail shop
  laratail tail shop -n 20 --filter 'IsLevel("error")'
  laratail tail --file storage/logs/laravel.log --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig()
		name, path, err := resolveLogPath(cfg, args, tailFlags.file)
		if err != nil {
			return err
		}
		f, err := filter.Compile(tailFlags.filter)
		if err != nil {
			return err
		}
		d, err := cfg.Durations()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := tailerOptions(cfg, d)
		opts.Name = name
		t := tailer.New(path, opts, logger.Get(ctx))
		return runTail(ctx, t, cmd.OutOrStdout(), f, tailFlags.lines, tailFlags.json)
	},
}

func init() {
	tailCmd.Flags().StringVarP(&tailFlags.file, "file", "f", "", "Follow this file instead of a site log")
	tailCmd.Flags().StringVar(&tailFlags.filter, "filter", "", "Expression filter, e.g. 'Level == \"ERROR\"'")
	tailCmd.Flags().IntVarP(&tailFlags.lines, "lines", "n", 0, "Print the last N existing entries first")
	tailCmd.Flags().BoolVar(&tailFlags.json, "json", false, "Print one JSON object per entry")
}

// entryPrinter writes entries to w. Writes are serialized.
type entryPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	filter *filter.Filter
	json   bool
	color  bool
}

func (p *entryPrinter) print(e model.LogEntry) error {
	if !p.filter.Match(e) {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		return json.NewEncoder(p.w).Encode(e)
	}
	_, err := fmt.Fprintln(p.w, formatEntry(e, p.color))
	return err
}

// runTail prints the last n entries, then follows t until ctx is done.
// runTail 先打印最后 n 个条目，然后跟踪 t 直到 ctx 结束。
func runTail(ctx context.Context, t *tailer.Tailer, w io.Writer, f *filter.Filter, n int, asJSON bool) error {
	p := &entryPrinter{w: w, filter: f, json: asJSON, color: !asJSON && useColor(w)}

	t.AddSubscriber(&hub.Listener{
		Key:      "tail",
		NewEntry: p.print,
		Error: func(err error) error {
			logger.Get(ctx).Warnf("⚠️  %v", err)
			return nil
		},
	})
	if err := t.Start(); err != nil {
		return err
	}
	defer t.Stop()

	if n > 0 {
		existing, err := parser.ParseFile(t.Path())
		if err != nil {
			return err
		}
		existing = f.Apply(existing)
		if len(existing) > n {
			existing = existing[len(existing)-n:]
		}
		for _, e := range existing {
			if err := p.print(e); err != nil {
				return err
			}
		}
	}

	<-ctx.Done()
	return nil
}
