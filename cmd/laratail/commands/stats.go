package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/livp123/laratail/internal/filter"
	"github.com/livp123/laratail/internal/model"
	"github.com/livp123/laratail/internal/parser"
	"github.com/spf13/cobra"
)

type statsOptions struct {
	file   string
	filter string
	level  string
	search string
	since  time.Duration
	limit  int
}

var statsFlags statsOptions

var statsCmd = &cobra.Command{
	Use:   "stats [site]",
	Short: "Summarize a site log",
	// Short: 汇总站点日志
	Long: `Parse the whole log of a site and print level counts plus the most recent entries.
解析站点的完整日志，输出各级别计数以及最近的条目。

Examples:
  laratail stats shop
  laratail stats shop --level error --since 24h
  laratail stats shop --filter 'Message contains "SQLSTATE"'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, path, err := resolveLogPath(currentConfig(), args, statsFlags.file)
		if err != nil {
			return err
		}
		entries, err := parser.ParseFile(path)
		if err != nil {
			return err
		}
		return printStats(cmd.OutOrStdout(), entries, statsFlags, time.Now())
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsFlags.file, "file", "f", "", "Read this file instead of a site log")
	statsCmd.Flags().StringVar(&statsFlags.filter, "filter", "", "Expression filter, e.g. 'IsLevel(\"error\")'")
	statsCmd.Flags().StringVar(&statsFlags.level, "level", "", "Only entries of this level")
	statsCmd.Flags().StringVar(&statsFlags.search, "search", "", "Only entries whose message contains this text")
	statsCmd.Flags().DurationVar(&statsFlags.since, "since", 0, "Only entries newer than this duration")
	statsCmd.Flags().IntVarP(&statsFlags.limit, "limit", "n", 10, "Number of recent entries to show")
}

// selectEntries applies the command-line filters in order.
// selectEntries 依次应用命令行过滤条件。
func selectEntries(entries []model.LogEntry, opts statsOptions, now time.Time) ([]model.LogEntry, error) {
	if opts.level != "" {
		entries = parser.FilterByLevel(entries, opts.level)
	}
	if opts.since > 0 {
		start := now.Add(-opts.since)
		entries = parser.FilterByDateRange(entries, &start, nil)
	}
	if opts.search != "" {
		entries = parser.SearchByMessage(entries, opts.search)
	}
	f, err := filter.Compile(opts.filter)
	if err != nil {
		return nil, err
	}
	return f.Apply(entries), nil
}

func printStats(w io.Writer, entries []model.LogEntry, opts statsOptions, now time.Time) error {
	selected, err := selectEntries(entries, opts, now)
	if err != nil {
		return err
	}
	stats := parser.Summarize(selected)

	fmt.Fprintln(w, renderTable(
		[]string{"TOTAL", "ERRORS", "WARNINGS", "INFO", "DEBUG"},
		[][]string{{
			strconv.Itoa(stats.TotalCount),
			strconv.Itoa(stats.ErrorsCount),
			strconv.Itoa(stats.WarningsCount),
			strconv.Itoa(stats.InfoCount),
			strconv.Itoa(stats.DebugCount),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
	))

	recent := stats.Logs
	if opts.limit >= 0 && len(recent) > opts.limit {
		recent = recent[len(recent)-opts.limit:]
	}
	if len(recent) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(recent))
	for _, e := range recent {
		rows = append(rows, []string{e.Timestamp.Format(time.DateTime), e.Level, truncate(e.Message, 100)})
	}
	fmt.Fprintln(w, renderTable([]string{"TIME", "LEVEL", "MESSAGE"}, rows, nil))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
