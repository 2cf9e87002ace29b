package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/livp123/laratail/internal/config"
	"github.com/livp123/laratail/internal/model"
	"github.com/livp123/laratail/internal/sites"
	"github.com/livp123/laratail/internal/tailer"
	"github.com/livp123/laratail/pkg/sdk"
	"github.com/mattn/go-isatty"
)

// newRegistry builds the site registry from configuration.
// newRegistry 根据配置构建站点注册表。
func newRegistry(cfg *config.Config, logger sdk.Logger) (*sites.Registry, error) {
	d, err := cfg.Durations()
	if err != nil {
		return nil, err
	}
	return sites.New(sites.Config{
		BaseDir:       cfg.Sites.BaseDir,
		LogFileName:   cfg.Sites.LogFileName,
		Pattern:       cfg.Sites.Pattern,
		RetainMissing: cfg.Sites.RetainMissing,
		Tailer:        tailerOptions(cfg, d),
	}, logger), nil
}

func tailerOptions(cfg *config.Config, d config.Durations) tailer.Options {
	return tailer.Options{
		PollInterval: d.PollInterval,
		FlushAfter:   d.FlushAfter,
		StopTimeout:  d.StopTimeout,
		MaxPending:   cfg.Tailer.MaxPending,
	}
}

// resolveLogPath picks the file to read: --file wins, otherwise the site's log,
// otherwise the default site's log.
// resolveLogPath 选择要读取的文件：优先 --file，其次站点日志，最后默认站点日志。
func resolveLogPath(cfg *config.Config, args []string, file string) (name, path string, err error) {
	if file != "" {
		return file, file, nil
	}
	site := cfg.Sites.DefaultSite
	if len(args) > 0 {
		site = args[0]
	}
	if site == "" {
		return "", "", fmt.Errorf("no site given and %s is not set", config.EnvDefaultSite)
	}
	if err := model.ValidateSiteID(site); err != nil {
		return "", "", err
	}
	return site, cfg.Sites.LogPath(site), nil
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// useColor reports whether w is a terminal.
func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func levelColors(level string) text.Colors {
	switch strings.ToUpper(level) {
	case "EMERGENCY", "ALERT", "CRITICAL", "ERROR":
		return text.Colors{text.FgHiRed, text.Bold}
	case "WARNING":
		return text.Colors{text.FgHiYellow}
	case "NOTICE", "INFO":
		return text.Colors{text.FgHiGreen}
	case "DEBUG":
		return text.Colors{text.FgHiBlack}
	default:
		return nil
	}
}

// formatEntry renders an entry for the terminal: one header line, then
// context and stack trace indented.
// formatEntry 为终端渲染条目：一行标题，然后缩进显示上下文和堆栈。
func formatEntry(e model.LogEntry, color bool) string {
	level := fmt.Sprintf("%-9s", strings.ToUpper(e.Level))
	if color {
		if c := levelColors(e.Level); c != nil {
			level = c.Sprint(level)
		}
	}

	var b strings.Builder
	b.WriteString(e.Timestamp.Format(time.DateTime))
	b.WriteString(" ")
	b.WriteString(level)
	if e.Channel != "" {
		b.WriteString(" [" + e.Channel + "]")
	}
	b.WriteString(" " + e.Message)
	for _, block := range []string{e.Context, e.StackTrace} {
		if block == "" {
			continue
		}
		for _, line := range strings.Split(block, "\n") {
			b.WriteString("\n    " + line)
		}
	}
	return b.String()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
