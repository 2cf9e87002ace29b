package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/livp123/laratail/internal/utils/logger"
	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List available sites",
	// Short: 列出可用站点
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig()
		registry, err := newRegistry(cfg, logger.Get(cmd.Context()))
		if err != nil {
			return err
		}
		ids, err := registry.Available()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No sites found under %s\n", cfg.Sites.BaseDir)
			return nil
		}

		rows := make([][]string, 0, len(ids))
		for _, id := range ids {
			path := registry.LogPath(id)
			size, modified := "-", "-"
			info, err := os.Stat(path)
			switch {
			case err == nil:
				size = humanSize(info.Size())
				modified = info.ModTime().Format(time.DateTime)
			case !errors.Is(err, os.ErrNotExist):
				size = "?"
			}
			marker := ""
			if id == cfg.Sites.DefaultSite {
				marker = "*"
			}
			rows = append(rows, []string{id + marker, path, size, modified})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"SITE", "LOG FILE", "SIZE", "MODIFIED"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		))
		return nil
	},
}
