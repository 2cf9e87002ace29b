package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/livp123/laratail/internal/rawtail"
	"github.com/livp123/laratail/internal/utils/logger"
	"github.com/spf13/cobra"
)

var rawFlags struct {
	file      string
	fromStart bool
	poll      bool
}

var rawCmd = &cobra.Command{
	Use:   "raw [site]",
	Short: "Follow raw lines of a site log",
	// Short: 跟踪站点日志的原始行
	Long: `Print lines exactly as they are written, without parsing, like tail -F.
按原样打印写入的行，不做解析，类似 tail -F。`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, path, err := resolveLogPath(currentConfig(), args, rawFlags.file)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		return rawtail.Follow(ctx, path, rawtail.Options{
			FromStart: rawFlags.fromStart,
			Poll:      rawFlags.poll,
			Logger:    logger.Get(ctx),
		}, func(line rawtail.Line) {
			fmt.Fprintln(out, line.Text)
		})
	},
}

func init() {
	rawCmd.Flags().StringVarP(&rawFlags.file, "file", "f", "", "Follow this file instead of a site log")
	rawCmd.Flags().BoolVar(&rawFlags.fromStart, "from-start", false, "Print existing content first")
	rawCmd.Flags().BoolVar(&rawFlags.poll, "poll", false, "Poll for changes instead of using inotify")
}
