// Package rawtail follows a file line by line without parsing it.
// It backs the `raw` command, where lines are shown exactly as written.
// rawtail 包逐行跟踪文件而不做解析，用于 `raw` 命令。
package rawtail

import (
	"context"
	"io"
	"time"

	"github.com/livp123/laratail/pkg/sdk"
	"github.com/nxadm/tail"
)

// Line is one raw line read from the followed file.
type Line struct {
	Text   string
	Time   time.Time
	Offset int64
}

// Options controls where following starts and how changes are detected.
// Options 控制跟踪起始位置以及变化检测方式。
type Options struct {
	FromStart bool // replay existing content instead of starting at the end
	Poll      bool // poll instead of inotify, for network filesystems
	Logger    sdk.Logger
}

// Follow streams lines of path to fn until ctx is canceled.
// Rotation and truncation reopen the file; a missing file is waited for.
// Follow 将 path 的行流式传给 fn，直到 ctx 取消。轮转和截断会重新打开文件；缺失的文件会被等待。
func Follow(ctx context.Context, path string, opts Options, fn func(Line)) error {
	logger := sdk.OrNop(opts.Logger)

	config := tail.Config{
		Follow:    true,
		ReOpen:    true, // Handle log rotation
		MustExist: false,
		Poll:      opts.Poll,
		Logger:    tail.DiscardingLogger,
	}
	if !opts.FromStart {
		config.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	tailer, err := tail.TailFile(path, config)
	if err != nil {
		logger.Errorf("❌ Failed to tail file %s: %v", path, err)
		return err
	}
	defer tailer.Cleanup()

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = tailer.Stop()
		case <-stopped:
		}
	}()
	defer close(stopped)

	for line := range tailer.Lines {
		if line.Err != nil {
			logger.Warnf("⚠️  Error reading %s: %v", path, line.Err)
			continue
		}
		fn(Line{Text: line.Text, Time: line.Time, Offset: line.SeekInfo.Offset})
	}

	if ctx.Err() != nil {
		return nil
	}
	return tailer.Err()
}
