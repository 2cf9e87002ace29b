package tailer

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/livp123/laratail/internal/hub"
	"github.com/livp123/laratail/internal/metrics"
	"github.com/livp123/laratail/internal/model"
	"github.com/livp123/laratail/internal/parser"
	laraerrors "github.com/livp123/laratail/pkg/errors"
	"github.com/livp123/laratail/pkg/sdk"
)

// Tailer owns the read cursor of one log file. It turns appended bytes into
// entries and delivers them to its subscribers.
// Tailer 持有一个日志文件的读取游标，将新追加的字节转换为条目并投递给订阅者。
type Tailer struct {
	path   string
	base   string
	opts   Options
	logger sdk.Logger
	subs   *hub.Registry

	// mu guards the read state and orders delivery.
	mu         sync.Mutex
	offset     int64
	pending    string
	pendingAt  time.Time
	flushTimer *time.Timer

	queued atomic.Bool
	state  atomic.Int32

	lifeMu sync.Mutex // serializes Start and Stop
	run    *run
}

// run holds the resources of one Start/Stop cycle.
type run struct {
	watcher *fsnotify.Watcher
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New attaches a Tailer to path. Nothing is read until Start or Check.
// New 将 Tailer 关联到 path。在 Start 或 Check 之前不会读取任何内容。
func New(path string, opts Options, logger sdk.Logger) *Tailer {
	opts = opts.withDefaults(path)
	logger = sdk.OrNop(logger)
	return &Tailer{
		path:   path,
		base:   filepath.Base(path),
		opts:   opts,
		logger: logger,
		subs:   hub.NewRegistry(opts.Name, logger),
	}
}

// Path returns the tailed file path.
func (t *Tailer) Path() string { return t.path }

// Name returns the label given in Options.
func (t *Tailer) Name() string { return t.opts.Name }

// State returns the current lifecycle state.
func (t *Tailer) State() State { return State(t.state.Load()) }

func (t *Tailer) setState(s State) { t.state.Store(int32(s)) }

// IsRunning reports whether the tailer is watching its file.
func (t *Tailer) IsRunning() bool { return t.State() == StateWatching }

// CurrentOffset returns the byte offset up to which the file has been read.
func (t *Tailer) CurrentOffset() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offset
}

// Pending returns the raw text buffered for the next read.
func (t *Tailer) Pending() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Subscribers returns the registry notified by this tailer.
func (t *Tailer) Subscribers() *hub.Registry { return t.subs }

func (t *Tailer) AddSubscriber(s hub.Subscriber) { t.subs.Add(s) }

func (t *Tailer) RemoveSubscriber(s hub.Subscriber) bool { return t.subs.Remove(s) }

func (t *Tailer) RemoveBySessionKey(key string) int { return t.subs.RemoveBySessionKey(key) }

// Start creates the parent directory if needed, skips existing content, and begins
// watching. Calling Start on a running tailer does nothing.
// Start 在需要时创建父目录，跳过已有内容并开始监听。对运行中的 tailer 调用无效果。
func (t *Tailer) Start() error {
	t.lifeMu.Lock()
	defer t.lifeMu.Unlock()

	if t.State() != StateStopped {
		return nil
	}
	t.setState(StateStarting)

	r, err := t.prepare()
	if err != nil {
		t.setState(StateStopped)
		metrics.WatchErrors.WithLabelValues(t.opts.Name).Inc()
		return err
	}

	t.run = r
	t.setState(StateWatching)
	r.wg.Add(2)
	go t.drain(r)
	go t.tick(r)

	metrics.ActiveTailers.Inc()
	t.logger.Infof("👀 [%s] Watching %s from offset %d", t.opts.Name, t.path, t.CurrentOffset())
	t.subs.NotifyStarted(t.path)
	return nil
}

func (t *Tailer) prepare() (*run, error) {
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, laraerrors.NewWatchError(dir, "mkdir", err)
	}
	if err := t.seekEnd(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, laraerrors.NewWatchError(t.path, "watch", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, laraerrors.NewWatchError(dir, "add", err)
	}
	return &run{watcher: w, stop: make(chan struct{})}, nil
}

// seekEnd positions the cursor at the current end of file so history is not re-delivered.
func (t *Tailer) seekEnd() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.offset = 0
	t.pending = ""
	info, err := os.Stat(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return laraerrors.NewWatchError(t.path, "stat", err)
	}
	t.offset = info.Size()
	return nil
}

// Stop releases the watcher, stops the fallback tick and waits (bounded) for
// in-flight checks. Safe to call more than once and from any goroutine.
// Stop 释放监听器、停止兜底定时器并有限等待进行中的检查。可多次调用，且可在任意 goroutine 中调用。
func (t *Tailer) Stop() {
	t.lifeMu.Lock()
	defer t.lifeMu.Unlock()

	if t.State() != StateWatching {
		return
	}
	t.setState(StateStopping)

	r := t.run
	t.run = nil
	close(r.stop)
	if err := r.watcher.Close(); err != nil {
		t.logger.Warnf("⚠️  [%s] Failed to close watcher: %v", t.opts.Name, err)
	}
	if waitTimeout(&r.wg, t.opts.StopTimeout) {
		t.flushOnStop()
	} else {
		t.logger.Warnf("⚠️  [%s] %v: checks still running after %s", t.opts.Name, laraerrors.ErrTimeout, t.opts.StopTimeout)
	}

	t.setState(StateStopped)
	metrics.ActiveTailers.Dec()
	t.logger.Infof("🛑 [%s] Stopped watching %s", t.opts.Name, t.path)
	t.subs.NotifyStopped()
}

// flushOnStop delivers a complete pending entry before subscribers see the stop.
func (t *Tailer) flushOnStop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.flushTimer != nil {
		t.flushTimer.Stop()
	}
	if n := t.flush(); n > 0 {
		t.logger.Debugf("[%s] Flushed %d pending entries on stop", t.opts.Name, n)
	}
}

func waitTimeout(wg *sync.WaitGroup, d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}

// Check processes a file change: it reads newly appended bytes, handles
// truncation and delivers the complete entries. It returns the number of entries
// delivered. Redundant or concurrent calls are safe.
// Check 处理一次文件变化：读取新追加的字节、处理截断并投递完整条目，返回投递的条目数。
func (t *Tailer) Check() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.check()
}

// check must be called with t.mu held. On truncation the complete pending entry
// of the old content is delivered before the cursor resets.
func (t *Tailer) check() (int, error) {
	info, err := os.Stat(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, laraerrors.NewReadError(t.path, t.offset, err)
	}

	size := info.Size()
	switch {
	case size == t.offset:
		return 0, nil
	case size < t.offset:
		t.logger.Infof("🔄 [%s] Log rotation detected for %s (size %d < offset %d). Resetting to start.",
			t.opts.Name, t.path, size, t.offset)
		metrics.Rotations.WithLabelValues(t.opts.Name).Inc()
		flushed := t.flush()
		t.offset = 0
		t.pending = ""
		n, err := t.readTo(size)
		return flushed + n, err
	}
	return t.readTo(size)
}

func (t *Tailer) readTo(size int64) (int, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return 0, laraerrors.NewReadError(t.path, t.offset, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.NewSectionReader(f, t.offset, size-t.offset))
	if err != nil {
		return 0, laraerrors.NewReadError(t.path, t.offset, err)
	}
	if len(data) == 0 {
		return 0, nil
	}
	t.offset += int64(len(data))
	metrics.BytesRead.WithLabelValues(t.opts.Name).Add(float64(len(data)))

	entries, rest := parser.ParseChunk(t.pending + string(data))
	t.pending = rest
	t.pendingAt = time.Now()

	if len(t.pending) > t.opts.MaxPending {
		t.logger.Warnf("⚠️  [%s] Pending entry exceeds %d bytes, flushing it", t.opts.Name, t.opts.MaxPending)
		entries = append(entries, parser.Finalize(t.pending)...)
		t.pending = ""
	}

	t.deliver(entries)
	t.armFlush()
	return len(entries), nil
}

// Flush delivers the pending entry when its text ends on a line boundary.
// It returns the number of entries delivered.
// Flush 在待定条目以完整行结束时投递它，返回投递的条目数。
func (t *Tailer) Flush() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flush()
}

func (t *Tailer) flush() int {
	if t.pending == "" || !strings.HasSuffix(t.pending, "\n") {
		return 0
	}
	entries := parser.Finalize(t.pending)
	t.pending = ""
	t.deliver(entries)
	return len(entries)
}

// flushIdle flushes a pending entry that has not changed for FlushAfter.
func (t *Tailer) flushIdle(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.IsRunning() {
		return
	}
	if t.pending != "" && now.Sub(t.pendingAt) >= t.opts.FlushAfter {
		t.flush()
	}
}

// armFlush schedules an idle flush FlushAfter from now when the pending entry
// ends on a line boundary, so the newest entry does not wait for the next tick.
// Must be called with t.mu held.
func (t *Tailer) armFlush() {
	if !t.IsRunning() || !strings.HasSuffix(t.pending, "\n") {
		return
	}
	if t.flushTimer == nil {
		t.flushTimer = time.AfterFunc(t.opts.FlushAfter, func() { t.flushIdle(time.Now()) })
		return
	}
	t.flushTimer.Reset(t.opts.FlushAfter)
}

// deliver must be called with t.mu held so batches reach subscribers in file order.
func (t *Tailer) deliver(entries []model.LogEntry) {
	if len(entries) == 0 {
		return
	}
	metrics.EntriesParsed.WithLabelValues(t.opts.Name).Add(float64(len(entries)))
	t.subs.NotifyEntries(entries)
}

func (t *Tailer) reportError(err error) {
	metrics.WatchErrors.WithLabelValues(t.opts.Name).Inc()
	t.logger.Errorf("❌ [%s] %v", t.opts.Name, err)
	t.subs.NotifyError(err)
}
