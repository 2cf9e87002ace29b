package tailer

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/livp123/laratail/internal/metrics"
	laraerrors "github.com/livp123/laratail/pkg/errors"
)

// Trigger sources.
const (
	TriggerNotify = "fsnotify"
	TriggerPoll   = "poll"
)

// drain forwards OS change notifications for the tailed file to trigger.
// The watcher is registered on the parent directory, so events for sibling
// files are filtered out by name.
func (t *Tailer) drain(r *run) {
	defer r.wg.Done()

	for {
		select {
		case <-r.stop:
			return
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != t.base || ev.Op == fsnotify.Chmod {
				continue
			}
			t.trigger(TriggerNotify)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// The poll tick catches whatever was missed.
				t.logger.Debugf("[%s] fsnotify overflow, relying on poll", t.opts.Name)
				continue
			}
			t.reportError(laraerrors.NewWatchError(t.path, "notify", err))
		}
	}
}

// tick runs the fallback check every PollInterval and flushes idle pending entries.
func (t *Tailer) tick(r *run) {
	defer r.wg.Done()

	ticker := time.NewTicker(t.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			t.trigger(TriggerPoll)
			if t.IsRunning() {
				t.flushIdle(now)
			}
		}
	}
}

// trigger runs a check unless one is already waiting for the lock, in which
// case that queued check will observe the same change.
// trigger 执行一次检查；若已有检查在等待锁，则丢弃本次触发，由排队的检查处理同一变化。
func (t *Tailer) trigger(source string) {
	if !t.IsRunning() {
		return
	}
	if !t.queued.CompareAndSwap(false, true) {
		metrics.ChecksCoalesced.WithLabelValues(t.opts.Name).Inc()
		return
	}

	t.mu.Lock()
	t.queued.Store(false)
	if !t.IsRunning() {
		t.mu.Unlock()
		return
	}
	metrics.Checks.WithLabelValues(t.opts.Name, source).Inc()
	_, err := t.check()
	t.mu.Unlock()

	if err != nil {
		t.reportError(err)
	}
}
