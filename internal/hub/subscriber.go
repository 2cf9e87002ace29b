package hub

import "github.com/livp123/laratail/internal/model"

// Event names used in logs and metrics.
const (
	EventEntryAdded   = "entry_added"
	EventEntriesAdded = "entries_added"
	EventWatchError   = "watch_error"
	EventWatchStarted = "watch_started"
	EventWatchStopped = "watch_stopped"
)

// Subscriber receives the events produced by one tailer.
// A returned error is logged and counted; it never stops delivery to other subscribers.
// Subscriber 接收一个 tailer 产生的事件。
// 返回的错误会被记录和计数，但不会阻止向其他订阅者投递。
type Subscriber interface {
	// SessionKey identifies the owning session for later removal.
	// SessionKey 标识所属会话，用于之后的移除。
	SessionKey() string
	OnNewEntry(entry model.LogEntry) error
	// OnEntriesAdded receives a whole batch. The slice is shared and must not be modified.
	// OnEntriesAdded 接收整批条目。该切片是共享的，不得修改。
	OnEntriesAdded(entries []model.LogEntry) error
	OnError(err error) error
	OnWatchStarted(path string) error
	OnWatchStopped() error
}

// Listener is a Subscriber built from optional callbacks. Nil callbacks are no-ops.
// Listener 是由可选回调构成的订阅者。nil 回调不执行任何操作。
type Listener struct {
	Key          string
	NewEntry     func(entry model.LogEntry) error
	EntriesAdded func(entries []model.LogEntry) error
	Error        func(err error) error
	WatchStarted func(path string) error
	WatchStopped func() error
}

var _ Subscriber = (*Listener)(nil)

func (l *Listener) SessionKey() string { return l.Key }

func (l *Listener) OnNewEntry(entry model.LogEntry) error {
	if l.NewEntry == nil {
		return nil
	}
	return l.NewEntry(entry)
}

func (l *Listener) OnEntriesAdded(entries []model.LogEntry) error {
	if l.EntriesAdded == nil {
		return nil
	}
	return l.EntriesAdded(entries)
}

func (l *Listener) OnError(err error) error {
	if l.Error == nil {
		return nil
	}
	return l.Error(err)
}

func (l *Listener) OnWatchStarted(path string) error {
	if l.WatchStarted == nil {
		return nil
	}
	return l.WatchStarted(path)
}

func (l *Listener) OnWatchStopped() error {
	if l.WatchStopped == nil {
		return nil
	}
	return l.WatchStopped()
}
