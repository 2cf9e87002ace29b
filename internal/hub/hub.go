package hub

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/livp123/laratail/internal/metrics"
	"github.com/livp123/laratail/internal/model"
	laraerrors "github.com/livp123/laratail/pkg/errors"
	"github.com/livp123/laratail/pkg/sdk"
)

// Registry holds the subscribers of one tailer and fans events out to them.
// The set is copy-on-write: notification iterates over the snapshot taken when it
// starts, so concurrent Add/Remove never disturb an in-flight delivery.
// Registry 保存一个 tailer 的订阅者并向其分发事件。
// 集合采用写时复制：通知遍历开始时的快照，并发的 Add/Remove 不会影响正在进行的投递。
type Registry struct {
	name   string
	logger sdk.Logger
	mu     sync.Mutex // serializes writers
	subs   atomic.Pointer[[]Subscriber]
}

// NewRegistry creates an empty registry. name labels logs and metrics.
func NewRegistry(name string, logger sdk.Logger) *Registry {
	r := &Registry{
		name:   name,
		logger: sdk.OrNop(logger),
	}
	r.subs.Store(&[]Subscriber{})
	return r
}

func (r *Registry) load() []Subscriber {
	return *r.subs.Load()
}

// Add registers a subscriber.
func (r *Registry) Add(s Subscriber) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next := append(slices.Clone(r.load()), s)
	r.subs.Store(&next)
	metrics.Subscribers.WithLabelValues(r.name).Set(float64(len(next)))
}

// Remove unregisters s. It reports whether s was registered.
func (r *Registry) Remove(s Subscriber) bool {
	return r.removeWhere(func(cur Subscriber) bool { return same(cur, s) }) > 0
}

// RemoveBySessionKey unregisters every subscriber owned by the session key.
// RemoveBySessionKey 移除该会话键拥有的所有订阅者。
func (r *Registry) RemoveBySessionKey(key string) int {
	return r.removeWhere(func(cur Subscriber) bool { return cur.SessionKey() == key })
}

func (r *Registry) removeWhere(match func(Subscriber) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.load()
	next := make([]Subscriber, 0, len(cur))
	for _, s := range cur {
		if !match(s) {
			next = append(next, s)
		}
	}
	removed := len(cur) - len(next)
	if removed > 0 {
		r.subs.Store(&next)
		metrics.Subscribers.WithLabelValues(r.name).Set(float64(len(next)))
	}
	return removed
}

// Len returns the number of registered subscribers.
func (r *Registry) Len() int {
	return len(r.load())
}

// Snapshot returns a copy of the current subscriber set.
func (r *Registry) Snapshot() []Subscriber {
	return slices.Clone(r.load())
}

// NotifyAll calls fn for every subscriber registered when the call starts, in
// registration order. Errors and panics are contained per subscriber.
// NotifyAll 按注册顺序为调用开始时的每个订阅者执行 fn，错误与 panic 按订阅者隔离。
func (r *Registry) NotifyAll(event string, fn func(Subscriber) error) {
	for _, s := range r.load() {
		r.deliver(event, s, fn)
	}
}

func (r *Registry) deliver(event string, s Subscriber, fn func(Subscriber) error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.fail(event, s, rec)
		}
	}()
	if err := fn(s); err != nil {
		r.fail(event, s, err)
	}
}

func (r *Registry) fail(event string, s Subscriber, reason interface{}) {
	metrics.SubscriberFailures.WithLabelValues(r.name, event).Inc()
	r.logger.Warnf("⚠️  [%s] %v", r.name, laraerrors.NewSubscriberError(sessionKey(s), event, reason))
}

func sessionKey(s Subscriber) (key string) {
	defer func() {
		if recover() != nil {
			key = "<unknown>"
		}
	}()
	return s.SessionKey()
}

// NotifyEntries delivers one batch: OnEntriesAdded to everyone, then OnNewEntry
// per entry in order.
// NotifyEntries 投递一个批次：先向所有订阅者发送 OnEntriesAdded，再按顺序逐条发送 OnNewEntry。
func (r *Registry) NotifyEntries(entries []model.LogEntry) {
	if len(entries) == 0 {
		return
	}
	r.NotifyAll(EventEntriesAdded, func(s Subscriber) error {
		return s.OnEntriesAdded(entries)
	})
	for _, entry := range entries {
		r.NotifyAll(EventEntryAdded, func(s Subscriber) error {
			return s.OnNewEntry(entry)
		})
	}
}

func (r *Registry) NotifyError(err error) {
	r.NotifyAll(EventWatchError, func(s Subscriber) error {
		return s.OnError(err)
	})
}

func (r *Registry) NotifyStarted(path string) {
	r.NotifyAll(EventWatchStarted, func(s Subscriber) error {
		return s.OnWatchStarted(path)
	})
}

func (r *Registry) NotifyStopped() {
	r.NotifyAll(EventWatchStopped, func(s Subscriber) error {
		return s.OnWatchStopped()
	})
}

// same compares subscribers by identity. Values of non-comparable dynamic types
// never match instead of panicking.
func same(a, b Subscriber) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
