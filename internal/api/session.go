package api

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/livp123/laratail/internal/filter"
	"github.com/livp123/laratail/internal/hub"
	"github.com/livp123/laratail/internal/model"
	laraerrors "github.com/livp123/laratail/pkg/errors"
)

type prefs struct {
	mode   string
	filter *filter.Filter
}

// session is one WebSocket connection. Writes are serialized; reads happen
// only in the connection's handler goroutine.
// session 表示一个 WebSocket 连接。写入是串行的，读取只发生在连接的处理 goroutine 中。
type session struct {
	key          string
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex
	closed  atomic.Bool
	prefs   atomic.Pointer[prefs]
}

func newSession(key string, conn *websocket.Conn, writeTimeout time.Duration) *session {
	s := &session{key: key, conn: conn, writeTimeout: writeTimeout}
	s.prefs.Store(&prefs{mode: ModeSingle})
	return s
}

func (s *session) send(msg Message) error {
	if s.closed.Load() {
		return laraerrors.ErrSessionClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteJSON(msg)
}

func (s *session) close() {
	if s.closed.CompareAndSwap(false, true) {
		_ = s.conn.Close()
	}
}

// sessionStore maps session keys to open sessions.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

func (st *sessionStore) add(s *session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.key] = s
}

func (st *sessionStore) get(key string) *session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[key]
}

func (st *sessionStore) remove(key string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, key)
}

func (st *sessionStore) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *sessionStore) closeAll() {
	st.mu.RLock()
	all := make([]*session, 0, len(st.sessions))
	for _, s := range st.sessions {
		all = append(all, s)
	}
	st.mu.RUnlock()
	for _, s := range all {
		s.close()
	}
}

// sessionSubscriber forwards tailer events to a session. It holds only the key:
// the session is resolved at delivery time, and a closed one makes delivery a no-op.
// sessionSubscriber 将 tailer 事件转发给会话。它只持有会话 key，
// 在投递时解析会话；已关闭的会话使投递成为空操作。
type sessionSubscriber struct {
	key   string
	site  string
	store *sessionStore
}

var _ hub.Subscriber = (*sessionSubscriber)(nil)

func (s *sessionSubscriber) SessionKey() string { return s.key }

func (s *sessionSubscriber) lookup() (*session, *prefs) {
	sess := s.store.get(s.key)
	if sess == nil || sess.closed.Load() {
		return nil, nil
	}
	return sess, sess.prefs.Load()
}

func (s *sessionSubscriber) OnNewEntry(entry model.LogEntry) error {
	sess, p := s.lookup()
	if sess == nil || p.mode != ModeSingle || !p.filter.Match(entry) {
		return nil
	}
	return sess.send(Message{Type: TypeUpdate, Mode: ModeSingle, Site: s.site, Data: entry})
}

func (s *sessionSubscriber) OnEntriesAdded(entries []model.LogEntry) error {
	sess, p := s.lookup()
	if sess == nil || p.mode != ModeBatch {
		return nil
	}
	matched := p.filter.Apply(entries)
	if len(matched) == 0 {
		return nil
	}
	return sess.send(Message{Type: TypeUpdate, Mode: ModeMultiple, Site: s.site, Data: matched})
}

func (s *sessionSubscriber) OnError(err error) error {
	sess, _ := s.lookup()
	if sess == nil {
		return nil
	}
	return sess.send(Message{Type: TypeWatch, Mode: WatchError, Site: s.site, Data: err.Error()})
}

func (s *sessionSubscriber) OnWatchStarted(path string) error {
	sess, _ := s.lookup()
	if sess == nil {
		return nil
	}
	return sess.send(Message{Type: TypeWatch, Mode: WatchStarted, Site: s.site, Data: path})
}

func (s *sessionSubscriber) OnWatchStopped() error {
	sess, _ := s.lookup()
	if sess == nil {
		return nil
	}
	return sess.send(Message{Type: TypeWatch, Mode: WatchStopped, Site: s.site})
}
