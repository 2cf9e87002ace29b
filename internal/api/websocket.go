package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/livp123/laratail/internal/filter"
	"github.com/livp123/laratail/internal/metrics"
)

// handleSocket upgrades to WebSocket and streams the entries of the session's site.
// The session starts on the default site and moves when the client sends a ClientMessage.
// handleSocket 升级为 WebSocket 并推送会话所在站点的条目。
// 会话从默认站点开始，客户端发送 ClientMessage 时切换站点。
func (s *Server) handleSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warnf("⚠️  WebSocket upgrade failed: %v", err)
		return
	}

	sess := newSession(uuid.NewString(), conn, s.opts.WriteTimeout)
	s.sessions.add(sess)
	metrics.WebSocketSessions.Inc()
	s.logger.Infof("🔌 Session %s connected from %s", sess.key, c.Request.RemoteAddr)

	defer func() {
		removed := s.registry.UnsubscribeBySessionKey(sess.key)
		s.sessions.remove(sess.key)
		sess.close()
		metrics.WebSocketSessions.Dec()
		s.logger.Infof("🔌 Session %s closed (%d subscriptions removed)", sess.key, removed)
	}()

	if s.opts.DefaultSite != "" {
		s.subscribe(sess, s.opts.DefaultSite, sess.prefs.Load())
	}

	stopPing := make(chan struct{})
	defer close(stopPing)
	go s.ping(sess, stopPing)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debugf("[WS] Session %s read error: %v", sess.key, err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		s.handleClientMessage(sess, data)
	}
}

func (s *Server) handleClientMessage(sess *session, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		_ = sess.send(Message{Type: TypeError, Data: "invalid message: " + err.Error()})
		return
	}

	current := sess.prefs.Load()
	next := &prefs{mode: current.mode, filter: current.filter}
	if msg.Mode != nil {
		switch mode := strings.ToLower(strings.TrimSpace(*msg.Mode)); mode {
		case "", ModeSingle:
			next.mode = ModeSingle
		case ModeBatch, ModeMultiple:
			next.mode = ModeBatch
		default:
			_ = sess.send(Message{Type: TypeError, Data: "unknown mode: " + mode})
			return
		}
	}
	if msg.Filter != nil {
		f, err := filter.Compile(*msg.Filter)
		if err != nil {
			_ = sess.send(Message{Type: TypeError, Data: err.Error()})
			return
		}
		next.filter = f
	}

	site := strings.TrimSpace(msg.Site)
	if site == "" {
		site, _ = s.registry.SessionSite(sess.key)
	}
	if site == "" {
		_ = sess.send(Message{Type: TypeError, Data: "no site selected"})
		return
	}
	s.logger.Infof("📡 Session %s selected site %s", sess.key, site)
	s.subscribe(sess, site, next)
}

// subscribe moves the session to siteID and sends it the filtered snapshot.
// p becomes the session's preferences only once the move succeeded.
func (s *Server) subscribe(sess *session, siteID string, p *prefs) {
	sub := &sessionSubscriber{key: sess.key, site: siteID, store: s.sessions}
	stats, err := s.registry.Subscribe(siteID, sub)
	if err != nil {
		s.logger.Warnf("⚠️  Session %s failed to subscribe to %s: %v", sess.key, siteID, err)
		_ = sess.send(Message{Type: TypeError, Site: siteID, Data: err.Error()})
		return
	}
	sess.prefs.Store(p)
	if err := sess.send(Message{Type: TypeSnapshot, Site: siteID, Data: applyFilter(stats, p.filter)}); err != nil {
		s.logger.Warnf("⚠️  Failed to send snapshot to session %s: %v", sess.key, err)
	}
}

func (s *Server) ping(sess *session, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.opts.WriteTimeout)
			if err := sess.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
