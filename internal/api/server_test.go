package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/livp123/laratail/internal/model"
	"github.com/livp123/laratail/internal/sites"
	"github.com/livp123/laratail/internal/tailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireMessage struct {
	Type string          `json:"type"`
	Mode string          `json:"mode"`
	Site string          `json:"site"`
	Data json.RawMessage `json:"data"`
}

type testEnv struct {
	base     string
	registry *sites.Registry
	server   *Server
	http     *httptest.Server
}

func header(sec int, level, msg string) string {
	return fmt.Sprintf("[2024-01-01 00:00:%02d] local.%s: %s\n", sec, level, msg)
}

func appendLog(t *testing.T, base, site, content string) {
	t.Helper()
	dir := filepath.Join(base, site)
	require.NoError(t, os.MkdirAll(dir, 0755))
	f, err := os.OpenFile(filepath.Join(dir, "laravel.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	base := t.TempDir()
	appendLog(t, base, "shop", header(1, "ERROR", "payment failed")+header(2, "INFO", "order placed"))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "blog"), 0755))

	registry := sites.New(sites.Config{
		BaseDir:       base,
		LogFileName:   "laravel.log",
		RetainMissing: true,
		Tailer: tailer.Options{
			PollInterval: 50 * time.Millisecond,
			FlushAfter:   100 * time.Millisecond,
			StopTimeout:  time.Second,
		},
	}, nil)

	srv := New(registry, Options{DefaultSite: "shop", MetricsEnabled: true}, nil)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		_ = srv.Stop()
		hs.Close()
		registry.StopAll()
	})
	return &testEnv{base: base, registry: registry, server: srv, http: hs}
}

func (e *testEnv) get(t *testing.T, path string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(e.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(e.http.URL, "http") + "/api/lara-sock"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHandleSites(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.get(t, "/api/sites")
	assert.Equal(t, http.StatusOK, status)

	var resp Response[[]string]
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "Available sites", resp.Message)
	assert.Equal(t, []string{"blog", "shop"}, resp.Data)
	_, err := time.Parse(time.DateTime, resp.Timestamp)
	assert.NoError(t, err)
}

func TestHandleStats(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.get(t, "/api/sites/shop/stats")
	require.Equal(t, http.StatusOK, status)
	var resp Response[model.Stats]
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, 2, resp.Data.TotalCount)
	assert.Equal(t, 1, resp.Data.ErrorsCount)

	status, body = env.get(t, "/api/sites/shop/stats?filter="+url.QueryEscape(`IsLevel("error")`))
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, 1, resp.Data.TotalCount)
	require.Len(t, resp.Data.Logs, 1)
	assert.Equal(t, "payment failed", resp.Data.Logs[0].Message)

	status, _ = env.get(t, "/api/sites/shop/stats?filter="+url.QueryEscape(`Level ==`))
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.get(t, "/api/sites/blog/stats")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, 0, resp.Data.TotalCount)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"status":"ok"`)

	status, body = env.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "laratail_websocket_sessions")
}

func TestSocket_SnapshotThenUpdates(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)

	snap := readMessage(t, conn)
	assert.Equal(t, TypeSnapshot, snap.Type)
	assert.Equal(t, "shop", snap.Site)
	var stats model.Stats
	require.NoError(t, json.Unmarshal(snap.Data, &stats))
	assert.Equal(t, 2, stats.TotalCount)

	appendLog(t, env.base, "shop", header(3, "WARNING", "stock low")+header(4, "INFO", "restocked"))

	for _, want := range []string{"stock low", "restocked"} {
		msg := readMessage(t, conn)
		assert.Equal(t, TypeUpdate, msg.Type)
		assert.Equal(t, ModeSingle, msg.Mode)
		var entry model.LogEntry
		require.NoError(t, json.Unmarshal(msg.Data, &entry))
		assert.Equal(t, want, entry.Message)
	}

	tl, ok := env.registry.Tailer("shop")
	require.True(t, ok)
	assert.Equal(t, 1, tl.Subscribers().Len())
	assert.Equal(t, 1, env.server.Sessions())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool {
		return tl.Subscribers().Len() == 0 && env.server.Sessions() == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSocket_SwitchSiteBatchAndFilter(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)
	require.Equal(t, TypeSnapshot, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"site":   "blog",
		"mode":   "batch",
		"filter": `IsLevel("error")`,
	}))
	snap := readMessage(t, conn)
	assert.Equal(t, TypeSnapshot, snap.Type)
	assert.Equal(t, "blog", snap.Site)

	shop, _ := env.registry.Tailer("shop")
	blog, _ := env.registry.Tailer("blog")
	assert.Equal(t, 0, shop.Subscribers().Len())
	assert.Equal(t, 1, blog.Subscribers().Len())

	appendLog(t, env.base, "blog",
		header(1, "ERROR", "first")+header(2, "INFO", "skipped")+header(3, "ERROR", "second"))

	var got []string
	for len(got) < 2 {
		msg := readMessage(t, conn)
		require.Equal(t, TypeUpdate, msg.Type)
		require.Equal(t, ModeMultiple, msg.Mode)
		var entries []model.LogEntry
		require.NoError(t, json.Unmarshal(msg.Data, &entries))
		for _, e := range entries {
			assert.Equal(t, "ERROR", e.Level)
			got = append(got, e.Message)
		}
	}
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestSocket_RejectsBadMessages(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)
	require.Equal(t, TypeSnapshot, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, TypeError, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"site": ".."}))
	assert.Equal(t, TypeError, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"mode": "sometimes"}))
	assert.Equal(t, TypeError, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"filter": "Level =="}))
	assert.Equal(t, TypeError, readMessage(t, conn).Type)

	// The session stays on its site
	// 会话仍停留在原站点
	shop, _ := env.registry.Tailer("shop")
	assert.Equal(t, 1, shop.Subscribers().Len())
}

// A move that fails leaves the session's mode and filter untouched.
func TestSocket_FailedMoveKeepsPreferences(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)
	require.Equal(t, TypeSnapshot, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"site":   "..",
		"mode":   "batch",
		"filter": `IsLevel("error")`,
	}))
	assert.Equal(t, TypeError, readMessage(t, conn).Type)

	appendLog(t, env.base, "shop", header(3, "INFO", "still single")+header(4, "INFO", "next"))

	msg := readMessage(t, conn)
	assert.Equal(t, TypeUpdate, msg.Type)
	assert.Equal(t, ModeSingle, msg.Mode)
	var entry model.LogEntry
	require.NoError(t, json.Unmarshal(msg.Data, &entry))
	assert.Equal(t, "still single", entry.Message)
}

func TestSessionSubscriber_ClosedSessionIsNoop(t *testing.T) {
	sub := &sessionSubscriber{key: "gone", site: "shop", store: newSessionStore()}
	entry := model.NewLogEntry(time.Now(), "local", "ERROR", "x")

	assert.NoError(t, sub.OnNewEntry(entry))
	assert.NoError(t, sub.OnEntriesAdded([]model.LogEntry{entry}))
	assert.NoError(t, sub.OnError(assert.AnError))
	assert.NoError(t, sub.OnWatchStarted("/tmp/x"))
	assert.NoError(t, sub.OnWatchStopped())
	assert.Equal(t, "gone", sub.SessionKey())
}

func TestCheckOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://laratail.local/api/lara-sock", nil)

	s := &Server{}
	assert.True(t, s.checkOrigin(req), "no origin header")

	req.Header.Set("Origin", "http://laratail.local")
	assert.True(t, s.checkOrigin(req))
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, s.checkOrigin(req))

	s.opts.AllowedOrigins = []string{"https://evil.example"}
	assert.True(t, s.checkOrigin(req))
	s.opts.AllowedOrigins = []string{"*"}
	req.Header.Set("Origin", "https://any.example")
	assert.True(t, s.checkOrigin(req))
}
