package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/livp123/laratail/internal/sites"
	"github.com/livp123/laratail/pkg/sdk"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultWriteTimeout = 10 * time.Second
	shutdownTimeout     = 5 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = pongWait * 9 / 10
	maxMessageSize      = 64 << 10
)

// Options configures the HTTP/WebSocket server.
// Options 配置 HTTP/WebSocket 服务。
type Options struct {
	Listen       string
	DefaultSite  string
	WriteTimeout time.Duration
	// AllowedOrigins lists accepted WebSocket origins; "*" accepts any.
	// Empty means same-origin only.
	AllowedOrigins []string
	MetricsEnabled bool
	MetricsPath    string
}

// Server serves the REST API, the live WebSocket feed and the metrics endpoint.
// Server 提供 REST API、实时 WebSocket 推送和指标端点。
type Server struct {
	opts     Options
	registry *sites.Registry
	logger   sdk.Logger
	engine   *gin.Engine
	upgrader websocket.Upgrader
	sessions *sessionStore

	mu     sync.Mutex
	server *http.Server
}

// New builds the gin engine and its routes.
// New 构建 gin 引擎及其路由。
func New(registry *sites.Registry, opts Options, logger sdk.Logger) *Server {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		opts:     opts,
		registry: registry,
		logger:   sdk.OrNop(logger),
		engine:   engine,
		sessions: newSessionStore(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	engine.Use(s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api", corsAnyOrigin())
	api.GET("/sites", s.handleSites)
	api.GET("/sites/:site/stats", s.handleStats)
	api.GET("/tailers", s.handleTailers)
	api.GET("/lara-sock", s.handleSocket)

	if s.opts.MetricsEnabled {
		s.engine.GET(s.opts.MetricsPath, gin.WrapH(promhttp.Handler()))
	}
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Sessions returns the number of open WebSocket sessions.
func (s *Server) Sessions() int { return s.sessions.len() }

// Start listens on Options.Listen and serves in the background.
// Start 监听 Options.Listen 并在后台提供服务。
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	go func() {
		s.logger.Infof("🚀 Web server listening on http://%s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("❌ Web server error: %v", err)
		}
	}()
	return nil
}

// Stop shuts the server down and closes every WebSocket session.
// Stop 关闭服务并断开所有 WebSocket 会话。
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()

	// Hijacked WebSocket connections are not closed by Shutdown.
	s.sessions.closeAll()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.opts.AllowedOrigins) == 0 {
		return sameOrigin(r, origin)
	}
	return slices.Contains(s.opts.AllowedOrigins, "*") || slices.Contains(s.opts.AllowedOrigins, origin)
}

func sameOrigin(r *http.Request, origin string) bool {
	for _, scheme := range []string{"http://", "https://"} {
		if origin == scheme+r.Host {
			return true
		}
	}
	return false
}

func corsAnyOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debugf("[HTTP] %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
