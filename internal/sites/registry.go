// Package sites maps site identifiers to their log tailers and tracks which
// site each session is subscribed to.
// sites 包将站点标识映射到其日志 tailer，并记录每个会话订阅的站点。
package sites

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/livp123/laratail/internal/hub"
	"github.com/livp123/laratail/internal/model"
	"github.com/livp123/laratail/internal/parser"
	"github.com/livp123/laratail/internal/tailer"
	laraerrors "github.com/livp123/laratail/pkg/errors"
	"github.com/livp123/laratail/pkg/sdk"
)

// Config locates site logs and tunes their tailers.
// Config 定位站点日志并调整其 tailer。
type Config struct {
	BaseDir     string
	LogFileName string
	// Pattern filters Available, doublestar syntax. Empty means "*".
	Pattern string
	// RetainMissing keeps tailers whose site directory has been removed.
	RetainMissing bool
	Tailer        tailer.Options
}

// Registry owns one tailer per site. Tailers are created lazily and live until
// StopAll, or until Prune removes them when RetainMissing is false.
// Registry 为每个站点持有一个 tailer。tailer 按需创建，存活到 StopAll，
// 或在 RetainMissing 为假时被 Prune 移除。
type Registry struct {
	cfg    Config
	logger sdk.Logger

	mu       sync.Mutex
	tailers  map[string]*tailer.Tailer
	sessions map[string]string // session key -> site id
}

// New creates an empty registry.
// New 创建空注册表。
func New(cfg Config, logger sdk.Logger) *Registry {
	if cfg.Pattern == "" {
		cfg.Pattern = "*"
	}
	return &Registry{
		cfg:      cfg,
		logger:   sdk.OrNop(logger),
		tailers:  make(map[string]*tailer.Tailer),
		sessions: make(map[string]string),
	}
}

// LogPath returns the log file of a site.
func (r *Registry) LogPath(siteID string) string {
	return filepath.Join(r.cfg.BaseDir, siteID, r.cfg.LogFileName)
}

// GetOrCreate returns the tailer of siteID, creating and starting it on first use.
// A tailer that failed to start, or was stopped, is started again.
// GetOrCreate 返回 siteID 的 tailer，首次使用时创建并启动。启动失败或已停止的 tailer 会被重新启动。
func (r *Registry) GetOrCreate(siteID string) (*tailer.Tailer, error) {
	if err := model.ValidateSiteID(siteID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	t, ok := r.tailers[siteID]
	if !ok {
		opts := r.cfg.Tailer
		opts.Name = siteID
		t = tailer.New(r.LogPath(siteID), opts, r.logger)
		r.tailers[siteID] = t
		r.logger.Infof("🆕 [%s] Registered site tailer for %s", siteID, t.Path())
	}
	r.mu.Unlock()

	// Start outside the registry lock so a slow site does not block others.
	if err := t.Start(); err != nil {
		r.logger.Errorf("❌ [%s] Failed to start tailer: %v", siteID, err)
		return t, err
	}

	// A Prune running while the lock was released may have dropped t.
	r.mu.Lock()
	current := r.tailers[siteID] == t
	r.mu.Unlock()
	if !current {
		t.Stop()
		r.logger.Debugf("[%s] Tailer pruned while starting, registering a new one", siteID)
		return r.GetOrCreate(siteID)
	}
	return t, nil
}

// Tailer returns the tailer of siteID if one exists.
func (r *Registry) Tailer(siteID string) (*tailer.Tailer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tailers[siteID]
	return t, ok
}

// Subscribe moves the subscriber's session to siteID and returns the site snapshot.
// Any subscription the session held elsewhere, or on the same site, is dropped first.
// Subscribe 将订阅者的会话移动到 siteID 并返回站点快照。会话在其他站点或同一站点的旧订阅会先被移除。
func (r *Registry) Subscribe(siteID string, sub hub.Subscriber) (model.Stats, error) {
	t, err := r.GetOrCreate(siteID)
	if err != nil {
		return model.Stats{}, err
	}

	key := sub.SessionKey()
	if key != "" {
		r.mu.Lock()
		prev, had := r.sessions[key]
		r.sessions[key] = siteID
		var old *tailer.Tailer
		if had {
			old = r.tailers[prev]
		}
		r.mu.Unlock()

		if old != nil {
			if n := old.RemoveBySessionKey(key); n > 0 && prev != siteID {
				r.logger.Debugf("[%s] Session %s moved to %s", prev, key, siteID)
			}
		}
	}

	t.AddSubscriber(sub)
	return r.Snapshot(siteID)
}

// UnsubscribeBySessionKey removes every subscriber owned by key, on every site.
// UnsubscribeBySessionKey 在所有站点上移除 key 拥有的全部订阅者。
func (r *Registry) UnsubscribeBySessionKey(key string) int {
	r.mu.Lock()
	delete(r.sessions, key)
	tailers := make([]*tailer.Tailer, 0, len(r.tailers))
	for _, t := range r.tailers {
		tailers = append(tailers, t)
	}
	r.mu.Unlock()

	removed := 0
	for _, t := range tailers {
		removed += t.RemoveBySessionKey(key)
	}
	return removed
}

// SessionSite returns the site a session is subscribed to.
func (r *Registry) SessionSite(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	site, ok := r.sessions[key]
	return site, ok
}

// Snapshot parses the whole log of siteID. A missing file yields empty stats.
// Snapshot 解析 siteID 的整个日志。文件缺失时返回空统计。
func (r *Registry) Snapshot(siteID string) (model.Stats, error) {
	if err := model.ValidateSiteID(siteID); err != nil {
		return model.Stats{}, err
	}
	entries, err := parser.ParseFile(r.LogPath(siteID))
	if err != nil {
		return model.Stats{}, err
	}
	return parser.Summarize(entries), nil
}

// Sites returns the ids that currently have a tailer, sorted.
// Sites 返回当前拥有 tailer 的站点 ID（已排序）。
func (r *Registry) Sites() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.tailers))
	for id := range r.tailers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Available lists the site directories under the base directory that match Pattern.
// Available 列出根目录下匹配 Pattern 的站点目录。
func (r *Registry) Available() ([]string, error) {
	entries, err := os.ReadDir(r.cfg.BaseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, laraerrors.NewFileError(r.cfg.BaseDir, err)
		}
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() || model.ValidateSiteID(e.Name()) != nil {
			continue
		}
		ok, err := doublestar.Match(r.cfg.Pattern, e.Name())
		if err != nil {
			return nil, laraerrors.NewConfigError("sites.pattern", r.cfg.Pattern)
		}
		if ok {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Prune stops and forgets tailers whose site directory no longer exists.
// It does nothing when RetainMissing is set. It returns the removed ids.
// Prune 停止并移除站点目录已不存在的 tailer。RetainMissing 为真时不做任何事。返回被移除的 ID。
func (r *Registry) Prune() []string {
	if r.cfg.RetainMissing {
		return nil
	}

	r.mu.Lock()
	var removed []string
	var stopping []*tailer.Tailer
	for id, t := range r.tailers {
		if _, err := os.Stat(filepath.Join(r.cfg.BaseDir, id)); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		removed = append(removed, id)
		stopping = append(stopping, t)
		delete(r.tailers, id)
		for key, site := range r.sessions {
			if site == id {
				delete(r.sessions, key)
			}
		}
	}
	r.mu.Unlock()

	for i, t := range stopping {
		t.Stop()
		r.logger.Infof("🧹 [%s] Site directory removed, tailer pruned", removed[i])
	}
	sort.Strings(removed)
	return removed
}

// RunPruner calls Prune every interval until ctx is done.
// RunPruner 每隔 interval 调用一次 Prune，直到 ctx 结束。
func (r *Registry) RunPruner(ctx context.Context, interval time.Duration) {
	if r.cfg.RetainMissing || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Prune()
		}
	}
}

// StopAll stops every tailer. Tailers stay registered and restart on the next GetOrCreate.
// StopAll 停止所有 tailer。tailer 仍保持注册，下次 GetOrCreate 时重新启动。
func (r *Registry) StopAll() {
	r.mu.Lock()
	tailers := make([]*tailer.Tailer, 0, len(r.tailers))
	for _, t := range r.tailers {
		tailers = append(tailers, t)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, t := range tailers {
		wg.Add(1)
		go func(t *tailer.Tailer) {
			defer wg.Done()
			t.Stop()
		}(t)
	}
	wg.Wait()
}
