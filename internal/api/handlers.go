package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/livp123/laratail/internal/filter"
	"github.com/livp123/laratail/internal/model"
	"github.com/livp123/laratail/internal/parser"
	laraerrors "github.com/livp123/laratail/pkg/errors"
)

// handleHealth reports liveness with a few counters.
// handleHealth 返回存活状态及若干计数。
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": s.sessions.len(),
		"tailers":  len(s.registry.Sites()),
	})
}

// handleSites lists the site directories available for tailing.
// handleSites 列出可跟踪的站点目录。
func (s *Server) handleSites(c *gin.Context) {
	ids, err := s.registry.Available()
	if err != nil {
		s.logger.Warnf("⚠️  Failed to list sites: %v", err)
		if errors.Is(err, laraerrors.ErrFileNotFound) {
			ids = nil
		} else {
			c.JSON(http.StatusInternalServerError, newResponse[[]string](err.Error(), nil))
			return
		}
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, newResponse("Available sites", ids))
}

// handleStats returns the snapshot of one site, optionally filtered by ?filter=.
// handleStats 返回单个站点的快照，可通过 ?filter= 过滤。
func (s *Server) handleStats(c *gin.Context) {
	f, err := filter.Compile(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newResponse[any](err.Error(), nil))
		return
	}

	stats, err := s.snapshot(c.Param("site"), f)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, laraerrors.ErrInvalidSite) {
			status = http.StatusBadRequest
		}
		c.JSON(status, newResponse[any](err.Error(), nil))
		return
	}
	c.JSON(http.StatusOK, newResponse("Site stats", stats))
}

// handleTailers lists the tailers currently known to the registry.
func (s *Server) handleTailers(c *gin.Context) {
	infos := make([]TailerInfo, 0)
	for _, id := range s.registry.Sites() {
		t, ok := s.registry.Tailer(id)
		if !ok {
			continue
		}
		infos = append(infos, TailerInfo{
			Site:        id,
			Path:        t.Path(),
			State:       t.State().String(),
			Offset:      t.CurrentOffset(),
			Subscribers: t.Subscribers().Len(),
		})
	}
	c.JSON(http.StatusOK, newResponse("Active tailers", infos))
}

func (s *Server) snapshot(siteID string, f *filter.Filter) (model.Stats, error) {
	stats, err := s.registry.Snapshot(siteID)
	if err != nil {
		return model.Stats{}, err
	}
	return applyFilter(stats, f), nil
}

func applyFilter(stats model.Stats, f *filter.Filter) model.Stats {
	if f.String() == "" {
		return stats
	}
	return parser.Summarize(f.Apply(stats.Logs))
}
