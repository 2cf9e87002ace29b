package parser

import (
	"strings"
	"time"

	"github.com/livp123/laratail/internal/model"
)

// FilterByLevel keeps entries whose level equals level, ignoring case.
func FilterByLevel(entries []model.LogEntry, level string) []model.LogEntry {
	out := make([]model.LogEntry, 0, len(entries))
	for _, e := range entries {
		if strings.EqualFold(e.Level, level) {
			out = append(out, e)
		}
	}
	return out
}

// FilterByDateRange keeps entries strictly between start and end. A nil bound is open.
func FilterByDateRange(entries []model.LogEntry, start, end *time.Time) []model.LogEntry {
	out := make([]model.LogEntry, 0, len(entries))
	for _, e := range entries {
		if start != nil && !e.Timestamp.After(*start) {
			continue
		}
		if end != nil && !e.Timestamp.Before(*end) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SearchByMessage keeps entries whose message contains term, ignoring case.
func SearchByMessage(entries []model.LogEntry, term string) []model.LogEntry {
	term = strings.ToLower(term)
	out := make([]model.LogEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Message), term) {
			out = append(out, e)
		}
	}
	return out
}

// Summarize counts entries per well-known level and carries the list itself.
// Summarize 按常见级别统计条目数量，并附带条目列表。
func Summarize(entries []model.LogEntry) model.Stats {
	stats := model.Stats{TotalCount: len(entries), Logs: entries}
	if stats.Logs == nil {
		stats.Logs = []model.LogEntry{}
	}
	for _, e := range entries {
		switch strings.ToLower(e.Level) {
		case "error":
			stats.ErrorsCount++
		case "warning":
			stats.WarningsCount++
		case "info":
			stats.InfoCount++
		case "debug":
			stats.DebugCount++
		}
	}
	return stats
}
