package model

import (
	"fmt"
	"time"
)

// JSONDataKey is the AdditionalData key holding the brace-delimited context fragment.
const JSONDataKey = "json_data"

// LogEntry represents one parsed log record: a header line plus its continuation lines.
type LogEntry struct {
	Timestamp      time.Time         `json:"timestamp"`
	Channel        string            `json:"channel"` // e.g. "local", empty when the header has no dot
	Level          string            `json:"level"`   // ERROR, WARNING, INFO, DEBUG ...
	Message        string            `json:"message"`
	Context        string            `json:"context"`
	StackTrace     string            `json:"stackTrace"`
	AdditionalData map[string]string `json:"additionalData"`
}

// NewLogEntry returns an entry with empty, non-nil optional fields.
func NewLogEntry(ts time.Time, channel, level, message string) LogEntry {
	return LogEntry{
		Timestamp:      ts,
		Channel:        channel,
		Level:          level,
		Message:        message,
		AdditionalData: make(map[string]string),
	}
}

func (e LogEntry) String() string {
	return fmt.Sprintf("{timestamp:%s, level:'%s', message:'%s', context:'%s', stackTrace:'%s', additionalData:%v}",
		e.Timestamp.Format(time.DateTime), e.Level, e.Message, e.Context, e.StackTrace, e.AdditionalData)
}
