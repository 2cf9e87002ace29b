package api

import (
	"time"
)

// Outbound message types.
const (
	TypeSnapshot = "snapshot"
	TypeUpdate   = "update"
	TypeWatch    = "watch"
	TypeError    = "error"
)

// Delivery modes. A session receives either one message per entry or one per batch.
// 投递模式。会话要么按条目接收，要么按批次接收。
const (
	ModeSingle   = "single"
	ModeMultiple = "multiple"
	ModeBatch    = "batch"
)

// Watch event modes.
const (
	WatchStarted = "started"
	WatchStopped = "stopped"
	WatchError   = "error"
)

// Message is the envelope of everything written to a WebSocket session.
// Message 是写入 WebSocket 会话的所有内容的信封。
type Message struct {
	Type string `json:"type"`
	Mode string `json:"mode,omitempty"`
	Site string `json:"site,omitempty"`
	Data any    `json:"data,omitempty"`
}

// ClientMessage selects a site and tunes delivery. Nil fields keep their current value.
// ClientMessage 选择站点并调整投递方式。nil 字段保持当前值。
type ClientMessage struct {
	Site   string  `json:"site"`
	Filter *string `json:"filter"`
	Mode   *string `json:"mode"`
}

// Response is the REST envelope.
// Response 是 REST 响应信封。
type Response[T any] struct {
	Message   string `json:"message"`
	Data      T      `json:"data"`
	Timestamp string `json:"timestamp"`
}

func newResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Format(time.DateTime),
	}
}

// TailerInfo describes a running or stopped site tailer.
type TailerInfo struct {
	Site        string `json:"site"`
	Path        string `json:"path"`
	State       string `json:"state"`
	Offset      int64  `json:"offset"`
	Subscribers int    `json:"subscribers"`
}
