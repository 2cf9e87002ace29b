package tailer

import "time"

// State is the lifecycle state of a Tailer.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateWatching
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateWatching:
		return "watching"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

const (
	DefaultPollInterval = 1 * time.Second
	DefaultFlushAfter   = 500 * time.Millisecond
	DefaultStopTimeout  = 5 * time.Second
	DefaultMaxPending   = 4 << 20 // 4 MiB
)

// Options tunes a Tailer. Zero values fall back to the defaults above.
// Options 用于调整 Tailer。零值使用上面的默认值。
type Options struct {
	// Name labels logs and metrics, usually the site id.
	// Name 用于标记日志和指标，通常为站点 ID。
	Name string
	// PollInterval is the period of the fallback check.
	// PollInterval 为兜底检查的周期。
	PollInterval time.Duration
	// FlushAfter is how long a complete pending entry may stay unconfirmed before it is delivered.
	// FlushAfter 为完整的待定条目在投递前可保持未确认状态的最长时间。
	FlushAfter time.Duration
	// StopTimeout bounds how long Stop waits for in-flight checks.
	// StopTimeout 限制 Stop 等待进行中检查的时间。
	StopTimeout time.Duration
	// MaxPending caps the buffered partial entry in bytes.
	// MaxPending 限制缓冲的部分条目大小（字节）。
	MaxPending int
}

func (o Options) withDefaults(path string) Options {
	if o.Name == "" {
		o.Name = path
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.FlushAfter <= 0 {
		o.FlushAfter = DefaultFlushAfter
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = DefaultStopTimeout
	}
	if o.MaxPending <= 0 {
		o.MaxPending = DefaultMaxPending
	}
	return o
}
