package sdk

// Logger defines the logging interface shared by the tailing core.
// It abstracts the underlying logging implementation; *zap.SugaredLogger satisfies it.
// Logger 为日志追踪核心定义日志接口。
// 它抽象了底层的日志实现；*zap.SugaredLogger 满足该接口。
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NopLogger discards everything.
// NopLogger 丢弃所有日志。
type NopLogger struct{}

func (NopLogger) Debugf(format string, args ...interface{}) {}
func (NopLogger) Infof(format string, args ...interface{})  {}
func (NopLogger) Warnf(format string, args ...interface{})  {}
func (NopLogger) Errorf(format string, args ...interface{}) {}

// OrNop returns l, or a NopLogger when l is nil.
// OrNop 返回 l，当 l 为 nil 时返回 NopLogger。
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
