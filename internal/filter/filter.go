package filter

import (
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/livp123/laratail/internal/model"
	laraerrors "github.com/livp123/laratail/pkg/errors"
)

// Env is the environment an expression is evaluated against, one per entry.
// Env 是表达式的求值环境，每个条目一个。
//
// Example expressions:
//
//	Level == "ERROR"
//	IsLevel("warning") || Message contains "timeout"
//	Has("userId") && Data["userId"] == "42"
//	StackTrace != "" && Timestamp > Now().Add(-Duration("1h"))
type Env struct {
	Timestamp  time.Time
	Channel    string
	Level      string
	Message    string
	Context    string
	StackTrace string
	Data       map[string]string
}

// NewEnv builds the environment of one entry.
func NewEnv(e model.LogEntry) Env {
	return Env{
		Timestamp:  e.Timestamp,
		Channel:    e.Channel,
		Level:      e.Level,
		Message:    e.Message,
		Context:    e.Context,
		StackTrace: e.StackTrace,
		Data:       e.AdditionalData,
	}
}

// IsLevel compares the entry level ignoring case.
func (e Env) IsLevel(level string) bool {
	return strings.EqualFold(e.Level, level)
}

// Has reports whether additional data holds key.
func (e Env) Has(key string) bool {
	_, ok := e.Data[key]
	return ok
}

// Filter is a compiled entry predicate. A nil or empty Filter matches everything.
// Filter 是已编译的条目谓词。nil 或空 Filter 匹配所有条目。
type Filter struct {
	source  string
	program *vm.Program
}

// Compile compiles a boolean expression over Env.
// Compile 编译基于 Env 的布尔表达式。
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return &Filter{}, nil
	}
	program, err := expr.Compile(expression, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, laraerrors.NewFilterError(expression, err)
	}
	return &Filter{source: expression, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Match evaluates the filter. Runtime errors count as no match.
func (f *Filter) Match(e model.LogEntry) bool {
	if f == nil || f.program == nil {
		return true
	}
	out, err := expr.Run(f.program, NewEnv(e))
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// Apply returns the entries that match, preserving order.
func (f *Filter) Apply(entries []model.LogEntry) []model.LogEntry {
	if f == nil || f.program == nil {
		return entries
	}
	out := make([]model.LogEntry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
