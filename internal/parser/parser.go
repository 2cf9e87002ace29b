package parser

import (
	"fmt"
	"iter"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/livp123/laratail/internal/model"
)

// TimestampLayout is the layout of the bracketed header timestamp.
const TimestampLayout = time.DateTime

var (
	// [2023-12-01 10:30:45] local.ERROR: Message
	headerPattern = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]\s+(\w+(?:\.\w+)*):\s*(.*)$`)

	stackFramePattern = regexp.MustCompile(`^#\d+`)

	keyValuePattern = regexp.MustCompile(`(\w+):[ \t]*([^\n]+)`)
)

// Location is the time zone header timestamps are interpreted in.
var Location = time.Local

type openEntry struct {
	entry model.LogEntry
	start int // byte offset of the header line in the scanned text
	body  []string
}

// ParseChunk parses one read batch. It returns the entries that are known to be
// complete and the text that must be prepended to the next batch.
// ParseChunk 解析一个读取批次，返回已确认完整的条目以及需要拼接到下一批次前的文本。
func ParseChunk(text string) ([]model.LogEntry, string) {
	var entries []model.LogEntry
	remainder := scan(text, false, func(e model.LogEntry) bool {
		entries = append(entries, e)
		return true
	})
	return entries, remainder
}

// Finalize treats a remainder returned by ParseChunk as complete and returns the
// entries it holds. Lines that precede any header are dropped.
// Finalize 将 ParseChunk 返回的剩余文本视为完整内容并返回其中的条目。
func Finalize(remainder string) []model.LogEntry {
	return Parse(remainder)
}

// Parse parses a complete block of text, such as a whole log file.
func Parse(text string) []model.LogEntry {
	var entries []model.LogEntry
	scan(text, true, func(e model.LogEntry) bool {
		entries = append(entries, e)
		return true
	})
	return entries
}

// Entries lazily yields the entries of a complete block of text.
func Entries(text string) iter.Seq[model.LogEntry] {
	return func(yield func(model.LogEntry) bool) {
		scan(text, true, yield)
	}
}

// ParseFile reads and parses a whole log file. A missing file yields no entries.
// ParseFile 读取并解析整个日志文件。文件不存在时返回空结果。
func ParseFile(path string) ([]model.LogEntry, error) {
	data, err := os.ReadFile(path) // #nosec G304 // path is built from a validated site id
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log: %w", err)
	}
	return Parse(string(data)), nil
}

// scan walks text line by line and yields finalized entries. When final is false
// the last open entry, leading orphan lines and an unterminated trailing line are
// returned as remainder instead of being consumed.
func scan(text string, final bool, yield func(model.LogEntry) bool) string {
	var cur *openEntry
	orphanStart := -1
	pos := 0

	for pos < len(text) {
		rest := text[pos:]
		n := strings.IndexByte(rest, '\n')
		if n < 0 && !final {
			break
		}
		seg := rest
		if n >= 0 {
			seg = rest[:n+1]
		}
		line := strings.TrimRight(seg, "\r\n")

		if entry, ok := parseHeader(line); ok {
			if cur != nil && !yield(finalize(cur.entry, cur.body)) {
				return ""
			}
			cur = &openEntry{entry: entry, start: pos}
			orphanStart = -1
		} else if cur != nil {
			cur.body = append(cur.body, line)
		} else if orphanStart < 0 {
			orphanStart = pos
		}
		pos += len(seg)
	}

	if final {
		if cur != nil {
			yield(finalize(cur.entry, cur.body))
		}
		return ""
	}

	switch {
	case cur != nil:
		return text[cur.start:]
	case orphanStart >= 0:
		return text[orphanStart:]
	default:
		return text[pos:]
	}
}

// parseHeader recognizes a header line and builds the entry it opens.
func parseHeader(line string) (model.LogEntry, bool) {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return model.LogEntry{}, false
	}
	ts, err := time.ParseInLocation(TimestampLayout, m[1], Location)
	if err != nil {
		// Shaped like a timestamp but not a valid date, e.g. month 13.
		return model.LogEntry{}, false
	}
	channel, level := SplitLevel(m[2])
	return model.NewLogEntry(ts, channel, level, strings.TrimSpace(m[3])), true
}

// SplitLevel splits a "channel.LEVEL" token at its last dot.
// "local.ERROR" yields ("local", "ERROR"); "SINGLEWORD" yields ("", "SINGLEWORD").
func SplitLevel(token string) (channel, level string) {
	idx := strings.LastIndexByte(token, '.')
	if idx < 0 {
		return "", token
	}
	return token[:idx], token[idx+1:]
}

func isStackLine(line string) bool {
	return strings.Contains(line, "Stack trace:") ||
		strings.Contains(line, "#0 ") ||
		stackFramePattern.MatchString(line)
}

// finalize classifies continuation lines and extracts additional data.
func finalize(entry model.LogEntry, body []string) model.LogEntry {
	var context, stack strings.Builder
	inStack := false

	for _, line := range body {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !inStack && isStackLine(line) {
			inStack = true
		}
		if inStack {
			stack.WriteString(line)
			stack.WriteByte('\n')
		} else {
			context.WriteString(line)
			context.WriteByte('\n')
		}
	}

	entry.Context = strings.TrimSpace(context.String())
	entry.StackTrace = strings.TrimSpace(stack.String())
	extractAdditionalData(entry.AdditionalData, entry.Context)
	return entry
}

// extractAdditionalData collects "key: value" pairs and one brace-delimited fragment.
// The fragment is stored as-is, it is not validated as JSON.
func extractAdditionalData(data map[string]string, context string) {
	if context == "" {
		return
	}
	for _, m := range keyValuePattern.FindAllStringSubmatch(context, -1) {
		data[m[1]] = strings.TrimSpace(m[2])
	}

	start := strings.IndexByte(context, '{')
	end := strings.LastIndexByte(context, '}')
	if start >= 0 && end > start {
		data[model.JSONDataKey] = context[start : end+1]
	}
}
