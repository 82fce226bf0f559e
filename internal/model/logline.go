package model

import "strings"

// Level is the severity of one decoded log line.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the lowercase name of the level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return "info"
	}
}

// ParseLineLevel maps a bracketed level token ("TRC", "INF", "warn", ...) to a
// Level. Unknown tokens default to LevelInfo.
func ParseLineLevel(s string) Level {
	switch strings.ToLower(s) {
	case "trc", "trace":
		return LevelTrace
	case "dbg", "debug":
		return LevelDebug
	case "wrn", "warn", "warning":
		return LevelWarn
	case "err", "error":
		return LevelError
	case "ftl", "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Line status markers stripped from the tail of a message.
const (
	StatusEnter = "enter"
	StatusLeave = "leave"
)

// Param is one extracted key=value pair. Extraction order is preserved.
type Param struct {
	Key   string
	Value any
}

// LogLine is the intermediate type produced by the decoder and consumed by the
// event extractor. It is ephemeral: nothing downstream of the extractor holds on
// to one.
type LogLine struct {
	Timestamp    string
	Level        Level
	ProcessID    string
	ThreadID     string
	SourceFile   string
	LineNumber   string
	FunctionName string
	Message      string // free text with parameter spans stripped
	Params       []Param
	Status       string // "", StatusEnter or StatusLeave
	DurationMS   int64  // set when a "| leave, Nms" marker was present
	Raw          string // original line text
	LineNo       int    // 1-based position in the input
}

// Param returns the value of the first parameter with the given key.
func (l LogLine) Param(key string) (any, bool) {
	for _, p := range l.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}
