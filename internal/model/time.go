package model

import "time"

// timestampLayouts lists the formats the framework emits. Millisecond precision
// is the common case; plain seconds appear in older logs.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// TimestampMS converts a log timestamp string to milliseconds since the Unix
// epoch. Returns false when the string matches no known layout; callers skip
// such values rather than guessing.
func TimestampMS(ts string) (int64, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}
