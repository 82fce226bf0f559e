package model

import "strconv"

// EventNotification is a normalized notification extracted from a decoded log
// line. It lives only for the duration of one parse pass; once the task forest
// is built the event buffer is released.
type EventNotification struct {
	Timestamp string
	Level     Level
	Msg       string         // message tag, e.g. "Tasker.Task.Starting"
	Details   map[string]any // structured payload, at minimum task_id when task-scoped
	Line      int            // originating line number, diagnostics only
}

// DetailInt reads an integer field from an event's details. JSON decoding turns
// numbers into float64, so several concrete types are accepted.
func DetailInt(details map[string]any, key string) (int64, bool) {
	v, ok := details[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// DetailString reads a string field from an event's details, returning "" when
// the field is absent or not a string.
func DetailString(details map[string]any, key string) string {
	if v, ok := details[key].(string); ok {
		return v
	}
	return ""
}

// DetailBool reads a boolean field from an event's details.
func DetailBool(details map[string]any, key string) bool {
	v, _ := details[key].(bool)
	return v
}
