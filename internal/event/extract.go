// Package event filters decoded log lines for framework notifications and
// yields normalized (timestamp, level, msg, details) events.
package event

import (
	"strings"

	"github.com/crimson-sun/pipelens/internal/model"
)

// Marker identifies notification lines in the raw log text. The framework
// relays every notification through this listener, including IPC-forwarded
// duplicates.
const Marker = "[NotifyListener]"

// Message tags carried by notifications.
const (
	TaskStarting  = "Tasker.Task.Starting"
	TaskSucceeded = "Tasker.Task.Succeeded"
	TaskFailed    = "Tasker.Task.Failed"

	NextListStarting = "Node.NextList.Starting"

	RecognitionSucceeded = "Node.Recognition.Succeeded"
	RecognitionFailed    = "Node.Recognition.Failed"

	RecognitionNodeSucceeded = "Node.RecognitionNode.Succeeded"
	RecognitionNodeFailed    = "Node.RecognitionNode.Failed"

	ActionSucceeded = "Node.Action.Succeeded"
	ActionFailed    = "Node.Action.Failed"

	ActionNodeSucceeded = "Node.ActionNode.Succeeded"
	ActionNodeFailed    = "Node.ActionNode.Failed"

	PipelineNodeSucceeded = "Node.PipelineNode.Succeeded"
	PipelineNodeFailed    = "Node.PipelineNode.Failed"
)

// Extract returns the notification carried by a decoded line, if any. A line
// qualifies when its raw text contains Marker and its parameters include a
// non-empty "msg" string; the optional "details" parameter becomes the event
// payload.
func Extract(line model.LogLine) (model.EventNotification, bool) {
	if !strings.Contains(line.Raw, Marker) {
		return model.EventNotification{}, false
	}
	raw, ok := line.Param("msg")
	if !ok {
		return model.EventNotification{}, false
	}
	msg, ok := raw.(string)
	if !ok || msg == "" {
		return model.EventNotification{}, false
	}
	details, _ := line.Param("details")
	payload, _ := details.(map[string]any)
	return model.EventNotification{
		Timestamp: line.Timestamp,
		Level:     line.Level,
		Msg:       msg,
		Details:   payload,
		Line:      line.LineNo,
	}, true
}
