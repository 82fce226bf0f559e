package model

// Task status values.
const (
	TaskRunning   = "running"
	TaskSucceeded = "succeeded"
	TaskFailed    = "failed"
)

// Node and attempt status values.
const (
	NodeSuccess = "success"
	NodeFailed  = "failed"
)

// Task is one top-level execution unit reconstructed from the event stream.
// Identity is (UUID, TaskID); TaskID alone is reusable across controller
// instances, so an empty UUID degrades matching to FIFO on TaskID.
type Task struct {
	TaskID     int64   `json:"task_id"`
	UUID       string  `json:"uuid,omitempty"`
	Entry      string  `json:"entry"`
	Hash       string  `json:"hash,omitempty"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time,omitempty"`
	Status     string  `json:"status"`
	DurationMS int64   `json:"duration_ms"`
	Nodes      []*Node `json:"nodes"`
}

// NextCandidate is one candidate next-node reference announced before a node
// runs.
type NextCandidate struct {
	Name     string `json:"name"`
	Anchor   bool   `json:"anchor,omitempty"`
	JumpBack bool   `json:"jump_back,omitempty"`
}

// Node is one completed step of a task's pipeline. A Node is built exactly once
// per node_id per task, on the first completion event observed; it is immutable
// afterwards.
type Node struct {
	NodeID    int64  `json:"node_id"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	TaskID    int64  `json:"task_id"`

	// Opaque detail blobs passed through verbatim from the event payload.
	Recognition any `json:"recognition,omitempty"`
	Action      any `json:"action,omitempty"`
	Focus       any `json:"focus,omitempty"`

	NextList            []NextCandidate       `json:"next_list,omitempty"`
	RecognitionAttempts []*RecognitionAttempt `json:"recognition_attempts,omitempty"`

	// Sub-task activity spawned by a custom action while this node ran.
	NestedActionNodes         []*ActionNode         `json:"nested_action_nodes,omitempty"`
	NestedRecognitionInAction []*RecognitionAttempt `json:"nested_recognition_in_action,omitempty"`
}

// RecognitionAttempt is one try at matching a recognizer within a node. A
// custom recognizer may spawn a nested sub-task whose own recognition records
// appear under NestedNodes; the nesting is unbounded.
type RecognitionAttempt struct {
	RecoID      int64                 `json:"reco_id"`
	Name        string                `json:"name"`
	Timestamp   string                `json:"timestamp"`
	Status      string                `json:"status"`
	Detail      any                   `json:"detail,omitempty"`
	NestedNodes []*RecognitionAttempt `json:"nested_nodes,omitempty"`
}

// ActionNode is a sub-task action spawned by a custom action; nesting is
// unbounded.
type ActionNode struct {
	ActionID      int64         `json:"action_id"`
	Name          string        `json:"name"`
	Timestamp     string        `json:"timestamp"`
	Status        string        `json:"status"`
	Detail        any           `json:"detail,omitempty"`
	NestedActions []*ActionNode `json:"nested_actions,omitempty"`
}
