// Package reconstruct assembles the ordered event stream into a forest of
// Task → Node → {RecognitionAttempt, ActionNode} trees, including arbitrarily
// nested sub-task activity spawned by custom recognizers and actions.
//
// Correctness depends on event order being preserved exactly as produced:
// task close events match the earliest-started open task (FIFO) when the uuid
// is empty, and node scratch state is reset in arrival order.
package reconstruct

import (
	"strconv"
	"strings"

	"github.com/crimson-sun/pipelens/internal/event"
	"github.com/crimson-sun/pipelens/internal/model"
)

// PostStopEntry is the framework's internal task entry emitted after a stop
// request. Such tasks are bookkeeping noise and are filtered from the output.
const PostStopEntry = "PostStop"

// taskState carries per-task bookkeeping between the two passes.
type taskState struct {
	task     *model.Task
	startIdx int
	endIdx   int // -1 while the task has no matching close event
	seen     map[int64]struct{}
}

// Build reconstructs the task forest from the ordered event stream. Pass 1
// discovers task lifetimes; pass 2 rebuilds each task's node sequence from its
// own event slice. The returned tasks reference pool-interned strings, so the
// pool may be discarded afterwards.
func Build(events []model.EventNotification, pool *Pool) []*model.Task {
	states := discoverTasks(events, pool)
	for _, st := range states {
		buildNodes(st, events, pool)
		finalizeTask(st)
	}

	tasks := make([]*model.Task, 0, len(states))
	for _, st := range states {
		if st.task.Entry == PostStopEntry {
			continue
		}
		tasks = append(tasks, st.task)
	}
	return tasks
}

// discoverTasks is pass 1: scan in order, opening a task per unseen
// (uuid, task_id) key on a starting event and closing the first matching open
// task on a succeeded/failed event. Close events with no open match are
// silently ignored.
func discoverTasks(events []model.EventNotification, pool *Pool) []*taskState {
	var states []*taskState
	byKey := make(map[string]*taskState)

	for i, ev := range events {
		switch ev.Msg {
		case event.TaskStarting:
			id, ok := model.DetailInt(ev.Details, "task_id")
			if !ok {
				continue
			}
			uuid := model.DetailString(ev.Details, "uuid")
			key := uuid + "_" + strconv.FormatInt(id, 10)
			if _, exists := byKey[key]; exists {
				continue
			}
			st := &taskState{
				task: &model.Task{
					TaskID:    id,
					UUID:      pool.Intern(uuid),
					Entry:     pool.Intern(model.DetailString(ev.Details, "entry")),
					Hash:      pool.Intern(model.DetailString(ev.Details, "hash")),
					StartTime: pool.Intern(ev.Timestamp),
					Status:    model.TaskRunning,
				},
				startIdx: i,
				endIdx:   -1,
				seen:     make(map[int64]struct{}),
			}
			byKey[key] = st
			states = append(states, st)

		case event.TaskSucceeded, event.TaskFailed:
			st := matchOpenTask(states, ev.Details)
			if st == nil {
				continue
			}
			if ev.Msg == event.TaskSucceeded {
				st.task.Status = model.TaskSucceeded
			} else {
				st.task.Status = model.TaskFailed
			}
			st.task.EndTime = pool.Intern(ev.Timestamp)
			st.endIdx = i
			// Computed verbatim; garbled timestamps produce garbled durations
			// here and get filtered by the statistics layer.
			if start, ok1 := model.TimestampMS(st.task.StartTime); ok1 {
				if end, ok2 := model.TimestampMS(st.task.EndTime); ok2 {
					st.task.DurationMS = end - start
				}
			}
		}
	}
	return states
}

// matchOpenTask finds the first still-open task for a close event: by exact
// uuid when the event carries one, otherwise FIFO on task_id.
func matchOpenTask(states []*taskState, details map[string]any) *taskState {
	if uuid := model.DetailString(details, "uuid"); uuid != "" {
		for _, st := range states {
			if st.endIdx == -1 && st.task.UUID == uuid {
				return st
			}
		}
		return nil
	}
	id, ok := model.DetailInt(details, "task_id")
	if !ok {
		return nil
	}
	for _, st := range states {
		if st.endIdx == -1 && st.task.TaskID == id {
			return st
		}
	}
	return nil
}

// buildNodes is pass 2 for one task: walk the task's event slice and
// materialize its node sequence, routing events from foreign task_ids into the
// nested recognition/action scratch structures.
func buildNodes(st *taskState, events []model.EventNotification, pool *Pool) {
	end := st.endIdx
	if end == -1 {
		end = len(events) - 1
	}
	taskID := st.task.TaskID

	var (
		currentNext   []model.NextCandidate
		attempts      []*model.RecognitionAttempt
		nestedNodes   []*model.RecognitionAttempt
		nestedActions []*model.ActionNode
	)
	recosByTask := make(map[int64][]*model.RecognitionAttempt)
	actionsByTask := make(map[int64][]*model.ActionNode)

	for i := st.startIdx; i <= end && i < len(events); i++ {
		ev := events[i]
		evTask, hasTask := model.DetailInt(ev.Details, "task_id")
		if !hasTask {
			continue
		}

		switch ev.Msg {
		case event.NextListStarting:
			if evTask == taskID {
				currentNext = nextCandidates(ev.Details, pool)
			}

		case event.RecognitionNodeSucceeded, event.RecognitionNodeFailed:
			if evTask == taskID {
				continue
			}
			// A nested recognition sub-task completed: fold whatever that
			// child task recognized so far into one summary.
			nestedNodes = append(nestedNodes, &model.RecognitionAttempt{
				RecoID:      recoID(ev.Details),
				Name:        pool.Intern(eventName(ev.Details)),
				Timestamp:   pool.Intern(ev.Timestamp),
				Status:      statusOf(ev.Msg),
				Detail:      ev.Details["recognition"],
				NestedNodes: recosByTask[evTask],
			})
			delete(recosByTask, evTask)

		case event.ActionNodeSucceeded, event.ActionNodeFailed:
			if evTask == taskID {
				continue
			}
			nestedActions = append(nestedActions, &model.ActionNode{
				ActionID:      actionID(ev.Details),
				Name:          pool.Intern(eventName(ev.Details)),
				Timestamp:     pool.Intern(ev.Timestamp),
				Status:        statusOf(ev.Msg),
				Detail:        ev.Details["action"],
				NestedActions: actionsByTask[evTask],
			})
			delete(actionsByTask, evTask)

		case event.RecognitionSucceeded, event.RecognitionFailed:
			attempt := &model.RecognitionAttempt{
				RecoID:    recoID(ev.Details),
				Name:      pool.Intern(eventName(ev.Details)),
				Timestamp: pool.Intern(ev.Timestamp),
				Status:    statusOf(ev.Msg),
				Detail:    ev.Details["recognition"],
			}
			if evTask == taskID {
				attempt.NestedNodes = nestedNodes
				nestedNodes = nil
				attempts = append(attempts, attempt)
			} else {
				recosByTask[evTask] = append(recosByTask[evTask], attempt)
			}

		case event.ActionSucceeded, event.ActionFailed:
			if evTask == taskID {
				continue
			}
			actionsByTask[evTask] = append(actionsByTask[evTask], &model.ActionNode{
				ActionID:  actionID(ev.Details),
				Name:      pool.Intern(eventName(ev.Details)),
				Timestamp: pool.Intern(ev.Timestamp),
				Status:    statusOf(ev.Msg),
				Detail:    ev.Details["action"],
			})

		case event.PipelineNodeSucceeded, event.PipelineNodeFailed:
			if evTask != taskID {
				continue
			}
			nodeID, ok := model.DetailInt(ev.Details, "node_id")
			if ok {
				if _, dup := st.seen[nodeID]; !dup {
					st.seen[nodeID] = struct{}{}
					st.task.Nodes = append(st.task.Nodes, &model.Node{
						NodeID:                    nodeID,
						Name:                      pool.Intern(nodeName(ev.Details)),
						Timestamp:                 pool.Intern(ev.Timestamp),
						Status:                    statusOf(ev.Msg),
						TaskID:                    taskID,
						Recognition:               ev.Details["recognition"],
						Action:                    ev.Details["action"],
						Focus:                     ev.Details["focus"],
						NextList:                  currentNext,
						RecognitionAttempts:       attempts,
						NestedActionNodes:         nestedActions,
						NestedRecognitionInAction: nestedNodes,
					})
				}
			}
			// IPC relay can double-deliver node completions; a duplicate
			// still resets the scratch state for the next node.
			currentNext = nil
			attempts = nil
			nestedActions = nil
			nestedNodes = nil
		}
	}
}

// finalizeTask derives an approximate duration for a task that never received
// a close event but completed at least one node.
func finalizeTask(st *taskState) {
	t := st.task
	if t.Status != model.TaskRunning || len(t.Nodes) == 0 {
		return
	}
	start, ok1 := model.TimestampMS(t.StartTime)
	last, ok2 := model.TimestampMS(t.Nodes[len(t.Nodes)-1].Timestamp)
	if ok1 && ok2 {
		t.DurationMS = last - start
	}
}

// nextCandidates maps the payload of a NextList.Starting event. Entries are
// either bare names or objects carrying anchor/jump_back flags.
func nextCandidates(details map[string]any, pool *Pool) []model.NextCandidate {
	raw, ok := details["list"].([]any)
	if !ok {
		if raw, ok = details["next_list"].([]any); !ok {
			return nil
		}
	}
	out := make([]model.NextCandidate, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			out = append(out, model.NextCandidate{Name: pool.Intern(v)})
		case map[string]any:
			out = append(out, model.NextCandidate{
				Name:     pool.Intern(model.DetailString(v, "name")),
				Anchor:   model.DetailBool(v, "anchor"),
				JumpBack: model.DetailBool(v, "jump_back"),
			})
		}
	}
	return out
}

// statusOf maps a completion tag to a node/attempt status.
func statusOf(msg string) string {
	if strings.HasSuffix(msg, ".Succeeded") {
		return model.NodeSuccess
	}
	return model.NodeFailed
}

// recoID prefers the recognizer id, falling back to the node id.
func recoID(details map[string]any) int64 {
	if id, ok := model.DetailInt(details, "reco_id"); ok {
		return id
	}
	id, _ := model.DetailInt(details, "node_id")
	return id
}

// actionID prefers the action id, falling back to the node id.
func actionID(details map[string]any) int64 {
	if id, ok := model.DetailInt(details, "action_id"); ok {
		return id
	}
	id, _ := model.DetailInt(details, "node_id")
	return id
}

// eventName reads the subject name of a recognition/action event.
func eventName(details map[string]any) string {
	return model.DetailString(details, "name")
}

// nodeName prefers the pipeline node's own details over the event envelope.
func nodeName(details map[string]any) string {
	if nd, ok := details["node_details"].(map[string]any); ok {
		if name := model.DetailString(nd, "name"); name != "" {
			return name
		}
	}
	return model.DetailString(details, "name")
}
