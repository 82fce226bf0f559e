package stats

import (
	"testing"
	"time"

	"github.com/crimson-sun/pipelens/internal/model"
)

var t0 = time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)

func ts(offset time.Duration) string {
	return t0.Add(offset).Format("2006-01-02 15:04:05.000")
}

func node(name string, offset time.Duration, status string) *model.Node {
	return &model.Node{Name: name, Timestamp: ts(offset), Status: status}
}

func endedTask(end time.Duration, nodes ...*model.Node) *model.Task {
	return &model.Task{
		Status:    model.TaskSucceeded,
		StartTime: ts(0),
		EndTime:   ts(end),
		Nodes:     nodes,
	}
}

func TestAggregateDurations(t *testing.T) {
	rows := Aggregate([]*model.Task{endedTask(
		10*time.Second,
		node("A", 0, model.NodeSuccess),
		node("B", 2*time.Second, model.NodeSuccess),
		node("A", 3*time.Second, model.NodeFailed),
	)})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	byName := make(map[string]*model.NodeStat)
	for _, r := range rows {
		byName[r.Name] = r
	}

	a := byName["A"]
	// A ran 0→2s and 3s→task end (10s): 2000ms and 7000ms.
	if a.Count != 2 || a.TotalMS != 9000 || a.MinMS != 2000 || a.MaxMS != 7000 {
		t.Fatalf("A stats wrong: %+v", a)
	}
	if a.AvgMS != 4500 {
		t.Fatalf("A avg wrong: %v", a.AvgMS)
	}
	if a.SuccessCount != 1 || a.FailCount != 1 || a.SuccessRate != 50 {
		t.Fatalf("A success figures wrong: %+v", a)
	}

	b := byName["B"]
	if b.Count != 1 || b.TotalMS != 1000 {
		t.Fatalf("B stats wrong: %+v", b)
	}
}

func TestAggregateSkipsLastNodeOfRunningTask(t *testing.T) {
	task := &model.Task{
		Status:    model.TaskRunning,
		StartTime: ts(0),
		Nodes: []*model.Node{
			node("A", 0, model.NodeSuccess),
			node("B", time.Second, model.NodeSuccess),
		},
	}
	rows := Aggregate([]*model.Task{task})
	if len(rows) != 1 || rows[0].Name != "A" {
		t.Fatalf("expected only A (B has no end bound), got %+v", rows)
	}
}

func TestAggregateOutlierFilter(t *testing.T) {
	rows := Aggregate([]*model.Task{endedTask(
		3*time.Hour,
		node("A", 0, model.NodeSuccess),
		node("A", time.Hour, model.NodeSuccess), // 1h gap: at the bound, dropped
		node("B", time.Hour+time.Second, model.NodeSuccess),
	)})
	byName := make(map[string]*model.NodeStat)
	for _, r := range rows {
		byName[r.Name] = r
	}
	if a := byName["A"]; a == nil || a.Count != 1 || a.TotalMS != 1000 {
		t.Fatalf("outlier not filtered: %+v", a)
	}
	// B runs to task end, almost 2h: also dropped.
	if _, ok := byName["B"]; ok {
		t.Fatal("expected B's only sample to be filtered as an outlier")
	}
}

func TestAggregateNegativeDurationFiltered(t *testing.T) {
	rows := Aggregate([]*model.Task{endedTask(
		10*time.Second,
		node("A", 5*time.Second, model.NodeSuccess),
		node("B", 2*time.Second, model.NodeSuccess), // clock went backwards
		node("B", 4*time.Second, model.NodeSuccess),
	)})
	for _, r := range rows {
		if r.Name == "A" {
			t.Fatalf("negative sample kept: %+v", r)
		}
		if r.TotalMS < 0 || r.MinMS < 0 {
			t.Fatalf("negative figures leaked: %+v", r)
		}
	}
}

func TestAggregateSortedByAvgDesc(t *testing.T) {
	rows := Aggregate([]*model.Task{endedTask(
		20*time.Second,
		node("fast", 0, model.NodeSuccess),
		node("slow", time.Second, model.NodeSuccess), // fast: 1s
		node("tail", 15*time.Second, model.NodeSuccess), // slow: 14s, tail: 5s
	)})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].AvgMS < rows[i].AvgMS {
			t.Fatalf("rows not sorted desc by avg: %v then %v", rows[i-1].AvgMS, rows[i].AvgMS)
		}
	}
	if rows[0].Name != "slow" {
		t.Fatalf("expected slow first, got %q", rows[0].Name)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	tasks := []*model.Task{endedTask(
		10*time.Second,
		node("A", 0, model.NodeSuccess),
		node("B", 2*time.Second, model.NodeFailed),
	)}
	first := Aggregate(tasks)
	second := Aggregate(tasks)
	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if *first[i] != *second[i] {
			t.Fatalf("row %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func attempt(offset time.Duration) *model.RecognitionAttempt {
	return &model.RecognitionAttempt{Timestamp: ts(offset), Status: model.NodeSuccess}
}

func TestAggregatePhases(t *testing.T) {
	n := node("A", 5*time.Second, model.NodeSuccess)
	n.RecognitionAttempts = []*model.RecognitionAttempt{
		attempt(1 * time.Second),
		attempt(2 * time.Second),
		attempt(4 * time.Second),
	}
	rows := AggregatePhases([]*model.Task{endedTask(10*time.Second, n)})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	s := rows[0]
	// Recognition: first to last attempt = 3s. Action: last attempt to node = 1s.
	if s.RecoCount != 1 || s.RecoTotalMS != 3000 || s.RecoAvgMS != 3000 {
		t.Fatalf("recognition phase wrong: %+v", s)
	}
	if s.ActionCount != 1 || s.ActionTotalMS != 1000 {
		t.Fatalf("action phase wrong: %+v", s)
	}
	if s.Count != 1 || s.TotalAttempts != 3 || s.AvgAttempts != 3 {
		t.Fatalf("attempt figures wrong: %+v", s)
	}
	if s.SuccessRate != 100 {
		t.Fatalf("success rate wrong: %v", s.SuccessRate)
	}
}

func TestAggregatePhasesSingleAttemptHasNoRecoSample(t *testing.T) {
	n := node("A", 2*time.Second, model.NodeSuccess)
	n.RecognitionAttempts = []*model.RecognitionAttempt{attempt(1 * time.Second)}
	rows := AggregatePhases([]*model.Task{endedTask(10*time.Second, n)})
	s := rows[0]
	if s.RecoCount != 0 {
		t.Fatalf("single attempt must not produce a recognition sample: %+v", s)
	}
	if s.ActionCount != 1 || s.ActionTotalMS != 1000 {
		t.Fatalf("action sample wrong: %+v", s)
	}
}

func TestAggregatePhasesSkipsNodesWithoutAttempts(t *testing.T) {
	rows := AggregatePhases([]*model.Task{endedTask(
		10*time.Second,
		node("A", time.Second, model.NodeSuccess),
	)})
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestTopViews(t *testing.T) {
	rows := []*model.NodeStat{
		{Name: "A", Count: 10, AvgMS: 500, FailCount: 2},
		{Name: "B", Count: 3, AvgMS: 300, FailCount: 3},
		{Name: "C", Count: 7, AvgMS: 100},
	}

	slow := TopSlowest(rows, 2)
	if len(slow) != 2 || slow[0].Name != "A" {
		t.Fatalf("TopSlowest wrong: %+v", slow)
	}

	freq := TopFrequent(rows, 2)
	if len(freq) != 2 || freq[0].Name != "A" || freq[1].Name != "C" {
		t.Fatalf("TopFrequent wrong: %+v", freq)
	}

	failed := TopFailed(rows, 10)
	if len(failed) != 2 {
		t.Fatalf("TopFailed must only include names with failures: %+v", failed)
	}
	// B fails 3/3, A fails 2/10.
	if failed[0].Name != "B" || failed[1].Name != "A" {
		t.Fatalf("TopFailed order wrong: %q, %q", failed[0].Name, failed[1].Name)
	}

	if got := TopSlowest(rows, -1); len(got) != 3 {
		t.Fatalf("negative n must return everything, got %d", len(got))
	}
	if got := TopSlowest(rows, 100); len(got) != 3 {
		t.Fatalf("oversized n must clamp, got %d", len(got))
	}
}
