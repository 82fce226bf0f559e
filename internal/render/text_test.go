package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/crimson-sun/pipelens/internal/model"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly8", 8, "exactly8"},
		{"longer than that", 7, "longer…"},
		{"启动主界面流程", 10, "启动主界面流程"},
		{"启动主界面流程", 4, "启动主…"},
		{"界面", 1, "界"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8: %q", tt.in, tt.n, got)
		}
	}
}

func TestNodeStatsTableTruncatesLongNames(t *testing.T) {
	name := strings.Repeat("点击确认按钮", 10) // 60 runes, well past the column width
	out := NodeStatsTable("title", []*model.NodeStat{
		{Name: name, Count: 1, AvgMS: 1, MinMS: 1, MaxMS: 1, TotalMS: 1, SuccessCount: 1, SuccessRate: 100},
	})
	if !utf8.ValidString(out) {
		t.Fatal("table output contains invalid UTF-8")
	}
	if strings.Contains(out, name) {
		t.Fatal("expected long name to be truncated")
	}
	if !strings.Contains(out, "…") {
		t.Fatal("expected truncation ellipsis in output")
	}
}

func TestTaskSummaryStatusColumnStable(t *testing.T) {
	out := TaskSummary([]*model.Task{
		{TaskID: 1, Entry: "Main", Status: model.TaskSucceeded, Nodes: nil, DurationMS: 10},
		{TaskID: 2, Entry: "Retry", Status: model.TaskFailed, Nodes: nil, DurationMS: 20},
		{TaskID: 3, Entry: "Live", Status: model.TaskRunning, Nodes: nil, DurationMS: 30},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	for _, want := range []string{"succeeded", "failed", "running"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected status %q in summary:\n%s", want, out)
		}
	}
}
