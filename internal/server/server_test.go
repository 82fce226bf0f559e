package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crimson-sun/pipelens/internal/config"
	"github.com/crimson-sun/pipelens/pkg/pipelens"
)

func notify(ts, msg, detailsJSON string) string {
	return "[" + ts + "][INF][Px1][Tx1][tasker.cpp][L42][Notify] [NotifyListener] " +
		"[msg=" + msg + "][details=" + detailsJSON + "]"
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := strings.Join([]string{
		notify("2026-02-19 12:00:00.000", "Tasker.Task.Starting", `{"task_id":1,"uuid":"a","entry":"Main"}`),
		notify("2026-02-19 12:00:01.000", "Node.PipelineNode.Succeeded", `{"task_id":1,"node_id":10,"name":"ClickStart"}`),
		notify("2026-02-19 12:00:02.000", "Tasker.Task.Succeeded", `{"task_id":1,"uuid":"a"}`),
	}, "\n")

	p := pipelens.New(pipelens.WithLogger(slog.New(slog.DiscardHandler)))
	p.Parse(log, nil)

	cfg := config.ServerConfig{Host: "localhost", Port: 0, EnableCORS: true}
	return New(p, cfg, 10, slog.New(slog.DiscardHandler))
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("GET %s: invalid JSON envelope: %v", path, err)
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, resp := get(t, s, "/api/health")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("unexpected health response: %d %+v", rec.Code, resp)
	}
	data := resp.Data.(map[string]any)
	if data["tasks"] != float64(1) {
		t.Fatalf("expected 1 task in health payload, got %v", data["tasks"])
	}
}

func TestTasksEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec, resp := get(t, s, "/api/tasks")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("unexpected response: %d %+v", rec.Code, resp)
	}
	tasks, ok := resp.Data.([]any)
	if !ok || len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %v", resp.Data)
	}
	task := tasks[0].(map[string]any)
	if task["entry"] != "Main" || task["status"] != "succeeded" {
		t.Fatalf("task payload wrong: %v", task)
	}
}

func TestNodeStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec, resp := get(t, s, "/api/stats/nodes")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("unexpected response: %d %+v", rec.Code, resp)
	}
	data := resp.Data.(map[string]any)
	for _, key := range []string{"all", "slowest", "frequent", "failed"} {
		if _, present := data[key]; !present {
			t.Fatalf("missing %q view in node stats payload: %v", key, data)
		}
	}
	all := data["all"].([]any)
	if len(all) != 1 {
		t.Fatalf("expected 1 aggregated row, got %v", data["all"])
	}
}

func TestPhaseStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec, resp := get(t, s, "/api/stats/phases")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("unexpected response: %d %+v", rec.Code, resp)
	}
}

func TestIDEndpoints(t *testing.T) {
	s := newTestServer(t)
	for path, want := range map[string]string{
		"/api/process-ids": "Px1",
		"/api/thread-ids":  "Tx1",
	} {
		_, resp := get(t, s, path)
		ids, ok := resp.Data.([]any)
		if !ok || len(ids) != 1 || ids[0] != want {
			t.Fatalf("GET %s: expected [%s], got %v", path, want, resp.Data)
		}
	}
}

func TestTaskOwner(t *testing.T) {
	s := newTestServer(t)

	rec, resp := get(t, s, "/api/tasks/1/owner")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("unexpected response: %d %+v", rec.Code, resp)
	}
	data := resp.Data.(map[string]any)
	if data["process_id"] != "Px1" || data["thread_id"] != "Tx1" {
		t.Fatalf("owner payload wrong: %v", data)
	}

	rec, resp = get(t, s, "/api/tasks/notanumber/owner")
	if rec.Code != http.StatusBadRequest || resp.Success {
		t.Fatalf("expected 400 for bad id, got %d %+v", rec.Code, resp)
	}

	rec, resp = get(t, s, "/api/tasks/999/owner")
	if rec.Code != http.StatusNotFound || resp.Success {
		t.Fatalf("expected 404 for unknown task, got %d %+v", rec.Code, resp)
	}
}

func TestCORSHeaderPresent(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard CORS header, got %q", got)
	}
}
