// Copyright 2025 Mediaforge Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mediaforge/mediaforge/internal/daemon/registry/memory"
	"github.com/mediaforge/mediaforge/internal/daemon/runner"
	"github.com/mediaforge/mediaforge/internal/daemon/scheduler"
	"github.com/mediaforge/mediaforge/internal/pipeline"
)

// instantPipeline completes immediately with a canned result.
type instantPipeline struct{}

func (instantPipeline) Execute(ctx context.Context, trigger pipeline.Trigger) (*pipeline.Result, error) {
	return &pipeline.Result{
		CompletedStages: pipeline.Stages(),
		CurrentStage:    "completion",
		Costs:           pipeline.CostSummary{Total: 1.25},
	}, nil
}

func newTestHandlers(t *testing.T) (*Router, *runner.Runner, *scheduler.Scheduler) {
	t.Helper()

	store := memory.New()
	run := runner.New(runner.Config{MaxParallel: 4, DefaultTimeout: 5 * time.Second}, store, instantPipeline{}, nil)

	sched, err := scheduler.New(scheduler.Config{Cron: "0 6 * * *", Timezone: "UTC"}, run, nil)
	if err != nil {
		t.Fatalf("scheduler.New() error = %v", err)
	}
	t.Cleanup(sched.Stop)

	router := NewRouter(RouterConfig{Version: "test"})
	NewWorkflowHandler(run).RegisterRoutes(router.Mux())
	NewSchedulerHandler(sched, context.Background()).RegisterRoutes(router.Mux())
	router.SetSchedulerProvider(sched)
	router.SetActiveRunProvider(run)

	return router, run, sched
}

func doRequest(t *testing.T, router *Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr *strings.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	} else {
		rdr = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, rdr)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response body %q: %v", rec.Body.String(), err)
	}
}

func TestWorkflowStart(t *testing.T) {
	router, _, _ := newTestHandlers(t)

	rec := doRequest(t, router, http.MethodPost, "/api/workflow/start", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}

	var resp StartResponse
	decodeBody(t, rec, &resp)
	if !strings.HasPrefix(resp.ID, "exec_") {
		t.Errorf("id = %q, want exec_ prefix", resp.ID)
	}
	if resp.Status != "running" {
		t.Errorf("status = %q, want running", resp.Status)
	}
	if resp.Message != "Workflow started" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestWorkflowStart_Draining(t *testing.T) {
	router, run, _ := newTestHandlers(t)

	run.StartDraining()

	rec := doRequest(t, router, http.MethodPost, "/api/workflow/start", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if rec.Header().Get("Retry-After") != "10" {
		t.Errorf("Retry-After = %q, want 10", rec.Header().Get("Retry-After"))
	}
}

func TestWorkflowStatus(t *testing.T) {
	router, run, _ := newTestHandlers(t)

	started := doRequest(t, router, http.MethodPost, "/api/workflow/start", "")
	var startResp StartResponse
	decodeBody(t, started, &startResp)

	// Wait for the instant pipeline to resolve
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec, err := run.Get(context.Background(), startResp.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if rec.State.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("execution did not reach a terminal state")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/workflow/status?id="+startResp.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var view map[string]any
	decodeBody(t, rec, &view)
	if view["id"] != startResp.ID {
		t.Errorf("id = %v, want %v", view["id"], startResp.ID)
	}
	if view["status"] != "completed" {
		t.Errorf("status = %v, want completed", view["status"])
	}
	if view["progress"] != float64(100) {
		t.Errorf("progress = %v, want 100", view["progress"])
	}
}

func TestWorkflowStatus_MissingID(t *testing.T) {
	router, _, _ := newTestHandlers(t)

	rec := doRequest(t, router, http.MethodGet, "/api/workflow/status", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["error"] != "Missing execution ID" {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestWorkflowStatus_NotFound(t *testing.T) {
	router, _, _ := newTestHandlers(t)

	rec := doRequest(t, router, http.MethodGet, "/api/workflow/status?id=exec_missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["error"] != "Execution not found" {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestSchedulerControl(t *testing.T) {
	router, _, sched := newTestHandlers(t)

	rec := doRequest(t, router, http.MethodPost, "/api/scheduler", `{"action":"start"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp ControlResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "started" {
		t.Errorf("status = %q, want started", resp.Status)
	}
	if !sched.Started() {
		t.Error("scheduler not started after control call")
	}

	// Repeat is idempotent
	rec = doRequest(t, router, http.MethodPost, "/api/scheduler", `{"action":"start"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat start status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/scheduler", `{"action":"stop"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop status = %d, want %d", rec.Code, http.StatusOK)
	}
	decodeBody(t, rec, &resp)
	if resp.Status != "stopped" {
		t.Errorf("status = %q, want stopped", resp.Status)
	}
	if sched.Started() {
		t.Error("scheduler still started after stop")
	}
}

func TestSchedulerControl_InvalidAction(t *testing.T) {
	router, _, _ := newTestHandlers(t)

	rec := doRequest(t, router, http.MethodPost, "/api/scheduler", `{"action":"restart"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSchedulerControl_BadBody(t *testing.T) {
	router, _, _ := newTestHandlers(t)

	rec := doRequest(t, router, http.MethodPost, "/api/scheduler", `{nope`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSchedulerStatus(t *testing.T) {
	router, _, sched := newTestHandlers(t)

	rec := doRequest(t, router, http.MethodGet, "/api/scheduler", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var st map[string]any
	decodeBody(t, rec, &st)
	if st["schedulerStarted"] != false {
		t.Errorf("schedulerStarted = %v, want false", st["schedulerStarted"])
	}
	if st["schedule"] != "0 6 * * *" {
		t.Errorf("schedule = %v", st["schedule"])
	}

	sched.Start(context.Background())
	rec = doRequest(t, router, http.MethodGet, "/api/scheduler", "")
	decodeBody(t, rec, &st)
	if st["schedulerStarted"] != true {
		t.Errorf("schedulerStarted = %v, want true", st["schedulerStarted"])
	}
	if _, ok := st["nextRun"]; !ok {
		t.Error("nextRun missing while started")
	}
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestHandlers(t)

	rec := doRequest(t, router, http.MethodGet, "/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]any
	decodeBody(t, rec, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	checks, ok := resp["checks"].(map[string]any)
	if !ok {
		t.Fatalf("checks = %T, want object", resp["checks"])
	}
	if checks["scheduler"] != "stopped" {
		t.Errorf("scheduler check = %v, want stopped", checks["scheduler"])
	}
	if resp["active_runs"] != float64(0) {
		t.Errorf("active_runs = %v, want 0", resp["active_runs"])
	}
}

func TestVersion(t *testing.T) {
	router, _, _ := newTestHandlers(t)

	rec := doRequest(t, router, http.MethodGet, "/v1/version", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["version"] != "test" {
		t.Errorf("version = %q, want test", resp["version"])
	}
}
