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

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(
		WithHTTPClient(srv.Client()),
		WithBaseURL(srv.URL),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestStartWorkflow(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/workflow/start" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(StartResponse{
			ID:      "exec_abc",
			Status:  "running",
			Message: "Workflow started",
		})
	}))

	resp, err := c.StartWorkflow(context.Background())
	if err != nil {
		t.Fatalf("StartWorkflow() error = %v", err)
	}
	if resp.ID != "exec_abc" {
		t.Errorf("ID = %q, want exec_abc", resp.ID)
	}
	if resp.Status != "running" {
		t.Errorf("Status = %q, want running", resp.Status)
	}
}

func TestWorkflowStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/workflow/status" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "exec_abc" {
			t.Errorf("id = %q, want exec_abc", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":             "exec_abc",
			"status":         "completed",
			"currentNode":    "completion",
			"completedNodes": []string{"setup", "completion"},
			"progress":       100,
			"costs":          map[string]any{"total": 3.22},
			"finalVideo":     map[string]any{"url": "https://youtube.example/watch?v=1"},
		})
	}))

	status, err := c.WorkflowStatus(context.Background(), "exec_abc")
	if err != nil {
		t.Fatalf("WorkflowStatus() error = %v", err)
	}
	if status.Status != "completed" {
		t.Errorf("Status = %q, want completed", status.Status)
	}
	if status.Progress != 100 {
		t.Errorf("Progress = %d, want 100", status.Progress)
	}
	if status.Costs.Total != 3.22 {
		t.Errorf("Costs.Total = %v, want 3.22", status.Costs.Total)
	}
	if status.FinalVideo == nil || status.FinalVideo.URL == "" {
		t.Error("FinalVideo should be populated")
	}
}

func TestWorkflowStatus_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Execution not found"})
	}))

	_, err := c.WorkflowStatus(context.Background(), "exec_missing")
	if err == nil {
		t.Fatal("expected an error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Message != "Execution not found" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestAPIError_RawBodyFallback(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))

	_, err := c.StartWorkflow(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Message != "upstream exploded" {
		t.Errorf("Message = %q, want raw body", apiErr.Message)
	}
}

func TestSchedulerControl(t *testing.T) {
	var gotAction string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/scheduler" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotAction = body["action"]
		json.NewEncoder(w).Encode(map[string]string{"status": "started"})
	}))

	if err := c.StartScheduler(context.Background()); err != nil {
		t.Fatalf("StartScheduler() error = %v", err)
	}
	if gotAction != "start" {
		t.Errorf("action = %q, want start", gotAction)
	}

	if err := c.StopScheduler(context.Background()); err != nil {
		t.Fatalf("StopScheduler() error = %v", err)
	}
	if gotAction != "stop" {
		t.Errorf("action = %q, want stop", gotAction)
	}
}

func TestSchedulerStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"schedulerStarted": true,
			"schedule":         "0 6 * * *",
			"timezone":         "Asia/Kolkata",
			"runCount":         3,
			"errorCount":       1,
		})
	}))

	status, err := c.SchedulerStatus(context.Background())
	if err != nil {
		t.Fatalf("SchedulerStatus() error = %v", err)
	}
	if !status.Started {
		t.Error("Started = false, want true")
	}
	if status.Schedule != "0 6 * * *" {
		t.Errorf("Schedule = %q", status.Schedule)
	}
	if status.RunCount != 3 {
		t.Errorf("RunCount = %d, want 3", status.RunCount)
	}
}

func TestPing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"checks": map[string]string{"scheduler": "stopped"},
		})
	}))

	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestDefaultSocketPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("MEDIAFORGE_SOCKET", "/tmp/custom.sock")
		if got := DefaultSocketPath(); got != "/tmp/custom.sock" {
			t.Errorf("DefaultSocketPath() = %q, want /tmp/custom.sock", got)
		}
	})

	t.Run("XDG runtime dir", func(t *testing.T) {
		t.Setenv("MEDIAFORGE_SOCKET", "")
		t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
		want := "/run/user/1000/mediaforge/mediaforge.sock"
		if got := DefaultSocketPath(); got != want {
			t.Errorf("DefaultSocketPath() = %q, want %q", got, want)
		}
	})
}
