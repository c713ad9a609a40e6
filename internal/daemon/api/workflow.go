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
	"net/http"

	"github.com/mediaforge/mediaforge/internal/daemon/httputil"
	"github.com/mediaforge/mediaforge/internal/daemon/runner"
	"github.com/mediaforge/mediaforge/internal/pipeline"
	mferrors "github.com/mediaforge/mediaforge/pkg/errors"
)

// WorkflowHandler handles workflow start and status requests.
type WorkflowHandler struct {
	runner *runner.Runner
}

// NewWorkflowHandler creates a new workflow handler.
func NewWorkflowHandler(r *runner.Runner) *WorkflowHandler {
	return &WorkflowHandler{runner: r}
}

// RegisterRoutes registers workflow API routes on the router.
func (h *WorkflowHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/workflow/start", h.handleStart)
	mux.HandleFunc("GET /api/workflow/status", h.handleStatus)
}

// StartResponse is the acknowledgment returned for a start request.
type StartResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleStart handles POST /api/workflow/start.
// Admission returns immediately; the pipeline runs in the background and the
// client polls /api/workflow/status with the returned id.
func (h *WorkflowHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	// Reject new work during graceful shutdown
	if h.runner.IsDraining() {
		w.Header().Set("Retry-After", "10")
		httputil.WriteError(w, http.StatusServiceUnavailable, "daemon is shutting down gracefully")
		return
	}

	rec, err := h.runner.Start(r.Context(), pipeline.TriggerManual)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to start workflow")
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, StartResponse{
		ID:      rec.ID,
		Status:  string(rec.State),
		Message: "Workflow started",
	})
}

// handleStatus handles GET /api/workflow/status?id=<id>.
func (h *WorkflowHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Missing execution ID")
		return
	}

	view, err := h.runner.Status(r.Context(), id)
	if err != nil {
		if mferrors.IsNotFound(err) {
			httputil.WriteError(w, http.StatusNotFound, "Execution not found")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to resolve status")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}
