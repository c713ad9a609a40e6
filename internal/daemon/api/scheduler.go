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

	"github.com/mediaforge/mediaforge/internal/daemon/httputil"
	"github.com/mediaforge/mediaforge/internal/daemon/scheduler"
)

// SchedulerHandler handles scheduler control and status requests.
type SchedulerHandler struct {
	scheduler *scheduler.Scheduler

	// baseCtx bounds scheduler fires started through the API; it must
	// outlive individual requests, so the daemon's lifecycle context is
	// used rather than the request context.
	baseCtx context.Context
}

// NewSchedulerHandler creates a new scheduler handler. baseCtx should be the
// daemon's lifecycle context; if nil, context.Background() is used.
func NewSchedulerHandler(s *scheduler.Scheduler, baseCtx context.Context) *SchedulerHandler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &SchedulerHandler{scheduler: s, baseCtx: baseCtx}
}

// RegisterRoutes registers scheduler API routes on the router.
func (h *SchedulerHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/scheduler", h.handleControl)
	mux.HandleFunc("GET /api/scheduler", h.handleStatus)
}

// ControlRequest is the body of a scheduler control request.
type ControlRequest struct {
	Action string `json:"action"`
}

// ControlResponse acknowledges a scheduler control request.
type ControlResponse struct {
	Status string `json:"status"`
}

// handleControl handles POST /api/scheduler with {"action": "start"|"stop"}.
// Both actions are idempotent.
func (h *SchedulerHandler) handleControl(w http.ResponseWriter, r *http.Request) {
	var req ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Action {
	case "start":
		h.scheduler.Start(h.baseCtx)
		httputil.WriteJSON(w, http.StatusOK, ControlResponse{Status: "started"})
	case "stop":
		h.scheduler.Stop()
		httputil.WriteJSON(w, http.StatusOK, ControlResponse{Status: "stopped"})
	default:
		httputil.WriteError(w, http.StatusBadRequest, "Invalid action")
	}
}

// handleStatus handles GET /api/scheduler.
func (h *SchedulerHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.scheduler.Status())
}
