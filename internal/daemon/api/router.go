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

// Package api provides the HTTP API for the daemon.
package api

import (
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/mediaforge/mediaforge/internal/daemon/httputil"
	"github.com/mediaforge/mediaforge/internal/log"
)

// RouterConfig holds configuration for the API router.
type RouterConfig struct {
	Version   string
	Commit    string
	BuildDate string
}

// SchedulerStatusProvider provides scheduler status for health checks.
type SchedulerStatusProvider interface {
	Started() bool
}

// ActiveRunProvider reports the number of in-flight executions.
type ActiveRunProvider interface {
	ActiveRunCount() int
}

// Router wraps an http.ServeMux with health, version, and request logging.
type Router struct {
	mux               *http.ServeMux
	config            RouterConfig
	schedulerProvider SchedulerStatusProvider
	runProvider       ActiveRunProvider
	logger            *slog.Logger
	startedAt         time.Time
}

// NewRouter creates a new HTTP router with the base endpoints registered.
func NewRouter(cfg RouterConfig) *Router {
	r := &Router{
		mux:       http.NewServeMux(),
		config:    cfg,
		logger:    log.New(log.FromEnv()),
		startedAt: time.Now(),
	}

	r.mux.HandleFunc("GET /v1/health", r.handleHealth)
	r.mux.HandleFunc("GET /v1/version", r.handleVersion)

	// Root endpoint for basic connectivity check
	r.mux.HandleFunc("GET /", r.handleRoot)

	return r
}

// Mux returns the underlying ServeMux for registering additional routes.
func (r *Router) Mux() *http.ServeMux {
	return r.mux
}

// SetSchedulerProvider sets the scheduler status provider.
func (r *Router) SetSchedulerProvider(provider SchedulerStatusProvider) {
	r.schedulerProvider = provider
}

// SetActiveRunProvider sets the active run provider.
func (r *Router) SetActiveRunProvider(provider ActiveRunProvider) {
	r.runProvider = provider
}

// SetMetricsHandler registers the Prometheus metrics endpoint.
func (r *Router) SetMetricsHandler(handler http.Handler) {
	if handler != nil {
		r.mux.Handle("GET /metrics", handler)
	}
}

// ServeHTTP implements http.Handler with request logging applied.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()

	defer func() {
		r.logger.Info("request completed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int64(log.DurationKey, time.Since(start).Milliseconds()),
		)
	}()

	r.mux.ServeHTTP(w, req)
}

// handleHealth handles GET /v1/health.
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	checks := make(map[string]string)
	if r.schedulerProvider != nil {
		if r.schedulerProvider.Started() {
			checks["scheduler"] = "started"
		} else {
			checks["scheduler"] = "stopped"
		}
	}

	resp := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(r.startedAt).Round(time.Second).String(),
		"checks":    checks,
	}
	if r.runProvider != nil {
		resp["active_runs"] = r.runProvider.ActiveRunCount()
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// handleVersion handles GET /v1/version.
func (r *Router) handleVersion(w http.ResponseWriter, req *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"version":    r.config.Version,
		"commit":     r.config.Commit,
		"build_date": r.config.BuildDate,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	})
}

// handleRoot handles GET / for basic connectivity.
func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"name":    "mediaforged",
		"version": r.config.Version,
	})
}
