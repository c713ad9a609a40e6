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

// Package runner admits pipeline executions and supervises them to a
// terminal state. Admission returns immediately with the execution id; a
// supervised goroutine runs the pipeline and performs exactly one terminal
// transition against the registry. Pipeline errors and panics are captured
// into the failed record and never escape.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mediaforge/mediaforge/internal/daemon/metrics"
	"github.com/mediaforge/mediaforge/internal/daemon/registry"
	"github.com/mediaforge/mediaforge/internal/log"
	"github.com/mediaforge/mediaforge/internal/pipeline"
	mferrors "github.com/mediaforge/mediaforge/pkg/errors"
)

// Config contains runner configuration.
type Config struct {
	// MaxParallel bounds concurrently executing pipelines.
	MaxParallel int

	// DefaultTimeout bounds a single pipeline execution.
	DefaultTimeout time.Duration
}

// Runner manages pipeline executions.
type Runner struct {
	store    registry.Store
	pipeline pipeline.Runner
	logger   *slog.Logger

	semaphore  chan struct{}
	defTimeout time.Duration

	// draining indicates the runner is in graceful shutdown mode
	draining atomic.Bool
}

// New creates a new Runner.
func New(cfg Config, store registry.Store, pl pipeline.Runner, logger *slog.Logger) *Runner {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 4
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 45 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		store:      store,
		pipeline:   pl,
		logger:     log.WithComponent(logger, "runner"),
		semaphore:  make(chan struct{}, cfg.MaxParallel),
		defTimeout: cfg.DefaultTimeout,
	}
}

// Start admits a new execution and returns its record snapshot without
// waiting for the pipeline. The pipeline runs in a supervised goroutine that
// resolves the record exactly once.
func (r *Runner) Start(ctx context.Context, trigger pipeline.Trigger) (*registry.Record, error) {
	// Best-effort gate: an admission racing StartDraining can still slip in
	// between this check and Create. The run is tracked and counted like any
	// other, so WaitForDrain waits for it too.
	if r.IsDraining() {
		return nil, fmt.Errorf("runner is draining, not accepting new executions")
	}

	id := "exec_" + uuid.NewString()

	rec, err := r.store.Create(ctx, id, trigger)
	if err != nil {
		return nil, mferrors.Wrap(err, "admitting execution")
	}

	metrics.RecordRunStart(string(trigger))
	r.logger.Info("execution admitted",
		slog.String(log.ExecIDKey, id),
		slog.String(log.TriggerKey, string(trigger)))

	go r.execute(id, trigger)

	return rec, nil
}

// Get returns a snapshot of the execution record with the given id.
func (r *Runner) Get(ctx context.Context, id string) (*registry.Record, error) {
	return r.store.Get(ctx, id)
}

// List returns snapshots of all execution records, newest first.
func (r *Runner) List(ctx context.Context) ([]*registry.Record, error) {
	return r.store.List(ctx)
}

// execute runs the pipeline for one admitted execution and records the
// terminal outcome. It never returns an error: every failure path ends in a
// failed record, and a transition failure is logged rather than propagated
// since the admitting caller has long since returned.
func (r *Runner) execute(id string, trigger pipeline.Trigger) {
	logger := log.WithExecID(r.logger, id)
	start := time.Now()

	r.semaphore <- struct{}{}
	defer func() { <-r.semaphore }()

	// The admitting request context is gone by now; the pipeline gets its
	// own deadline-bound context.
	ctx, cancel := context.WithTimeout(context.Background(), r.defTimeout)
	defer cancel()

	result, err := r.runPipeline(ctx, trigger)
	duration := time.Since(start)

	if err != nil {
		failure := registry.Failure{Message: err.Error()}
		var perr *mferrors.PipelineError
		if mferrors.As(err, &perr) {
			failure.Stage = perr.Stage
		}
		if failure.Message == "" {
			failure.Message = "pipeline failed with no error message"
		}

		if terr := r.store.MarkFailed(context.Background(), id, failure); terr != nil {
			logger.Error("failed to record pipeline failure", log.Error(terr))
			return
		}
		metrics.RecordRunFinished(string(registry.StateFailed), duration)
		logger.Error("execution failed",
			slog.Int64(log.DurationKey, duration.Milliseconds()),
			log.Error(err))
		return
	}

	if terr := r.store.MarkCompleted(context.Background(), id, result); terr != nil {
		logger.Error("failed to record pipeline result", log.Error(terr))
		return
	}
	metrics.RecordRunFinished(string(registry.StateCompleted), duration)
	logger.Info("execution completed",
		slog.Int64(log.DurationKey, duration.Milliseconds()),
		slog.Int("completed_stages", len(result.CompletedStages)))
}

// runPipeline invokes the pipeline, converting a panic into an error so the
// supervising goroutine always reaches a terminal transition.
func (r *Runner) runPipeline(ctx context.Context, trigger pipeline.Trigger) (result *pipeline.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = fmt.Errorf("pipeline panic: %v", p)
		}
	}()
	return r.pipeline.Execute(ctx, trigger)
}

// StartDraining puts the runner into draining mode. New admissions are
// rejected; in-flight executions continue.
func (r *Runner) StartDraining() {
	r.draining.Store(true)
}

// IsDraining returns true if the runner is in draining mode.
func (r *Runner) IsDraining() bool {
	return r.draining.Load()
}

// ActiveRunCount returns the number of currently running executions.
func (r *Runner) ActiveRunCount() int {
	return r.store.ActiveCount(context.Background())
}

// WaitForDrain waits for all active executions to reach a terminal state or
// until the timeout is reached.
func (r *Runner) WaitForDrain(ctx context.Context, timeout time.Duration) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeoutCh:
			remaining := r.ActiveRunCount()
			if remaining > 0 {
				return fmt.Errorf("drain timeout: %d execution(s) still running", remaining)
			}
			return nil
		case <-ticker.C:
			if r.ActiveRunCount() == 0 {
				return nil
			}
		}
	}
}
