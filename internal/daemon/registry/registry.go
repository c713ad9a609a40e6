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

// Package registry defines the execution registry: the keyed store of run
// records that is the single source of truth for status queries. The Store
// interface keeps the backing implementation swappable; the in-memory
// implementation lives in the memory subpackage.
package registry

import (
	"context"
	"time"

	"github.com/mediaforge/mediaforge/internal/pipeline"
)

// State is the lifecycle state of an execution record.
type State string

const (
	// StateRunning marks an admitted execution whose pipeline is in flight.
	StateRunning State = "running"
	// StateCompleted marks an execution whose pipeline returned a result.
	StateCompleted State = "completed"
	// StateFailed marks an execution whose pipeline raised an error.
	StateFailed State = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Failure records why an execution failed.
type Failure struct {
	// Stage is the pipeline stage the failure originated in, or empty if
	// unknown.
	Stage string `json:"stage,omitempty"`

	// Message is the human-readable failure description.
	Message string `json:"message"`
}

// Record tracks one admitted execution. Exactly one of Result and Failure is
// set once the record is terminal; neither is set while running.
type Record struct {
	ID        string           `json:"id"`
	State     State            `json:"state"`
	Trigger   pipeline.Trigger `json:"trigger"`
	StartedAt time.Time        `json:"started_at"`
	EndedAt   *time.Time       `json:"ended_at,omitempty"`
	Result    *pipeline.Result `json:"result,omitempty"`
	Failure   *Failure         `json:"failure,omitempty"`
}

// Clone returns a deep copy of the record with no aliasing to mutable
// internal state, so readers never observe a partially written record.
func (r *Record) Clone() *Record {
	out := &Record{
		ID:        r.ID,
		State:     r.State,
		Trigger:   r.Trigger,
		StartedAt: r.StartedAt,
	}
	if r.EndedAt != nil {
		t := *r.EndedAt
		out.EndedAt = &t
	}
	if r.Failure != nil {
		f := *r.Failure
		out.Failure = &f
	}
	if r.Result != nil {
		out.Result = cloneResult(r.Result)
	}
	return out
}

func cloneResult(in *pipeline.Result) *pipeline.Result {
	out := &pipeline.Result{
		CurrentStage: in.CurrentStage,
		Costs: pipeline.CostSummary{
			Total:     in.Costs.Total,
			Breakdown: cloneFloatMap(in.Costs.Breakdown),
		},
		Quality: pipeline.QualitySummary{
			Scores:  cloneFloatMap(in.Quality.Scores),
			Overall: in.Quality.Overall,
		},
	}
	if in.CompletedStages != nil {
		out.CompletedStages = make([]string, len(in.CompletedStages))
		copy(out.CompletedStages, in.CompletedStages)
	}
	if in.Errors != nil {
		out.Errors = make([]pipeline.StageError, len(in.Errors))
		copy(out.Errors, in.Errors)
	}
	if in.FinalVideo != nil {
		v := *in.FinalVideo
		out.FinalVideo = &v
	}
	return out
}

func cloneFloatMap(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Store is the execution registry contract. All operations are safe for
// concurrent use. Reads return deep copies; a reader never observes a record
// with a terminal state but no result or failure attached.
type Store interface {
	// Create admits a new record in the running state.
	// Returns a DuplicateIDError if the id already exists.
	Create(ctx context.Context, id string, trigger pipeline.Trigger) (*Record, error)

	// Get returns a copy of the record with the given id.
	// Returns a NotFoundError if the id is unknown.
	Get(ctx context.Context, id string) (*Record, error)

	// MarkCompleted transitions a running record to completed, attaching
	// the pipeline result. Ownership of result passes to the store; the
	// caller must not mutate it afterwards. Returns a NotFoundError for an
	// unknown id and an InvalidTransitionError if the record is already
	// terminal.
	MarkCompleted(ctx context.Context, id string, result *pipeline.Result) error

	// MarkFailed transitions a running record to failed, attaching the
	// failure. Same error contract as MarkCompleted.
	MarkFailed(ctx context.Context, id string, failure Failure) error

	// List returns copies of all records, newest first.
	List(ctx context.Context) ([]*Record, error)

	// ActiveCount returns the number of records still running.
	ActiveCount(ctx context.Context) int
}
