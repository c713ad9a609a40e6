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

// Status resolution: normalizes an execution record into the progress view
// the polling client consumes. The JSON field names are part of the client
// wire contract and stay camelCase.
package runner

import (
	"context"
	"math"
	"time"

	"github.com/mediaforge/mediaforge/internal/daemon/registry"
	"github.com/mediaforge/mediaforge/internal/pipeline"
)

// Progress reported for an in-flight execution. The pipeline publishes no
// incremental progress in the base design, so the resolver returns a fixed
// conservative placeholder instead of fabricating precision.
const (
	runningProgress    = 25
	runningCurrentNode = "processing"
)

// StatusView is the normalized status of one execution.
type StatusView struct {
	ID             string                   `json:"id"`
	Status         registry.State           `json:"status"`
	CurrentNode    string                   `json:"currentNode"`
	CompletedNodes []string                 `json:"completedNodes"`
	Progress       int                      `json:"progress"`
	Costs          *pipeline.CostSummary    `json:"costs"`
	Quality        *pipeline.QualitySummary `json:"quality,omitempty"`
	FinalVideo     *pipeline.Artifact       `json:"finalVideo,omitempty"`
	Errors         []StatusError            `json:"errors"`
	StartedAt      time.Time                `json:"startedAt"`
	EndedAt        *time.Time               `json:"endedAt,omitempty"`
}

// StatusError is one error entry in a status view.
type StatusError struct {
	Node      string    `json:"node"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Status looks up the record for id and resolves it into a StatusView.
func (r *Runner) Status(ctx context.Context, id string) (*StatusView, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Resolve(rec), nil
}

// Resolve normalizes a record into the view served to polling clients.
// Terminal records always resolve to the same view, so repeated polls after
// completion observe identical state.
func Resolve(rec *registry.Record) *StatusView {
	view := &StatusView{
		ID:             rec.ID,
		Status:         rec.State,
		CompletedNodes: []string{},
		Errors:         []StatusError{},
		Costs:          &pipeline.CostSummary{},
		StartedAt:      rec.StartedAt,
		EndedAt:        rec.EndedAt,
	}

	switch rec.State {
	case registry.StateCompleted:
		resolveCompleted(view, rec.Result)
	case registry.StateFailed:
		resolveFailed(view, rec)
	default:
		view.CurrentNode = runningCurrentNode
		view.Progress = runningProgress
	}

	return view
}

// resolveCompleted passes the pipeline result through verbatim and computes
// progress over the stage catalog.
func resolveCompleted(view *StatusView, result *pipeline.Result) {
	if result == nil {
		return
	}
	if result.CompletedStages != nil {
		view.CompletedNodes = result.CompletedStages
	}
	view.CurrentNode = result.CurrentStage
	view.Progress = progressPercent(len(result.CompletedStages))
	view.Costs = &result.Costs
	view.Quality = &result.Quality
	view.FinalVideo = result.FinalVideo
	for _, e := range result.Errors {
		view.Errors = append(view.Errors, StatusError{
			Node:      e.Stage,
			Error:     e.Message,
			Timestamp: e.Timestamp,
		})
	}
}

// resolveFailed reports zero progress and a single error entry. The stage is
// "unknown" unless the pipeline error named one.
func resolveFailed(view *StatusView, rec *registry.Record) {
	view.Progress = 0

	node := "unknown"
	message := "pipeline failed with no error message"
	if rec.Failure != nil {
		if rec.Failure.Stage != "" {
			node = rec.Failure.Stage
		}
		if rec.Failure.Message != "" {
			message = rec.Failure.Message
		}
	}

	timestamp := rec.StartedAt
	if rec.EndedAt != nil {
		timestamp = *rec.EndedAt
	}

	view.Errors = append(view.Errors, StatusError{
		Node:      node,
		Error:     message,
		Timestamp: timestamp,
	})
}

// progressPercent computes round(100 * completed / total) over the stage
// catalog.
func progressPercent(completed int) int {
	total := pipeline.StageCount()
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
