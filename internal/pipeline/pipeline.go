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

// Package pipeline defines the video-production pipeline contract: the fixed
// stage catalog, the structured result a finished pipeline produces, and the
// Runner interface the daemon invokes. The daemon treats a Runner as opaque;
// it either returns a Result or fails with an error.
package pipeline

import (
	"context"
	"time"
)

// Trigger identifies what caused a pipeline execution.
type Trigger string

const (
	// TriggerManual marks executions started by an explicit client request.
	TriggerManual Trigger = "manual"
	// TriggerScheduled marks executions started by the cron scheduler.
	TriggerScheduled Trigger = "scheduled"
)

// catalog is the fixed ordered list of pipeline stages. It is static
// configuration: the status resolver uses its length as the progress
// denominator, and the Executor walks it in order.
var catalog = []string{
	"setup",
	"channel-profile",
	"content-research",
	"script-generation",
	"visual-generation",
	"audio-generation",
	"video-editing",
	"upload-preparation",
	"youtube-upload",
	"completion",
}

// Stages returns the ordered stage catalog.
// The returned slice is a copy; callers may not mutate the catalog.
func Stages() []string {
	out := make([]string, len(catalog))
	copy(out, catalog)
	return out
}

// StageCount returns the number of stages in the catalog.
func StageCount() int {
	return len(catalog)
}

// CostSummary aggregates spend across the pipeline.
type CostSummary struct {
	Total     float64            `json:"total"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// QualitySummary holds per-dimension quality scores and an overall score.
type QualitySummary struct {
	Scores  map[string]float64 `json:"scores,omitempty"`
	Overall float64            `json:"overall"`
}

// Artifact describes the final rendered video.
// The JSON field names match the polling client's expectations.
type Artifact struct {
	URL             string  `json:"url"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// StageError records a non-fatal error raised by a pipeline stage.
// The JSON field names match the polling client's expectations.
type StageError struct {
	Stage     string    `json:"node"`
	Message   string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the structured value a successful pipeline execution produces.
type Result struct {
	// CompletedStages lists stage names in completion order.
	CompletedStages []string `json:"completed_nodes"`

	// CurrentStage is the last stage the pipeline ran.
	CurrentStage string `json:"current_node"`

	// Costs is the aggregated cost snapshot.
	Costs CostSummary `json:"costs"`

	// Quality holds quality scores for the produced video.
	Quality QualitySummary `json:"quality"`

	// FinalVideo describes the uploaded artifact, when the pipeline got
	// that far.
	FinalVideo *Artifact `json:"final_video,omitempty"`

	// Errors lists per-stage errors the pipeline recovered from.
	Errors []StageError `json:"errors,omitempty"`
}

// Runner executes the full pipeline for one trigger. The call is
// all-or-nothing: it blocks until the pipeline finishes and returns either a
// Result or an error carrying a human-readable message. No partial results
// are delivered.
type Runner interface {
	Execute(ctx context.Context, trigger Trigger) (*Result, error)
}
