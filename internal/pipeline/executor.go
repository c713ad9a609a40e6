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

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mediaforge/mediaforge/internal/log"
	"github.com/mediaforge/mediaforge/pkg/errors"
)

// Project is the mutable working state shared by stage functions as the
// pipeline advances. Each stage reads what earlier stages produced and
// records its own outputs, costs, and quality scores.
type Project struct {
	Trigger   Trigger
	StartedAt time.Time

	// Content produced along the way.
	Topic    string
	Script   string
	Assets   map[string]string
	VideoURL string

	// DurationSeconds is the length of the rendered video.
	DurationSeconds float64

	costs   map[string]float64
	quality map[string]float64
}

// AddCost records spend attributed to a stage. Repeated calls accumulate.
func (p *Project) AddCost(stage string, amount float64) {
	if p.costs == nil {
		p.costs = make(map[string]float64)
	}
	p.costs[stage] += amount
}

// SetQuality records a quality score (0-100) for a named dimension.
func (p *Project) SetQuality(dimension string, score float64) {
	if p.quality == nil {
		p.quality = make(map[string]float64)
	}
	p.quality[dimension] = score
}

// StageFunc is a single pipeline stage. It mutates the project in place and
// returns an error to abort the whole execution.
type StageFunc func(ctx context.Context, p *Project) error

// Executor is a Runner that walks the stage catalog in order, applying the
// registered stage function for each stage against a shared Project.
type Executor struct {
	stages map[string]StageFunc
	logger *slog.Logger
}

// NewExecutor creates an Executor from a stage-name to StageFunc mapping.
// Every stage in the catalog must have a registered function; execution fails
// at the first unregistered stage.
func NewExecutor(stages map[string]StageFunc, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		stages: stages,
		logger: log.WithComponent(logger, "pipeline"),
	}
}

// Execute runs all stages in catalog order and assembles the Result.
// The first stage error aborts the execution; the returned error is a
// PipelineError naming the failing stage.
func (e *Executor) Execute(ctx context.Context, trigger Trigger) (*Result, error) {
	project := &Project{
		Trigger:   trigger,
		StartedAt: time.Now(),
		Assets:    make(map[string]string),
	}

	var completed []string
	for _, stage := range catalog {
		if err := ctx.Err(); err != nil {
			return nil, &errors.PipelineError{
				Stage:   stage,
				Message: fmt.Sprintf("execution aborted: %v", err),
				Cause:   err,
			}
		}

		fn, ok := e.stages[stage]
		if !ok {
			return nil, &errors.PipelineError{
				Stage:   stage,
				Message: "no handler registered for stage",
			}
		}

		start := time.Now()
		if err := fn(ctx, project); err != nil {
			e.logger.Error("stage failed",
				slog.String(log.StageKey, stage),
				log.Error(err))
			return nil, &errors.PipelineError{
				Stage:   stage,
				Message: err.Error(),
				Cause:   err,
			}
		}
		completed = append(completed, stage)
		e.logger.Debug("stage completed",
			slog.String(log.StageKey, stage),
			slog.Int64(log.DurationKey, time.Since(start).Milliseconds()))
	}

	return e.assemble(project, completed), nil
}

// assemble builds the final Result from the finished project.
func (e *Executor) assemble(project *Project, completed []string) *Result {
	result := &Result{
		CompletedStages: completed,
		Costs:           CostSummary{Breakdown: project.costs},
		Quality:         QualitySummary{Scores: project.quality},
	}
	if len(completed) > 0 {
		result.CurrentStage = completed[len(completed)-1]
	}

	for _, amount := range project.costs {
		result.Costs.Total += amount
	}

	if len(project.quality) > 0 {
		var sum float64
		for _, score := range project.quality {
			sum += score
		}
		result.Quality.Overall = sum / float64(len(project.quality))
	}

	if project.VideoURL != "" {
		result.FinalVideo = &Artifact{
			URL:             project.VideoURL,
			DurationSeconds: project.DurationSeconds,
		}
	}

	return result
}
