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

package registry

import (
	"testing"
	"time"

	"github.com/mediaforge/mediaforge/internal/pipeline"
)

func TestState_Terminal(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateRunning, false},
		{StateCompleted, true},
		{StateFailed, true},
	}
	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestRecord_Clone(t *testing.T) {
	ended := time.Now()
	rec := &Record{
		ID:        "exec-1",
		State:     StateCompleted,
		Trigger:   pipeline.TriggerManual,
		StartedAt: ended.Add(-time.Minute),
		EndedAt:   &ended,
		Result: &pipeline.Result{
			CompletedStages: []string{"setup", "channel-profile"},
			CurrentStage:    "channel-profile",
			Costs: pipeline.CostSummary{
				Total:     1.25,
				Breakdown: map[string]float64{"script-generation": 1.25},
			},
			Quality: pipeline.QualitySummary{
				Scores:  map[string]float64{"audio": 88},
				Overall: 88,
			},
			FinalVideo: &pipeline.Artifact{URL: "https://example.com/v"},
			Errors: []pipeline.StageError{
				{Stage: "visual-generation", Message: "retried once", Timestamp: ended},
			},
		},
	}

	clone := rec.Clone()

	// Mutate every mutable field of the clone
	clone.Result.CompletedStages[0] = "mutated"
	clone.Result.Costs.Breakdown["script-generation"] = 99
	clone.Result.Quality.Scores["audio"] = 0
	clone.Result.FinalVideo.URL = "mutated"
	clone.Result.Errors[0].Message = "mutated"
	*clone.EndedAt = time.Time{}

	if rec.Result.CompletedStages[0] != "setup" {
		t.Error("CompletedStages aliased")
	}
	if rec.Result.Costs.Breakdown["script-generation"] != 1.25 {
		t.Error("cost breakdown aliased")
	}
	if rec.Result.Quality.Scores["audio"] != 88 {
		t.Error("quality scores aliased")
	}
	if rec.Result.FinalVideo.URL != "https://example.com/v" {
		t.Error("final video aliased")
	}
	if rec.Result.Errors[0].Message != "retried once" {
		t.Error("errors aliased")
	}
	if rec.EndedAt.IsZero() {
		t.Error("EndedAt aliased")
	}
}

func TestRecord_Clone_Running(t *testing.T) {
	rec := &Record{
		ID:        "exec-2",
		State:     StateRunning,
		Trigger:   pipeline.TriggerScheduled,
		StartedAt: time.Now(),
	}
	clone := rec.Clone()
	if clone.EndedAt != nil || clone.Result != nil || clone.Failure != nil {
		t.Error("Clone() fabricated terminal fields for a running record")
	}
	if clone.ID != rec.ID || clone.Trigger != rec.Trigger {
		t.Error("Clone() lost scalar fields")
	}
}
