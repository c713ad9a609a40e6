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
	"time"
)

// DefaultStages returns a built-in stage set that simulates the production
// pipeline: it produces a canned video project with representative costs and
// quality scores. Useful for local development and end-to-end testing without
// external content, rendering, or upload services.
func DefaultStages() map[string]StageFunc {
	return map[string]StageFunc{
		"setup": func(ctx context.Context, p *Project) error {
			p.Assets["workspace"] = "/tmp/mediaforge"
			return nil
		},
		"channel-profile": func(ctx context.Context, p *Project) error {
			p.Assets["channel"] = "default"
			return nil
		},
		"content-research": func(ctx context.Context, p *Project) error {
			p.Topic = "Daily tech briefing"
			p.AddCost("content-research", 0.12)
			return nil
		},
		"script-generation": func(ctx context.Context, p *Project) error {
			p.Script = fmt.Sprintf("Script for %q", p.Topic)
			p.AddCost("script-generation", 0.45)
			p.SetQuality("script", 88)
			return nil
		},
		"visual-generation": func(ctx context.Context, p *Project) error {
			p.Assets["visuals"] = "visuals.zip"
			p.AddCost("visual-generation", 1.80)
			p.SetQuality("visuals", 84)
			return nil
		},
		"audio-generation": func(ctx context.Context, p *Project) error {
			p.Assets["narration"] = "narration.wav"
			p.AddCost("audio-generation", 0.60)
			p.SetQuality("audio", 90)
			return nil
		},
		"video-editing": func(ctx context.Context, p *Project) error {
			p.Assets["master"] = "master.mp4"
			p.DurationSeconds = 645
			p.AddCost("video-editing", 0.25)
			return nil
		},
		"upload-preparation": func(ctx context.Context, p *Project) error {
			p.Assets["thumbnail"] = "thumbnail.png"
			return nil
		},
		"youtube-upload": func(ctx context.Context, p *Project) error {
			p.VideoURL = fmt.Sprintf("https://youtube.example/watch?v=%d", time.Now().UnixNano())
			return nil
		},
		"completion": func(ctx context.Context, p *Project) error {
			return nil
		},
	}
}
