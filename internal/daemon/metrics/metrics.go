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

// Package metrics exposes Prometheus metrics for execution tracking.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaforge_runs_started_total",
			Help: "Total pipeline executions admitted, by trigger source",
		},
		[]string{"trigger"},
	)

	runsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaforge_runs_finished_total",
			Help: "Total pipeline executions reaching a terminal state, by outcome",
		},
		[]string{"status"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "mediaforge_run_duration_seconds",
			Help: "Wall-clock duration of pipeline executions",
			// Pipelines run for tens of minutes; buckets span 1s to ~4.5h.
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		},
	)

	scheduleFires = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediaforge_schedule_fires_total",
			Help: "Total scheduler firings",
		},
	)

	scheduleErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediaforge_schedule_errors_total",
			Help: "Total scheduler firings that failed to admit an execution",
		},
	)
)

// RecordRunStart increments the started counter for the given trigger.
func RecordRunStart(trigger string) {
	runsStarted.WithLabelValues(trigger).Inc()
}

// RecordRunFinished records a terminal outcome and its duration.
func RecordRunFinished(status string, duration time.Duration) {
	runsFinished.WithLabelValues(status).Inc()
	runDuration.Observe(duration.Seconds())
}

// RecordScheduleFire increments the scheduler firing counter.
func RecordScheduleFire() {
	scheduleFires.Inc()
}

// RecordScheduleError increments the scheduler error counter.
func RecordScheduleError() {
	scheduleErrors.Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
