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

// Package scheduler provides the cron-based periodic trigger for pipeline
// executions. One schedule, configured by cron expression and IANA timezone.
// Start and Stop are idempotent and safe under concurrent control calls.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mediaforge/mediaforge/internal/daemon/metrics"
	"github.com/mediaforge/mediaforge/internal/daemon/registry"
	"github.com/mediaforge/mediaforge/internal/log"
	"github.com/mediaforge/mediaforge/internal/pipeline"
	mferrors "github.com/mediaforge/mediaforge/pkg/errors"
)

// Starter admits a new pipeline execution. Satisfied by runner.Runner.
type Starter interface {
	Start(ctx context.Context, trigger pipeline.Trigger) (*registry.Record, error)
}

// Config contains scheduler configuration.
type Config struct {
	// Cron is the schedule in standard 5-field cron format.
	Cron string

	// Timezone is the IANA zone the cron expression is evaluated in.
	// Defaults to UTC.
	Timezone string
}

// Status describes the scheduler for control-plane queries.
type Status struct {
	Started    bool       `json:"schedulerStarted"`
	Schedule   string     `json:"schedule"`
	Timezone   string     `json:"timezone"`
	NextRun    *time.Time `json:"nextRun,omitempty"`
	LastRun    *time.Time `json:"lastRun,omitempty"`
	RunCount   int64      `json:"runCount"`
	ErrorCount int64      `json:"errorCount"`
}

// Scheduler manages the periodic trigger. Zero or one trigger loop is active
// at any time; the started flag plus mutex guarantee concurrent Start/Stop
// calls cannot double-install or double-remove the loop.
type Scheduler struct {
	starter  Starter
	logger   *slog.Logger
	cronSpec string
	timezone string
	expr     *CronExpr
	loc      *time.Location

	// now is stubbed in tests.
	now func() time.Time

	mu         sync.Mutex
	started    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
	nextRun    time.Time
	lastRun    *time.Time
	runCount   int64
	errorCount int64
}

// New creates a scheduler. The cron expression and timezone are validated
// here so a bad configuration fails at daemon startup, not at first firing.
func New(cfg Config, starter Starter, logger *slog.Logger) (*Scheduler, error) {
	expr, err := ParseCron(cfg.Cron)
	if err != nil {
		return nil, mferrors.Wrapf(err, "invalid cron expression %q", cfg.Cron)
	}

	loc := time.UTC
	timezone := cfg.Timezone
	if timezone == "" {
		timezone = "UTC"
	} else {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, mferrors.Wrapf(err, "invalid timezone %q", timezone)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		starter:  starter,
		logger:   log.WithComponent(logger, "scheduler"),
		cronSpec: cfg.Cron,
		timezone: timezone,
		expr:     expr,
		loc:      loc,
		now:      time.Now,
	}, nil
}

// Start installs the periodic trigger. Calling Start when already started is
// a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.nextRun = s.expr.Next(s.now().In(s.loc))
	stopCh, doneCh, nextRun := s.stopCh, s.doneCh, s.nextRun
	s.mu.Unlock()

	s.logger.Info("scheduler started",
		slog.String("schedule", s.cronSpec),
		slog.String("timezone", s.timezone),
		slog.Time("next_run", nextRun))

	go s.run(ctx, stopCh, doneCh)
}

// Stop removes the periodic trigger and waits for the loop to exit. Calling
// Stop when not started is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	doneCh := s.doneCh
	s.mu.Unlock()

	<-doneCh
	s.logger.Info("scheduler stopped")
}

// Started reports whether the trigger is installed.
func (s *Scheduler) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Status returns the scheduler status.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Started:    s.started,
		Schedule:   s.cronSpec,
		Timezone:   s.timezone,
		LastRun:    s.lastRun,
		RunCount:   s.runCount,
		ErrorCount: s.errorCount,
	}
	if s.started {
		next := s.nextRun
		st.NextRun = &next
	}
	return st
}

// run is the trigger loop. The stop and done channels are passed in rather
// than read from the struct: a later Start replaces the struct fields, and
// this loop must keep listening on the generation it was launched with.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			s.tick(ctx, s.now())
		}
	}
}

// tick fires the trigger when the schedule is due and advances nextRun.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	if !s.started || now.Before(s.nextRun) {
		s.mu.Unlock()
		return
	}
	s.nextRun = s.expr.Next(now.In(s.loc))
	fired := now
	s.lastRun = &fired
	s.runCount++
	s.mu.Unlock()

	go s.fire(ctx)
}

// fire admits one scheduled execution. The id is logged and discarded;
// scheduled runs are fire-and-forget from the scheduler's perspective.
func (s *Scheduler) fire(ctx context.Context) {
	metrics.RecordScheduleFire()

	rec, err := s.starter.Start(ctx, pipeline.TriggerScheduled)
	if err != nil {
		metrics.RecordScheduleError()
		s.mu.Lock()
		s.errorCount++
		s.mu.Unlock()
		s.logger.Error("scheduled trigger failed to admit execution", log.Error(err))
		return
	}

	s.logger.Info("scheduled execution started",
		slog.String(log.ExecIDKey, rec.ID))
}
