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

// Package daemon assembles and runs the mediaforged daemon: the execution
// registry, the pipeline runner, the cron scheduler, and the HTTP API.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mediaforge/mediaforge/internal/config"
	"github.com/mediaforge/mediaforge/internal/daemon/api"
	"github.com/mediaforge/mediaforge/internal/daemon/listener"
	"github.com/mediaforge/mediaforge/internal/daemon/metrics"
	"github.com/mediaforge/mediaforge/internal/daemon/registry/memory"
	"github.com/mediaforge/mediaforge/internal/daemon/runner"
	"github.com/mediaforge/mediaforge/internal/daemon/scheduler"
	internallog "github.com/mediaforge/mediaforge/internal/log"
	"github.com/mediaforge/mediaforge/internal/pipeline"
)

// Options contains daemon options set at build time.
type Options struct {
	Version   string
	Commit    string
	BuildDate string
}

// Daemon is the main mediaforged daemon.
type Daemon struct {
	cfg       *config.Config
	opts      Options
	logger    *slog.Logger
	server    *http.Server
	ln        net.Listener
	pidFile   string
	runner    *runner.Runner
	scheduler *scheduler.Scheduler

	mu      sync.Mutex
	started bool
}

// New creates a new daemon instance.
func New(cfg *config.Config, opts Options) (*Daemon, error) {
	logger := internallog.WithComponent(internallog.New(internallog.FromEnv()), "daemon")

	store := memory.New()

	executor := pipeline.NewExecutor(pipeline.DefaultStages(),
		internallog.WithComponent(logger, "pipeline"))

	r := runner.New(runner.Config{
		MaxParallel:    cfg.Daemon.MaxConcurrentRuns,
		DefaultTimeout: cfg.Daemon.DefaultTimeout,
	}, store, executor, logger)

	sched, err := scheduler.New(scheduler.Config{
		Cron:     cfg.Daemon.Scheduler.Cron,
		Timezone: cfg.Daemon.Scheduler.Timezone,
	}, r, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Daemon{
		cfg:       cfg,
		opts:      opts,
		logger:    logger,
		runner:    r,
		scheduler: sched,
	}, nil
}

// Runner returns the daemon's pipeline runner.
func (d *Daemon) Runner() *runner.Runner {
	return d.runner
}

// Scheduler returns the daemon's cron scheduler.
func (d *Daemon) Scheduler() *scheduler.Scheduler {
	return d.scheduler
}

// Start starts the daemon and blocks until the context is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return fmt.Errorf("daemon already started")
	}
	d.started = true
	d.mu.Unlock()

	if d.cfg.Daemon.PIDFile != "" {
		if err := d.writePIDFile(); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		d.pidFile = d.cfg.Daemon.PIDFile
	}

	ln, err := listener.New(d.cfg.Daemon.Listen)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	d.ln = ln

	router := api.NewRouter(api.RouterConfig{
		Version:   d.opts.Version,
		Commit:    d.opts.Commit,
		BuildDate: d.opts.BuildDate,
	})

	workflowHandler := api.NewWorkflowHandler(d.runner)
	workflowHandler.RegisterRoutes(router.Mux())

	schedulerHandler := api.NewSchedulerHandler(d.scheduler, ctx)
	schedulerHandler.RegisterRoutes(router.Mux())

	router.SetSchedulerProvider(d.scheduler)
	router.SetActiveRunProvider(d.runner)
	router.SetMetricsHandler(metrics.Handler())

	d.server = &http.Server{
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	d.logger.Info("mediaforged starting",
		slog.String("version", d.opts.Version),
		slog.String("listen_addr", ln.Addr().String()))

	if d.cfg.Daemon.Scheduler.Enabled {
		d.scheduler.Start(ctx)
		d.logger.Info("scheduler started",
			slog.String("cron", d.cfg.Daemon.Scheduler.Cron),
			slog.String("timezone", d.cfg.Daemon.Scheduler.Timezone))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := d.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the daemon. New work is refused while
// active executions drain, then the scheduler and HTTP server stop.
func (d *Daemon) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return nil
	}

	activeCount := d.runner.ActiveRunCount()
	d.logger.Info("graceful shutdown initiated",
		slog.Int("active_executions", activeCount))

	d.runner.StartDraining()

	if d.server != nil {
		d.server.SetKeepAlivesEnabled(false)
	}

	drainCtx, drainCancel := context.WithTimeout(ctx, d.cfg.Daemon.DrainTimeout)
	defer drainCancel()

	if err := d.runner.WaitForDrain(drainCtx, d.cfg.Daemon.DrainTimeout); err != nil {
		remaining := d.runner.ActiveRunCount()
		d.logger.Warn("drain timeout exceeded",
			slog.Int("remaining_executions", remaining),
			slog.Duration("drain_timeout", d.cfg.Daemon.DrainTimeout))
	} else {
		d.logger.Info("all executions completed during drain")
	}

	d.scheduler.Stop()

	if d.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, d.cfg.Daemon.ShutdownTimeout)
		defer cancel()

		if err := d.server.Shutdown(shutdownCtx); err != nil {
			d.logger.Error("HTTP server shutdown error",
				internallog.Error(err))
		}
	}

	if d.pidFile != "" {
		if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
			d.logger.Error("failed to remove PID file",
				internallog.Error(err),
				slog.String("path", d.pidFile))
		}
	}

	if d.cfg.Daemon.Listen.SocketPath != "" && d.cfg.Daemon.Listen.TCPAddr == "" {
		if err := os.Remove(d.cfg.Daemon.Listen.SocketPath); err != nil && !os.IsNotExist(err) {
			d.logger.Error("failed to remove socket file",
				internallog.Error(err),
				slog.String("path", d.cfg.Daemon.Listen.SocketPath))
		}
	}

	d.started = false
	d.logger.Info("daemon stopped")
	return nil
}

// writePIDFile writes the current process ID to the PID file.
func (d *Daemon) writePIDFile() error {
	dir := filepath.Dir(d.cfg.Daemon.PIDFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	pid := os.Getpid()
	return os.WriteFile(d.cfg.Daemon.PIDFile, []byte(fmt.Sprintf("%d\n", pid)), 0600)
}
