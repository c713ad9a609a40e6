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

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// newSchedulerCommand creates the scheduler command group.
func newSchedulerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Control the daily production scheduler",
		Long: `Control the daemon's cron scheduler for daily production runs.

Starting and stopping are idempotent: starting an already-running
scheduler or stopping an already-stopped one succeeds without effect.`,
	}

	cmd.AddCommand(newSchedulerStartCommand())
	cmd.AddCommand(newSchedulerStopCommand())
	cmd.AddCommand(newSchedulerStatusCommand())

	return cmd
}

func newSchedulerStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start scheduled daily productions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.StartScheduler(ctx); err != nil {
				return err
			}

			fmt.Println("Scheduler started")
			return nil
		},
	}
}

func newSchedulerStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop scheduled daily productions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.StopScheduler(ctx); err != nil {
				return err
			}

			fmt.Println("Scheduler stopped")
			return nil
		},
	}
}

func newSchedulerStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scheduler state and run counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			c, err := newClient()
			if err != nil {
				return err
			}
			status, err := c.SchedulerStatus(ctx)
			if err != nil {
				return err
			}

			if flagJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}

			state := "stopped"
			if status.Started {
				state = "started"
			}
			fmt.Printf("Scheduler: %s\n", state)
			fmt.Printf("Schedule:  %s (%s)\n", status.Schedule, status.Timezone)
			if status.NextRun != "" {
				fmt.Printf("Next run:  %s\n", status.NextRun)
			}
			if status.LastRun != "" {
				fmt.Printf("Last run:  %s\n", status.LastRun)
			}
			fmt.Printf("Runs:      %d (%d errors)\n", status.RunCount, status.ErrorCount)
			return nil
		},
	}
}
