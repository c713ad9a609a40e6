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

	"github.com/mediaforge/mediaforge/internal/client"
	"github.com/spf13/cobra"
)

// newStatusCommand creates the status command.
func newStatusCommand() *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status <execution-id>",
		Short: "Show the status of a production run",
		Long: `Show the status of a production run: state, progress, completed
pipeline stages, accumulated costs, and the final video once available.`,
		Example: `  # Show current status
  mediaforge status exec_5b9f8c3a-4c2d-4f1e-9a7b-1c2d3e4f5a6b

  # Follow a run until it finishes
  mediaforge status exec_5b9f8c3a-4c2d-4f1e-9a7b-1c2d3e4f5a6b --watch

  # Machine-readable output
  mediaforge status exec_5b9f8c3a-4c2d-4f1e-9a7b-1c2d3e4f5a6b --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(args[0], watch, interval)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll until the run reaches a terminal state")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Polling interval for --watch")

	return cmd
}

func runStatus(id string, watch bool, interval time.Duration) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		status, err := c.WorkflowStatus(ctx, id)
		cancel()
		if err != nil {
			return err
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(status); err != nil {
				return err
			}
		} else {
			printStatus(status)
		}

		terminal := status.Status == "completed" || status.Status == "failed"
		if !watch || terminal {
			if status.Status == "failed" {
				os.Exit(1)
			}
			return nil
		}

		time.Sleep(interval)
	}
}

func printStatus(s *client.ExecutionStatus) {
	fmt.Printf("Execution: %s\n", s.ID)
	fmt.Printf("Status:    %s\n", s.Status)
	fmt.Printf("Progress:  %d%%\n", s.Progress)
	if s.CurrentNode != "" {
		fmt.Printf("Current:   %s\n", s.CurrentNode)
	}
	if len(s.CompletedNodes) > 0 {
		fmt.Printf("Completed: %d stages\n", len(s.CompletedNodes))
		for _, node := range s.CompletedNodes {
			fmt.Printf("  - %s\n", node)
		}
	}
	if s.Costs != nil && s.Costs.Total > 0 {
		fmt.Printf("Costs:     $%.2f\n", s.Costs.Total)
	}
	if s.FinalVideo != nil && s.FinalVideo.URL != "" {
		fmt.Printf("Video:     %s\n", s.FinalVideo.URL)
	}
	for _, e := range s.Errors {
		fmt.Printf("Error:     [%s] %s\n", e.Node, e.Error)
	}
}
