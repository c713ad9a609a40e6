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

// newHealthCommand creates the health command.
func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check daemon health",
		Example: `  # Basic health check
  mediaforge health

  # Use in scripts
  mediaforge health --json | jq -e '.status == "ok"'`,
		Args: cobra.NoArgs,
		RunE: runHealth,
	}
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := newClient()
	if err != nil {
		return err
	}

	health, err := c.Health(ctx)
	if err != nil {
		return fmt.Errorf("daemon not reachable: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(health)
	}

	fmt.Printf("Status: %s\n", health.Status)
	if health.Uptime != "" {
		fmt.Printf("Uptime: %s\n", health.Uptime)
	}
	for name, state := range health.Checks {
		fmt.Printf("  %s: %s\n", name, state)
	}
	return nil
}
