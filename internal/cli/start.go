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

// newStartCommand creates the start command.
func newStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a new video production run",
		Long: `Start a new video production run on the daemon.

The daemon acknowledges the run immediately and executes the pipeline in
the background. Use 'mediaforge status <id>' to follow progress.`,
		Example: `  # Start a run and note the execution id
  mediaforge start

  # Start a run and extract the id for scripting
  mediaforge start --json | jq -r '.id'`,
		Args: cobra.NoArgs,
		RunE: runStart,
	}
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := newClient()
	if err != nil {
		return err
	}

	resp, err := c.StartWorkflow(ctx)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Printf("Workflow started: %s\n", resp.ID)
	fmt.Printf("Check progress with: mediaforge status %s\n", resp.ID)
	return nil
}
