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

// Package cli implements the mediaforge command-line client.
package cli

import (
	"fmt"
	"os"

	"github.com/mediaforge/mediaforge/internal/client"
	"github.com/mediaforge/mediaforge/internal/daemon/listener"
	"github.com/spf13/cobra"
)

// Version information set from build-time ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// Global flag values shared across commands.
var (
	flagJSON bool
	flagHost string
)

// SetVersion sets the version information (called from main).
func SetVersion(v, c, b string) {
	version, commit, buildDate = v, c, b
}

// NewRootCommand creates the root Cobra command for mediaforge.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mediaforge",
		Short: "Mediaforge - automated video production",
		Long: `Mediaforge is a command-line client for the mediaforged daemon, which
runs an automated video production pipeline from topic research through
YouTube upload.

Start a production run with 'mediaforge start', then poll it with
'mediaforge status <id>'. Daily scheduled runs are controlled with
'mediaforge scheduler start' and 'mediaforge scheduler stop'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(&flagHost, "host", "", "Daemon address (unix:///path.sock or tcp://host:port)")

	cmd.AddCommand(newStartCommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newSchedulerCommand())
	cmd.AddCommand(newHealthCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// HandleExitError prints the error and exits with a non-zero code.
func HandleExitError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// newClient creates a daemon client honoring the --host flag and the
// MEDIAFORGE_HOST environment variable.
func newClient() (*client.Client, error) {
	host := flagHost
	if host == "" {
		host = os.Getenv("MEDIAFORGE_HOST")
	}

	listen, err := listener.ParseHost(host)
	if err != nil {
		return nil, err
	}
	if listen == nil {
		return client.New()
	}

	if listen.SocketPath != "" {
		return client.New(client.WithTransport(client.NewUnixTransport(listen.SocketPath)))
	}
	return client.New(client.WithTransport(client.NewTCPTransport(listen.TCPAddr)))
}
