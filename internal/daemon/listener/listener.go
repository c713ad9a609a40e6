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

// Package listener provides Unix socket and TCP listener abstractions.
package listener

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/mediaforge/mediaforge/internal/config"
)

// New creates a listener from the given configuration. A TCP address takes
// precedence over a Unix socket when both are configured. Non-localhost TCP
// addresses are refused unless AllowRemote is set.
func New(cfg config.DaemonListenConfig) (net.Listener, error) {
	if cfg.TCPAddr != "" {
		return newTCP(cfg)
	}
	if cfg.SocketPath != "" {
		return newUnix(cfg.SocketPath)
	}
	return nil, fmt.Errorf("listener: no socket path or TCP address configured")
}

// newUnix creates a Unix socket listener with 0600 permissions.
func newUnix(socketPath string) (net.Listener, error) {
	dir := filepath.Dir(socketPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("listener: failed to create socket directory %s: %w", dir, err)
	}

	// Remove stale socket from a previous run
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return nil, fmt.Errorf("listener: failed to remove existing socket %s: %w", socketPath, err)
		}
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listener: failed to listen on unix socket %s: %w", socketPath, err)
	}

	// Owner-only access
	if err := os.Chmod(socketPath, 0600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("listener: failed to set socket permissions: %w", err)
	}

	return ln, nil
}

// newTCP creates a TCP listener, guarding against accidental remote exposure.
func newTCP(cfg config.DaemonListenConfig) (net.Listener, error) {
	if !cfg.AllowRemote && isRemoteAddr(cfg.TCPAddr) {
		return nil, fmt.Errorf("listener: refusing to bind %s: non-localhost addresses require allow_remote", cfg.TCPAddr)
	}

	ln, err := net.Listen("tcp", cfg.TCPAddr)
	if err != nil {
		return nil, fmt.Errorf("listener: failed to listen on %s: %w", cfg.TCPAddr, err)
	}

	return ln, nil
}

// isRemoteAddr reports whether addr would accept connections from other
// hosts. An empty host binds all interfaces and counts as remote.
func isRemoteAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		// Addresses like "::" with no port
		host = addr
	}

	if host == "" {
		return true
	}
	if host == "localhost" {
		return false
	}

	ip := net.ParseIP(host)
	if ip == nil {
		// Hostnames other than localhost could resolve anywhere
		return true
	}

	return !ip.IsLoopback()
}

// ParseHost parses a MEDIAFORGE_HOST-style connection string into a listen
// config. Supported forms:
//
//	unix:///path/to/mediaforge.sock
//	tcp://host:port
//	https://host:port
//
// An empty string returns a nil config, meaning use defaults.
func ParseHost(host string) (*config.DaemonListenConfig, error) {
	if host == "" {
		return nil, nil
	}

	switch {
	case strings.HasPrefix(host, "unix://"):
		return &config.DaemonListenConfig{
			SocketPath: strings.TrimPrefix(host, "unix://"),
		}, nil
	case strings.HasPrefix(host, "tcp://"):
		return &config.DaemonListenConfig{
			TCPAddr: strings.TrimPrefix(host, "tcp://"),
		}, nil
	case strings.HasPrefix(host, "https://"):
		return &config.DaemonListenConfig{
			TCPAddr: strings.TrimPrefix(host, "https://"),
		}, nil
	default:
		return nil, fmt.Errorf("listener: unsupported host format %q (use unix://, tcp://, or https://)", host)
	}
}
