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

// Package client provides an HTTP client for the mediaforged daemon API,
// connecting over a Unix socket by default.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Client is a client for the mediaforged daemon API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a new daemon client with the given options.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: "http://localhost", // Default for Unix socket
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.httpClient == nil {
		transport, err := DefaultTransport()
		if err != nil {
			return nil, fmt.Errorf("failed to create transport: %w", err)
		}
		c.httpClient = &http.Client{Transport: transport}
	}

	return c, nil
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = client
		return nil
	}
}

// WithTransport sets a custom transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) error {
		c.httpClient = &http.Client{Transport: transport}
		return nil
	}
}

// WithBaseURL sets the base URL for requests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		c.baseURL = baseURL
		return nil
	}
}

// APIError is an error response from the daemon.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("daemon returned error %d: %s", e.StatusCode, e.Message)
}

// StartResponse is the acknowledgment for a workflow start.
type StartResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CostSummary reports accumulated production costs.
type CostSummary struct {
	Total     float64            `json:"total"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// QualitySummary reports per-stage quality scores.
type QualitySummary struct {
	Scores  map[string]float64 `json:"scores,omitempty"`
	Overall float64            `json:"overall,omitempty"`
}

// Artifact describes a produced video.
type Artifact struct {
	URL             string  `json:"url,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
}

// StageErrorEntry is one recorded stage failure.
type StageErrorEntry struct {
	Node      string `json:"node"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// ExecutionStatus is the normalized status view of one execution.
type ExecutionStatus struct {
	ID             string            `json:"id"`
	Status         string            `json:"status"`
	CurrentNode    string            `json:"currentNode,omitempty"`
	CompletedNodes []string          `json:"completedNodes"`
	Progress       int               `json:"progress"`
	Costs          *CostSummary      `json:"costs,omitempty"`
	Quality        *QualitySummary   `json:"quality,omitempty"`
	FinalVideo     *Artifact         `json:"finalVideo,omitempty"`
	Errors         []StageErrorEntry `json:"errors"`
	StartedAt      string            `json:"startedAt"`
	EndedAt        string            `json:"endedAt,omitempty"`
}

// SchedulerStatus reports the scheduler's current state.
type SchedulerStatus struct {
	Started    bool   `json:"schedulerStarted"`
	Schedule   string `json:"schedule"`
	Timezone   string `json:"timezone"`
	NextRun    string `json:"nextRun,omitempty"`
	LastRun    string `json:"lastRun,omitempty"`
	RunCount   int    `json:"runCount"`
	ErrorCount int    `json:"errorCount"`
}

// HealthResponse is the response from /v1/health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// VersionResponse is the response from /v1/version.
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// StartWorkflow launches a new production run and returns the admission
// acknowledgment. The pipeline runs in the background; poll WorkflowStatus
// with the returned id.
func (c *Client) StartWorkflow(ctx context.Context) (*StartResponse, error) {
	resp, err := c.post(ctx, "/api/workflow/start", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var start StartResponse
	if err := json.NewDecoder(resp.Body).Decode(&start); err != nil {
		return nil, fmt.Errorf("failed to decode start response: %w", err)
	}

	return &start, nil
}

// WorkflowStatus returns the status of the execution with the given id.
func (c *Client) WorkflowStatus(ctx context.Context, id string) (*ExecutionStatus, error) {
	resp, err := c.get(ctx, "/api/workflow/status?id="+url.QueryEscape(id))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status ExecutionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	return &status, nil
}

// StartScheduler starts the daily production scheduler.
func (c *Client) StartScheduler(ctx context.Context) error {
	return c.schedulerAction(ctx, "start")
}

// StopScheduler stops the daily production scheduler.
func (c *Client) StopScheduler(ctx context.Context) error {
	return c.schedulerAction(ctx, "stop")
}

func (c *Client) schedulerAction(ctx context.Context, action string) error {
	body := map[string]string{"action": action}
	resp, err := c.post(ctx, "/api/scheduler", body)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// SchedulerStatus returns the scheduler's current state.
func (c *Client) SchedulerStatus(ctx context.Context) (*SchedulerStatus, error) {
	resp, err := c.get(ctx, "/api/scheduler")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status SchedulerStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode scheduler response: %w", err)
	}

	return &status, nil
}

// Health returns the daemon health status.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.get(ctx, "/v1/health")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}

	return &health, nil
}

// Version returns the daemon version information.
func (c *Client) Version(ctx context.Context) (*VersionResponse, error) {
	resp, err := c.get(ctx, "/v1/version")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var version VersionResponse
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return nil, fmt.Errorf("failed to decode version response: %w", err)
	}

	return &version, nil
}

// Ping checks if the daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Health(ctx)
	return err
}

// get performs a GET request to the daemon API.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, readAPIError(resp)
	}

	return resp, nil
}

// post performs a POST request with an optional JSON body.
func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, readAPIError(resp)
	}

	return resp, nil
}

// readAPIError drains an error response into an APIError.
func readAPIError(resp *http.Response) error {
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	var errBody struct {
		Error string `json:"error"`
	}
	message := string(data)
	if err := json.Unmarshal(data, &errBody); err == nil && errBody.Error != "" {
		message = errBody.Error
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
