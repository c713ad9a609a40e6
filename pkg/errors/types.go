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

package errors

import (
	"fmt"
)

// ValidationError represents user input validation failures.
// Use this for invalid request fields, malformed data, or constraint violations.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a resource not found error.
// Use this when a requested resource does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "execution", "schedule")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// DuplicateIDError represents an identifier collision on admission.
// The launcher derives ids from a UUID, so hitting this indicates a broken
// id generator rather than a recoverable condition.
type DuplicateIDError struct {
	// ID is the identifier that already exists
	ID string
}

// Error implements the error interface.
func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("execution id already exists: %s", e.ID)
}

// InvalidTransitionError represents an attempt to re-resolve a record that
// already reached a terminal state.
type InvalidTransitionError struct {
	// ID is the execution identifier
	ID string

	// State is the record's current (terminal) state
	State string
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("execution %s already terminal (state: %s)", e.ID, e.State)
}

// PipelineError represents a failure raised by the video pipeline itself.
// It is captured into the execution record and never propagated as a crash.
type PipelineError struct {
	// Stage is the pipeline stage the failure originated in, if known
	Stage string

	// Message is the human-readable error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("pipeline failed at %s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("pipeline failed: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// ConfigError represents a configuration loading or validation failure.
type ConfigError struct {
	// Key is the configuration key or section that failed
	Key string

	// Reason is the human-readable error description
	Reason string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error (%s): %s: %v", e.Key, e.Reason, e.Cause)
	}
	return fmt.Sprintf("config error (%s): %s", e.Key, e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
