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

// Package memory provides an in-memory execution registry.
// Records live for the life of the process; there is no deletion, which
// bounds correctness (no id reuse) at the cost of slow memory growth.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mediaforge/mediaforge/internal/daemon/registry"
	"github.com/mediaforge/mediaforge/internal/pipeline"
	"github.com/mediaforge/mediaforge/pkg/errors"
)

// Store is an in-memory registry.Store implementation.
type Store struct {
	mu      sync.RWMutex
	records map[string]*registry.Record
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		records: make(map[string]*registry.Record),
	}
}

// Create admits a new record in the running state.
func (s *Store) Create(ctx context.Context, id string, trigger pipeline.Trigger) (*registry.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; exists {
		return nil, &errors.DuplicateIDError{ID: id}
	}

	rec := &registry.Record{
		ID:        id,
		State:     registry.StateRunning,
		Trigger:   trigger,
		StartedAt: time.Now(),
	}
	s.records[id] = rec
	return rec.Clone(), nil
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (*registry.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, &errors.NotFoundError{Resource: "execution", ID: id}
	}
	return rec.Clone(), nil
}

// MarkCompleted transitions a running record to completed.
func (s *Store) MarkCompleted(ctx context.Context, id string, result *pipeline.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[id]
	if !exists {
		return &errors.NotFoundError{Resource: "execution", ID: id}
	}
	if rec.State.Terminal() {
		return &errors.InvalidTransitionError{ID: id, State: string(rec.State)}
	}

	now := time.Now()
	rec.State = registry.StateCompleted
	rec.EndedAt = &now
	rec.Result = result
	return nil
}

// MarkFailed transitions a running record to failed.
func (s *Store) MarkFailed(ctx context.Context, id string, failure registry.Failure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[id]
	if !exists {
		return &errors.NotFoundError{Resource: "execution", ID: id}
	}
	if rec.State.Terminal() {
		return &errors.InvalidTransitionError{ID: id, State: string(rec.State)}
	}

	if failure.Message == "" {
		failure.Message = "pipeline failed with no error message"
	}

	now := time.Now()
	rec.State = registry.StateFailed
	rec.EndedAt = &now
	rec.Failure = &failure
	return nil
}

// List returns copies of all records, newest first.
func (s *Store) List(ctx context.Context) ([]*registry.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*registry.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// ActiveCount returns the number of records still running.
func (s *Store) ActiveCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.records {
		if rec.State == registry.StateRunning {
			count++
		}
	}
	return count
}
