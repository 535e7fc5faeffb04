// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package continuation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore implements Store with an in-process map.
//
// State is lost when the process terminates, which matches the core's
// contract: continuation threads do not survive restarts.
//
// # Thread Safety
//
// All operations are guarded by a single RWMutex. Racing requests for the
// same session resolve last-writer-wins.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// Put stores state under state.SessionID, overwriting any existing entry.
func (s *MemoryStore) Put(_ context.Context, state State) error {
	// Copy the action slice so later caller mutations don't leak in.
	cp := state
	cp.AvailableActions = append(cp.AvailableActions[:0:0], state.AvailableActions...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.SessionID] = cp
	return nil
}

// Get returns the state for sessionID, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[sessionID]
	if !ok {
		return State{}, ErrNotFound
	}
	cp := st
	cp.AvailableActions = append(cp.AvailableActions[:0:0], st.AvailableActions...)
	return cp, nil
}

// Delete removes the state for sessionID, if any.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
	return nil
}

// Sweep removes entries created before now minus ttl.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time, ttl time.Duration) (int, error) {
	cutoff := now.Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, st := range s.states {
		if st.CreatedAt.Before(cutoff) {
			delete(s.states, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("Swept expired continuation state", "removed", removed, "remaining", len(s.states))
	}
	return removed, nil
}

// Len reports how many sessions currently hold state. Used by tests and
// metrics.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
