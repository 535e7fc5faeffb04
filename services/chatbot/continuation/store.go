// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package continuation stores the in-flight prompt context of truncated
// answers, keyed by session, so a follow-up "continue" turn can resume
// exactly where the backend stopped.
//
// The engine depends only on the Store contract. MemoryStore is the default
// single-process implementation; BadgerStore backs multi-process deployments
// with an embedded key-value store.
package continuation

import (
	"context"
	"errors"
	"time"

	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
)

// DefaultTTL is the retention window for continuation state. Entries older
// than this are removed by Sweep; between sweeps they may live slightly
// longer, never shorter.
const DefaultTTL = time.Hour

// ErrNotFound is returned by Get when no state exists for the session.
var ErrNotFound = errors.New("continuation: no state for session")

// State is the exact prompt context that produced a truncated answer.
//
// # Fields
//
//   - SessionID: The continuation thread this state belongs to.
//   - SystemPrompt: The system prompt used for the truncated completion,
//     reused verbatim on resume (the relevance selector is not re-run).
//   - AvailableActions: The action subset that was embedded in the prompt.
//   - OriginalQuery: The user's question that started the thread, carried
//     into the resume instruction for reference.
//   - CreatedAt: When this state was stored or last refreshed; drives
//     expiry.
//
// # Lifecycle
//
// Created when a completion is truncated and a session id is present;
// refreshed (overwritten, new CreatedAt) when a continuation is itself
// truncated; deleted when a completion for the session finishes without
// truncation, or when a sweep finds it older than the retention window.
type State struct {
	SessionID        string             `json:"session_id"`
	SystemPrompt     string             `json:"system_prompt"`
	AvailableActions []datatypes.Action `json:"available_actions"`
	OriginalQuery    string             `json:"original_query"`
	CreatedAt        time.Time          `json:"created_at"`
}

// Store is the contract the engine depends on.
//
// # Description
//
// At most one State exists per session id at any time; Put overwrites.
// There is no cross-session visibility. Concurrent operations on the same
// session id resolve last-writer-wins; implementations are not required to
// serialize per key (callers needing stricter guarantees should wrap
// operations in a per-session lock).
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Put stores state under state.SessionID, overwriting any existing
	// entry for that session.
	Put(ctx context.Context, state State) error

	// Get returns the state for sessionID, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (State, error)

	// Delete removes the state for sessionID. Deleting an absent session
	// is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Sweep removes every entry whose CreatedAt is older than now minus
	// ttl and returns how many were removed. Sweeping is opportunistic:
	// the engine calls it on each truncation event rather than on a
	// timer.
	Sweep(ctx context.Context, now time.Time, ttl time.Duration) (int, error)
}
