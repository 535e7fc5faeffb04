// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package continuation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces continuation entries inside the shared database.
var keyPrefix = []byte("continuation/")

// BadgerStore implements Store on an embedded BadgerDB.
//
// # Description
//
// BadgerStore is the deployment option for multiple chatbot processes
// sharing one data directory. Expiry rides Badger's native entry TTL: every
// Put writes with the store's retention window, and Badger hides expired
// entries from reads on its own. Sweep therefore only triggers value-log
// garbage collection; the externally observable retention contract (present
// before the TTL elapses, absent after) holds either way.
//
// # Thread Safety
//
// Badger transactions are safe for concurrent use; same-session races
// resolve last-writer-wins like the in-memory store.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerStore opens (or creates) a Badger database at dir.
//
// ttl <= 0 falls back to DefaultTTL. The caller owns the store and must
// Close it on shutdown.
func NewBadgerStore(dir string, ttl time.Duration) (*BadgerStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("continuation: opening badger at %q: %w", dir, err)
	}
	slog.Info("Opened continuation store", "backend", "badger", "dir", dir, "ttl", ttl)
	return &BadgerStore{db: db, ttl: ttl}, nil
}

// newBadgerStoreInMemory is the test constructor: no files, same semantics.
func newBadgerStoreInMemory(ttl time.Duration) (*BadgerStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, ttl: ttl}, nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error { return s.db.Close() }

// Put stores state under state.SessionID with the store's TTL.
func (s *BadgerStore) Put(_ context.Context, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("continuation: encoding state: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key(state.SessionID), raw).WithTTL(s.ttl)
		return txn.SetEntry(e)
	})
}

// Get returns the state for sessionID, or ErrNotFound (including entries
// Badger has already expired).
func (s *BadgerStore) Get(_ context.Context, sessionID string) (State, error) {
	var st State
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(sessionID))
		if err != nil {
			return err
		}
		return item.Value(func(raw []byte) error {
			return json.Unmarshal(raw, &st)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("continuation: reading state: %w", err)
	}
	return st, nil
}

// Delete removes the state for sessionID.
func (s *BadgerStore) Delete(_ context.Context, sessionID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(sessionID))
	})
}

// Sweep triggers value-log garbage collection. Expired entries are already
// invisible to Get; this reclaims their space.
func (s *BadgerStore) Sweep(_ context.Context, _ time.Time, _ time.Duration) (int, error) {
	err := s.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrGCInMemoryMode) {
		return 0, fmt.Errorf("continuation: value log GC: %w", err)
	}
	return 0, nil
}

func key(sessionID string) []byte {
	return append(append([]byte(nil), keyPrefix...), sessionID...)
}
