// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package catalog provides the immutable, process-lifetime view over the
// action catalog.
//
// The catalog is loaded once at startup from an atlas.json-shaped source (an
// object whose "result" field holds the action records) and never modified
// afterwards. Because the structure is frozen post-construction, all lookups
// are safe for unrestricted concurrent use without locking.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
)

// ErrNotFound is returned by FindByName for names absent from the catalog.
var ErrNotFound = errors.New("catalog: action not found")

// LoadError reports an unreadable or malformed catalog source.
//
// A LoadError is fatal: the process must not start serving requests without a
// catalog. Use errors.As to distinguish it from transient failures.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("catalog: loading %q: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// atlasFile is the on-disk catalog envelope.
type atlasFile struct {
	Result []datatypes.Action `json:"result"`
}

// Index is the immutable in-memory catalog.
//
// # Thread Safety
//
// Index is never modified after construction; concurrent reads are always
// safe.
type Index struct {
	actions []datatypes.Action
	byName  map[string]int
}

// Load reads and indexes the catalog from the given file path.
//
// # Description
//
// The source must be a JSON object with a "result" array of action records.
// An unreadable file, invalid JSON, a missing result array, a record without
// a type, or a duplicate type all yield a *LoadError.
//
// # Outputs
//
//   - *Index: The indexed catalog, ready for lookups.
//   - error: *LoadError if the source is unreadable or malformed.
func Load(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}

	var file atlasFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	if file.Result == nil {
		return nil, &LoadError{Source: path, Err: errors.New("missing result array")}
	}

	ix, err := New(file.Result)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	slog.Info("Loaded action catalog", "path", path, "actions", ix.Count())
	return ix, nil
}

// New builds an Index from an in-memory action list.
//
// Returns an error if a record has an empty type or a type occurs twice.
// The input slice is copied; the caller may reuse it.
func New(actions []datatypes.Action) (*Index, error) {
	ix := &Index{
		actions: make([]datatypes.Action, len(actions)),
		byName:  make(map[string]int, len(actions)),
	}
	copy(ix.actions, actions)

	for i, a := range ix.actions {
		if a.Type == "" {
			return nil, fmt.Errorf("record %d has no type", i)
		}
		if prev, dup := ix.byName[a.Type]; dup {
			return nil, fmt.Errorf("duplicate action type %q (records %d and %d)", a.Type, prev, i)
		}
		ix.byName[a.Type] = i
	}
	return ix, nil
}

// Count returns the number of loaded actions.
func (ix *Index) Count() int { return len(ix.actions) }

// FindByName returns the action with exactly the given name, or ErrNotFound.
func (ix *Index) FindByName(name string) (datatypes.Action, error) {
	i, ok := ix.byName[name]
	if !ok {
		return datatypes.Action{}, ErrNotFound
	}
	return ix.actions[i], nil
}

// All returns an iterator over every action in catalog insertion order.
//
// The sequence is finite and restartable; ranging over it twice yields the
// same actions in the same order.
func (ix *Index) All() iter.Seq[datatypes.Action] {
	return func(yield func(datatypes.Action) bool) {
		for _, a := range ix.actions {
			if !yield(a) {
				return
			}
		}
	}
}

// Search returns an iterator over actions whose name contains token,
// case-insensitively, in catalog insertion order.
//
// Like All, the sequence is restartable. An empty token matches everything.
func (ix *Index) Search(token string) iter.Seq[datatypes.Action] {
	needle := strings.ToLower(token)
	return func(yield func(datatypes.Action) bool) {
		for _, a := range ix.actions {
			if !strings.Contains(strings.ToLower(a.Type), needle) {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}
