// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package selection decides which catalog actions are exposed to the
// completion backend for a given query.
//
// Selection is lexical, not semantic: the query is broken into lowercase
// tokens and matched against action names by containment. A configured set of
// core actions is always included, and sparse results are padded with random
// catalog entries so the context window stays informative even when nothing
// matches.
package selection

import (
	"math/rand"
	"strings"
	"sync"
	"unicode"

	"github.com/atlasbot/atlaschat/services/chatbot/catalog"
	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
)

const (
	// MaxContextActions is the hard upper bound on selected actions.
	MaxContextActions = 60

	// RelevanceFloor is the minimum selection size padded up to with random
	// catalog entries (when the catalog is large enough).
	RelevanceFloor = 50

	// queryMatchKeep is how many query matches survive the overflow
	// tie-break when the union exceeds MaxContextActions.
	queryMatchKeep = 30

	// minTokenLen discards short query tokens as noise; only words longer
	// than two runes participate in matching.
	minTokenLen = 3
)

// Selector chooses a bounded, deduplicated subset of catalog actions for a
// query.
//
// # Thread Safety
//
// Selector holds no per-query state; the only mutable member is the random
// source used for padding, which is guarded by a mutex. A single Selector is
// safe for concurrent use across requests.
type Selector struct {
	coreNames []string

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Selector with the given always-included core action names.
//
// The rng pads sparse selections up to RelevanceFloor; inject a seeded source
// in tests for reproducible output. A nil rng falls back to an
// entropy-seeded one.
func New(coreNames []string, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Selector{
		coreNames: append([]string(nil), coreNames...),
		rng:       rng,
	}
}

// Select returns the actions to expose for query.
//
// # Description
//
// The result is ordered, deduplicated by name, and never longer than
// MaxContextActions:
//
//  1. Query tokens are the lowercase words of length > 2.
//  2. Every action whose name contains at least one token is a query match,
//     in catalog order.
//  3. Core names are resolved against the catalog; absent names are skipped.
//  4. Matches and core actions are unioned by name.
//  5. If the union exceeds the cap, the first 30 query matches plus all
//     resolved core actions are kept, deduplicated and truncated to the cap,
//     so relevant entries are never dropped before core entries are.
//  6. If the union is below RelevanceFloor, remaining slots are filled with
//     random not-yet-selected actions, without replacement.
//
// Select is total over all string inputs: an empty or nonsense query yields
// the core actions plus random fill. It never fails.
func (s *Selector) Select(query string, ix *catalog.Index) []datatypes.Action {
	tokens := tokenize(query)

	seen := make(map[string]bool)
	var matches []datatypes.Action
	if len(tokens) > 0 {
		for a := range ix.All() {
			if !nameMatches(a.Type, tokens) {
				continue
			}
			matches = append(matches, a)
			seen[a.Type] = true
		}
	}

	var core []datatypes.Action
	for _, name := range s.coreNames {
		a, err := ix.FindByName(name)
		if err != nil {
			continue // configured name not in this catalog
		}
		core = append(core, a)
	}

	selected := matches
	for _, a := range core {
		if !seen[a.Type] {
			selected = append(selected, a)
			seen[a.Type] = true
		}
	}

	if len(selected) > MaxContextActions {
		selected = capOverflow(matches, core)
		seen = make(map[string]bool, len(selected))
		for _, a := range selected {
			seen[a.Type] = true
		}
	}

	if len(selected) < RelevanceFloor {
		selected = s.fillRandom(selected, seen, ix)
	}
	return selected
}

// capOverflow rebuilds the selection when the union exceeds the cap: the
// first queryMatchKeep matches, then the core actions, deduplicated and
// truncated to MaxContextActions.
func capOverflow(matches, core []datatypes.Action) []datatypes.Action {
	if len(matches) > queryMatchKeep {
		matches = matches[:queryMatchKeep]
	}
	kept := make([]datatypes.Action, 0, len(matches)+len(core))
	seen := make(map[string]bool, len(matches)+len(core))
	for _, a := range matches {
		if !seen[a.Type] {
			kept = append(kept, a)
			seen[a.Type] = true
		}
	}
	for _, a := range core {
		if !seen[a.Type] {
			kept = append(kept, a)
			seen[a.Type] = true
		}
	}
	if len(kept) > MaxContextActions {
		kept = kept[:MaxContextActions]
	}
	return kept
}

// fillRandom pads selected up to RelevanceFloor with uniformly random
// not-yet-selected catalog actions, without replacement.
func (s *Selector) fillRandom(selected []datatypes.Action, seen map[string]bool, ix *catalog.Index) []datatypes.Action {
	var pool []datatypes.Action
	for a := range ix.All() {
		if !seen[a.Type] {
			pool = append(pool, a)
		}
	}
	if len(pool) == 0 {
		return selected
	}

	s.mu.Lock()
	perm := s.rng.Perm(len(pool))
	s.mu.Unlock()

	for _, i := range perm {
		if len(selected) >= RelevanceFloor {
			break
		}
		selected = append(selected, pool[i])
	}
	return selected
}

// tokenize splits query into lowercase words of length > 2. Words are
// maximal runs of letters and digits, so punctuation does not glue tokens
// together.
func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func nameMatches(name string, tokens []string) bool {
	lower := strings.ToLower(name)
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
