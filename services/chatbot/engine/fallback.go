// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Empty-completion salvage. Some backends (deepseek-r1 via OpenRouter most
// prominently) return their answer in a reasoning side channel while leaving
// the primary content empty. The extractors below try, in order, to recover
// something user-visible from that channel. Best effort, not a guarantee.

package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// Extractor attempts to salvage an answer from the reasoning side channel.
//
// Extract returns the salvaged text and true on success; the chain stops at
// the first extractor that succeeds.
type Extractor interface {
	Name() string
	Extract(reasoning string) (string, bool)
}

// emptyCompletionMessage is returned when there is no reasoning to salvage
// from at all.
const emptyCompletionMessage = "I apologize, but I received an empty response from the AI service. " +
	"Please try rephrasing your question or try again."

// staticHelpMessage is the terminal fallback when the reasoning mentions no
// known action.
const staticHelpMessage = "I understand you're looking for help with catalog actions, but I couldn't " +
	"produce a complete answer this time. Try asking about a specific action by name, or describe " +
	"what you're trying to accomplish."

// actionNamePattern matches catalog-style action names such as
// "addMessageV1" or "refundEaterV2": camelCase followed by a version suffix.
var actionNamePattern = regexp.MustCompile(`\b[a-z][A-Za-z0-9]*V\d+\b`)

// defaultExtractors returns the standard chain. known reports whether a name
// exists in the catalog, so the mention extractor never suggests actions the
// catalog doesn't have.
func defaultExtractors(known func(name string) bool) []Extractor {
	return []Extractor{
		markerExtractor{},
		actionMentionExtractor{known: known},
		staticHelpExtractor{},
	}
}

// markerExtractor surfaces the reasoning verbatim when it already contains a
// structured answer: a JSON code fence or an explicit "Action:" marker.
type markerExtractor struct{}

func (markerExtractor) Name() string { return "marker" }

func (markerExtractor) Extract(reasoning string) (string, bool) {
	if strings.Contains(reasoning, "```json") || strings.Contains(reasoning, "Action:") {
		return reasoning, true
	}
	return "", false
}

// actionMentionExtractor synthesizes a short pointer answer from the first
// known catalog action mentioned in the reasoning.
type actionMentionExtractor struct {
	known func(name string) bool
}

func (actionMentionExtractor) Name() string { return "action_mention" }

func (e actionMentionExtractor) Extract(reasoning string) (string, bool) {
	for _, candidate := range actionNamePattern.FindAllString(reasoning, -1) {
		if e.known == nil || !e.known(candidate) {
			continue
		}
		answer := fmt.Sprintf(`Based on your query, you should use the **%[1]s** action.

### Example Usage:
`+"```json"+`
{
  "type": "%[1]s",
  "arguments": {}
}
`+"```"+`

Ask about %[1]s directly to get its required and optional arguments.`, candidate)
		return answer, true
	}
	return "", false
}

// staticHelpExtractor always succeeds; it terminates the chain.
type staticHelpExtractor struct{}

func (staticHelpExtractor) Name() string { return "static_help" }

func (staticHelpExtractor) Extract(string) (string, bool) {
	return staticHelpMessage, true
}
