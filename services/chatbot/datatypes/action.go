// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures for the chatbot service.
//
// This file contains the catalog entry types. The wire format follows the
// atlas.json layout: every record carries a "type" (the action's unique name)
// plus ordered required and optional argument lists.
package datatypes

// ActionArgument describes a single argument of a catalog action.
//
// # Fields
//
//   - Name: Argument identifier, unique within its own list.
//   - Type: Optional type hint (e.g. "uuid", "string"). May be empty; the
//     catalog source does not guarantee it.
type ActionArgument struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Action is one immutable catalog entry.
//
// # Description
//
// An Action is a named operation with required and optional typed arguments.
// The Type field is the unique identifier across the catalog. Actions are
// loaded once at process start and never mutated afterwards, so values may be
// shared freely across goroutines.
//
// # Fields
//
//   - Type: Unique action name (e.g. "refundEaterV1").
//   - RequiredArguments: Arguments that must be provided, in catalog order.
//   - OptionalArguments: Arguments that may be provided, in catalog order.
//
// # Assumptions
//
//   - Type is unique across the catalog (enforced at load time).
//   - Argument names are unique within their own list. Overlap between the
//     required and optional lists is a data-quality concern, not enforced.
type Action struct {
	Type              string           `json:"type"`
	RequiredArguments []ActionArgument `json:"requiredArguments"`
	OptionalArguments []ActionArgument `json:"optionalArguments"`
}

// ActionSummary is the compact listing form of an Action.
//
// Returned by the actions listing endpoint; mirrors what the catalog
// introspection CLI prints.
type ActionSummary struct {
	Type         string `json:"type"`
	RequiredArgs int    `json:"required_args"`
	OptionalArgs int    `json:"optional_args"`
}

// Summary returns the compact listing form of the action.
func (a Action) Summary() ActionSummary {
	return ActionSummary{
		Type:         a.Type,
		RequiredArgs: len(a.RequiredArguments),
		OptionalArgs: len(a.OptionalArguments),
	}
}
