// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package generator builds concrete action instances from catalog
// definitions, filling unbound required arguments with fresh placeholder
// identifiers.
package generator

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/atlasbot/atlaschat/services/chatbot/catalog"
	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
)

// Config describes one action instance to generate.
//
// # Fields
//
//   - Type: Catalog action type. Types absent from the catalog are skipped.
//   - Arguments: Values for required arguments, keyed by argument name.
//     Required arguments without a value get a generated UUID placeholder.
//   - Constants: Values for optional arguments, keyed by argument name.
//     Optional arguments without a value get an empty string.
//   - Description: Human-readable description. Empty means a default is
//     derived from the type.
type Config struct {
	Type        string            `json:"type" validate:"required"`
	Arguments   map[string]string `json:"arguments,omitempty"`
	Constants   map[string]string `json:"constants,omitempty"`
	Description string            `json:"description,omitempty"`
}

// GeneratedAction is a fully-bound action instance in catalog wire shape.
type GeneratedAction struct {
	ActionType                     string            `json:"actionType"`
	Arguments                      map[string]string `json:"arguments"`
	Constants                      map[string]string `json:"constants"`
	Description                    string            `json:"description"`
	DescriptionTemplateCalculators []string          `json:"descriptionTemplateCalculators"`
	IdempotenceType                string            `json:"idempotenceType"`
	Name                           string            `json:"name"`
	ShouldSkip                     bool              `json:"shouldSkip"`
	DescriptionRosettaKey          string            `json:"descriptionRosettaKey"`
}

// Generator resolves Configs against a catalog.
type Generator struct {
	ix    *catalog.Index
	newID func() string
}

// New returns a Generator backed by ix.
func New(ix *catalog.Index) *Generator {
	return &Generator{ix: ix, newID: uuid.NewString}
}

// Generate resolves each config against the catalog and returns the
// bound instances. Configs referencing unknown action types are skipped
// with a warning rather than failing the batch.
func (g *Generator) Generate(configs []Config) []GeneratedAction {
	out := make([]GeneratedAction, 0, len(configs))
	for _, cfg := range configs {
		action, err := g.ix.FindByName(cfg.Type)
		if err != nil {
			slog.Warn("Skipping unknown action type", "type", cfg.Type)
			continue
		}
		out = append(out, g.generate(action, cfg))
	}
	return out
}

func (g *Generator) generate(action datatypes.Action, cfg Config) GeneratedAction {
	args := make(map[string]string, len(action.RequiredArguments))
	for _, arg := range action.RequiredArguments {
		if v, ok := cfg.Arguments[arg.Name]; ok {
			args[arg.Name] = v
			continue
		}
		args[arg.Name] = g.newID()
	}

	constants := make(map[string]string, len(action.OptionalArguments))
	for _, arg := range action.OptionalArguments {
		constants[arg.Name] = cfg.Constants[arg.Name]
	}

	description := cfg.Description
	if description == "" {
		description = fmt.Sprintf("Execute %s action", action.Type)
	}

	return GeneratedAction{
		ActionType:                     action.Type,
		Arguments:                      args,
		Constants:                      constants,
		Description:                    description,
		DescriptionTemplateCalculators: []string{},
		IdempotenceType:                "NONE",
		Name:                           action.Type,
		ShouldSkip:                     false,
		DescriptionRosettaKey:          "",
	}
}
