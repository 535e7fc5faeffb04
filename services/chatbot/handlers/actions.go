// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlasbot/atlaschat/services/chatbot/catalog"
	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
	"github.com/atlasbot/atlaschat/services/chatbot/generator"
)

// HandleListActions returns catalog action summaries. The optional "q"
// query parameter filters by case-insensitive name containment.
func HandleListActions(ix *catalog.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		source := ix.All()
		if q := c.Query("q"); q != "" {
			source = ix.Search(q)
		}
		summaries := make([]datatypes.ActionSummary, 0, ix.Count())
		for action := range source {
			summaries = append(summaries, action.Summary())
		}
		c.JSON(http.StatusOK, gin.H{
			"count":   len(summaries),
			"actions": summaries,
		})
	}
}

// HandleGetAction returns the full definition of a single action.
func HandleGetAction(ix *catalog.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		action, err := ix.FindByName(name)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown action: " + name})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, action)
	}
}

type generateActionsRequest struct {
	Actions []generator.Config `json:"actions" binding:"required"`
}

// HandleGenerateActions binds the requested configs against the catalog
// and returns fully-formed action instances.
func HandleGenerateActions(gen *generator.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req generateActionsRequest
		if err := c.BindJSON(&req); err != nil {
			slog.Error("Failed to parse the generate request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if len(req.Actions) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no actions provided"})
			return
		}
		generated := gen.Generate(req.Actions)
		c.JSON(http.StatusOK, gin.H{
			"count":   len(generated),
			"actions": generated,
		})
	}
}
