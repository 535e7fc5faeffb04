// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlasbot/atlaschat/services/chatbot/catalog"
)

// HandleHealthCheck reports liveness and how many catalog actions are
// loaded.
func HandleHealthCheck(ix *catalog.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"actions_loaded": ix.Count(),
		})
	}
}
