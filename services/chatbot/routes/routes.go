// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atlasbot/atlaschat/services/chatbot/catalog"
	"github.com/atlasbot/atlaschat/services/chatbot/engine"
	"github.com/atlasbot/atlaschat/services/chatbot/generator"
	"github.com/atlasbot/atlaschat/services/chatbot/handlers"
)

func SetupRoutes(router *gin.Engine, ix *catalog.Index, eng *engine.Engine, gen *generator.Generator) {

	router.GET("/health", handlers.HandleHealthCheck(ix))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/chat", handlers.HandleChat(eng))
		// Catalog introspection routes
		actions := v1.Group("/actions")
		{
			actions.GET("", handlers.HandleListActions(ix))
			actions.GET("/:name", handlers.HandleGetAction(ix))
			actions.POST("/generate", handlers.HandleGenerateActions(gen))
		}
	}
}
