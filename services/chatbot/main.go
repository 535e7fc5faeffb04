// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/atlasbot/atlaschat/services/chatbot/catalog"
	"github.com/atlasbot/atlaschat/services/chatbot/continuation"
	"github.com/atlasbot/atlaschat/services/chatbot/engine"
	"github.com/atlasbot/atlaschat/services/chatbot/generator"
	"github.com/atlasbot/atlaschat/services/chatbot/observability"
	"github.com/atlasbot/atlaschat/services/chatbot/routes"
	"github.com/atlasbot/atlaschat/services/chatbot/selection"
	"github.com/atlasbot/atlaschat/services/llm"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// defaultCoreActions are always kept in the selected subset so the model
// can handle the most common requests even when the query matches nothing.
var defaultCoreActions = []string{
	"addMessageV1",
	"addClientCreditsV2",
	"addLeadV1",
	"addContactUserV1",
}

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "atlas-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("chatbot-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func newContinuationStore(ttl time.Duration) continuation.Store {
	backend := os.Getenv("CONTINUATION_BACKEND")
	switch backend {
	case "badger":
		dir := os.Getenv("CONTINUATION_BADGER_DIR")
		if dir == "" {
			dir = "/var/lib/atlaschat/continuation"
		}
		store, err := continuation.NewBadgerStore(dir, ttl)
		if err != nil {
			log.Fatalf("Failed to open the Badger continuation store: %v", err)
		}
		slog.Info("Using Badger continuation store", "dir", dir)
		return store
	case "", "memory":
		slog.Info("Using in-memory continuation store")
		return continuation.NewMemoryStore()
	default:
		slog.Warn("Unknown CONTINUATION_BACKEND, defaulting to memory", "backend", backend)
		return continuation.NewMemoryStore()
	}
}

func coreActionNames() []string {
	raw := os.Getenv("CORE_ACTIONS")
	if raw == "" {
		return defaultCoreActions
	}
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func main() {
	// Local development convenience; containers pass env directly.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env file")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	catalogPath := os.Getenv("CATALOG_PATH")
	if catalogPath == "" {
		catalogPath = "atlas.json"
	}
	ix, err := catalog.Load(catalogPath)
	if err != nil {
		log.Fatalf("FATAL: Could not load the action catalog: %v", err)
	}

	ttl := continuation.DefaultTTL
	if raw := os.Getenv("CONTINUATION_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("Invalid CONTINUATION_TTL %q: %v", raw, err)
		}
		ttl = parsed
	}
	store := newContinuationStore(ttl)

	log.Println("Configuring the LLM Client")
	llmBackendType := os.Getenv("LLM_BACKEND_TYPE")

	var client llm.CompletionClient
	switch llmBackendType {
	case "openai":
		client, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	case "openrouter":
		client, err = llm.NewOpenRouterClient()
		slog.Info("Using OpenRouter LLM backend")
	default:
		slog.Warn("LLM_BACKEND_TYPE not set or invalid, defaulting to openrouter")
		client, err = llm.NewOpenRouterClient()
	}
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	eng := engine.New(engine.Config{
		Catalog:  ix,
		Selector: selection.New(coreActionNames(), nil),
		Store:    store,
		Client:   client,
		Metrics:  observability.Default(),
		TTL:      ttl,
	})

	router := gin.Default()
	router.Use(otelgin.Middleware("chatbot-service"))

	routes.SetupRoutes(router, ix, eng, generator.New(ix))

	log.Println("Starting the chatbot server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
