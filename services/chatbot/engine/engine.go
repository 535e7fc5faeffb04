// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine orchestrates a single chat turn: action selection, prompt
// assembly, the completion call, and continuation bookkeeping for answers
// that were cut off by the output limit.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/atlasbot/atlaschat/services/chatbot/catalog"
	"github.com/atlasbot/atlaschat/services/chatbot/continuation"
	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
	"github.com/atlasbot/atlaschat/services/chatbot/observability"
	"github.com/atlasbot/atlaschat/services/llm"
)

// historyWindow is the number of trailing conversation messages forwarded
// to the completion backend on each turn.
const historyWindow = 10

// serviceUnavailableMessage is returned whenever the completion backend
// cannot be reached. Turn handling never surfaces transport errors to the
// caller.
const serviceUnavailableMessage = "I apologize, but I'm having trouble connecting to the AI service right now. " +
	"Please try again later."

const tracerName = "atlaschat.chatbot.engine"

// ActionSelector chooses the catalog subset embedded in the system prompt
// for a fresh query.
type ActionSelector interface {
	Select(query string, ix *catalog.Index) []datatypes.Action
}

// Config wires an Engine's collaborators.
//
// # Fields
//
//   - Catalog: The loaded action catalog. Required.
//   - Selector: Picks the per-query catalog subset. Required.
//   - Store: Continuation state storage. Required.
//   - Client: The completion backend. Required.
//   - Metrics: Prometheus metrics. Optional; nil disables instrumentation.
//   - TTL: Continuation state lifetime. Zero means continuation.DefaultTTL.
//   - Now: Clock override for tests. Nil means time.Now.
type Config struct {
	Catalog  *catalog.Index
	Selector ActionSelector
	Store    continuation.Store
	Client   llm.CompletionClient
	Metrics  *observability.Metrics
	TTL      time.Duration
	Now      func() time.Time
}

// Engine handles chat turns.
//
// # Thread Safety
//
// An Engine is safe for concurrent use as long as its collaborators are.
type Engine struct {
	catalog    *catalog.Index
	selector   ActionSelector
	store      continuation.Store
	client     llm.CompletionClient
	metrics    *observability.Metrics
	extractors []Extractor
	ttl        time.Duration
	now        func() time.Time
	tracer     trace.Tracer
}

// New builds an Engine from cfg. Required collaborators are not checked
// here; a nil one panics on first use.
func New(cfg Config) *Engine {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = continuation.DefaultTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	known := func(name string) bool {
		_, err := cfg.Catalog.FindByName(name)
		return err == nil
	}
	return &Engine{
		catalog:    cfg.Catalog,
		selector:   cfg.Selector,
		store:      cfg.Store,
		client:     cfg.Client,
		metrics:    cfg.Metrics,
		extractors: defaultExtractors(known),
		ttl:        ttl,
		now:        now,
		tracer:     otel.Tracer(tracerName),
	}
}

// Handle runs one chat turn. It never returns an error: backend failures
// degrade to an apology response with finish reason "error", and empty
// completions are salvaged from the reasoning side channel.
func (e *Engine) Handle(ctx context.Context, req *datatypes.ChatRequest) *datatypes.ChatResponse {
	ctx, span := e.tracer.Start(ctx, "engine.Handle")
	defer span.End()

	system, userTurn, selected, originalQuery, kind := e.prepareTurn(ctx, req)
	span.SetAttributes(
		attribute.String("chat.kind", kind),
		attribute.Int("chat.actions_selected", len(selected)),
	)

	messages := assembleMessages(system, req.ConversationHistory, userTurn)

	start := e.now()
	completion, err := e.client.Chat(ctx, messages, llm.GenerationParams{})
	if e.metrics != nil {
		e.metrics.CompletionDurationSeconds.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		slog.Error("Completion backend call failed",
			"kind", kind,
			"session_id", req.SessionID,
			"error", err)
		if e.metrics != nil {
			e.metrics.QueriesTotal.WithLabelValues(kind, "error").Inc()
		}
		return &datatypes.ChatResponse{
			Response:     serviceUnavailableMessage,
			FinishReason: "error",
		}
	}

	content := e.salvage(completion, kind)
	truncated := completion.Truncated()
	hasMore := false

	if truncated {
		if e.metrics != nil {
			e.metrics.TruncationsTotal.Inc()
		}
		if req.SessionID != "" {
			e.saveContinuation(ctx, req.SessionID, system, selected, originalQuery)
			content += ContinuationMarker
			hasMore = true
		}
	} else if req.SessionID != "" {
		e.clearContinuation(ctx, req.SessionID)
	}

	if e.metrics != nil {
		e.metrics.QueriesTotal.WithLabelValues(kind, "success").Inc()
	}
	return &datatypes.ChatResponse{
		Response:     content,
		HasMore:      hasMore,
		WasCutOff:    truncated,
		FinishReason: completion.FinishReason,
	}
}

// prepareTurn resolves whether this turn resumes a cut-off answer or
// starts fresh, and returns the prompt material either way. A resumed
// turn reuses the stored system prompt and action subset verbatim; the
// selector is not consulted.
func (e *Engine) prepareTurn(ctx context.Context, req *datatypes.ChatRequest) (system, userTurn string, selected []datatypes.Action, originalQuery, kind string) {
	if wantsContinuation(req.Message) && req.SessionID != "" {
		state, err := e.store.Get(ctx, req.SessionID)
		switch {
		case err == nil:
			slog.Info("Resuming cut-off answer",
				"session_id", req.SessionID,
				"original_query", state.OriginalQuery)
			return state.SystemPrompt, resumeInstruction(state.OriginalQuery),
				state.AvailableActions, state.OriginalQuery, "continuation"
		case !errors.Is(err, continuation.ErrNotFound):
			slog.Warn("Continuation lookup failed, treating query as fresh",
				"session_id", req.SessionID,
				"error", err)
		}
	}

	selected = e.selector.Select(req.Message, e.catalog)
	system = buildSystemPrompt(e.catalog.Count(), selected)
	return system, req.Message, selected, req.Message, "fresh"
}

// salvage returns the completion content, falling back through the
// extractor chain when the backend produced reasoning but no visible
// answer.
func (e *Engine) salvage(completion llm.Completion, kind string) string {
	content := completion.Content
	if strings.TrimSpace(content) != "" {
		return content
	}
	if strings.TrimSpace(completion.Reasoning) == "" {
		slog.Warn("Completion had neither content nor reasoning", "kind", kind)
		return emptyCompletionMessage
	}
	for _, ex := range e.extractors {
		if salvaged, ok := ex.Extract(completion.Reasoning); ok {
			slog.Info("Salvaged answer from reasoning side channel",
				"extractor", ex.Name(),
				"kind", kind)
			if e.metrics != nil {
				e.metrics.SalvagesTotal.WithLabelValues(ex.Name()).Inc()
			}
			return salvaged
		}
	}
	return emptyCompletionMessage
}

// saveContinuation stores resume state for a truncated answer and sweeps
// expired entries while it is here. Re-truncation refreshes the deadline
// but keeps the query the session originally asked.
func (e *Engine) saveContinuation(ctx context.Context, sessionID, system string, selected []datatypes.Action, originalQuery string) {
	state := continuation.State{
		SessionID:        sessionID,
		SystemPrompt:     system,
		AvailableActions: selected,
		OriginalQuery:    originalQuery,
		CreatedAt:        e.now(),
	}
	if err := e.store.Put(ctx, state); err != nil {
		slog.Error("Failed to store continuation state",
			"session_id", sessionID,
			"error", err)
		return
	}
	swept, err := e.store.Sweep(ctx, e.now(), e.ttl)
	if err != nil {
		slog.Warn("Continuation sweep failed", "error", err)
		return
	}
	if swept > 0 && e.metrics != nil {
		e.metrics.StatesSweptTotal.Add(float64(swept))
	}
	e.recordActiveStates()
}

func (e *Engine) clearContinuation(ctx context.Context, sessionID string) {
	err := e.store.Delete(ctx, sessionID)
	if err != nil && !errors.Is(err, continuation.ErrNotFound) {
		slog.Warn("Failed to clear continuation state",
			"session_id", sessionID,
			"error", err)
		return
	}
	e.recordActiveStates()
}

// recordActiveStates publishes the current state count when the store can
// report one. Badger cannot count without a scan, so the gauge only moves on
// the in-memory backend.
func (e *Engine) recordActiveStates() {
	if e.metrics == nil {
		return
	}
	if c, ok := e.store.(interface{ Len() int }); ok {
		e.metrics.StatesActive.Set(float64(c.Len()))
	}
}

// assembleMessages builds the backend message list: the system prompt,
// the trailing window of prior conversation, then the user turn.
func assembleMessages(system string, history []datatypes.Message, userTurn string) []datatypes.Message {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	messages := make([]datatypes.Message, 0, len(history)+2)
	messages = append(messages, datatypes.Message{Role: "system", Content: system})
	messages = append(messages, history...)
	messages = append(messages, datatypes.Message{Role: "user", Content: userTurn})
	return messages
}
