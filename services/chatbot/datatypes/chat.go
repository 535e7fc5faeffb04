// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains request and response types for the chat endpoint.
// For catalog entry types, see action.go.

package datatypes

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Limits
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single message content.
	// Checks byte length (not rune count) to bound request memory.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxHistoryMessages is the maximum number of conversation history
	// entries accepted on the wire. The engine additionally windows the
	// history to its own, much smaller limit before calling the completion
	// backend.
	MaxHistoryMessages = 100
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()

	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
	_ = chatValidate.RegisterValidation("notblank", validateNotBlank)
}

// validateMaxBytes checks that a string field does not exceed
// MaxMessageContentBytes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// validateNotBlank checks that a string field is non-empty after trimming
// whitespace. "required" alone accepts a message of only spaces.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// =============================================================================
// Chat Request Types
// =============================================================================

// Message is a single conversation turn.
//
// Role is one of "user", "assistant" or "system". System turns are produced
// by the engine, never accepted from clients, but the validator admits them
// so the type can be reused on the completion-backend path.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"maxbytes"`
}

// ChatRequest represents a chat request body.
//
// # Description
//
// ChatRequest carries the user's free-text message, an optional conversation
// history, and an optional session identifier. The session identifier scopes
// continuation state: when a completion is cut off by the backend's output
// limit, the engine stores the in-flight context under this id so a follow-up
// "continue" message can resume the answer.
//
// # Fields
//
//   - Message: Required. The user's question. Must be non-empty after
//     trimming, at most 32KB.
//   - ConversationHistory: Optional. Prior turns, oldest first. At most 100
//     entries accepted; the engine only forwards the most recent 10.
//   - SessionID: Optional. Opaque caller-supplied identifier for the
//     continuation thread. Without it, truncated answers cannot be resumed.
//
// # Validation
//
// Uses go-playground/validator:
//   - Message: required, notblank, maxbytes
//   - ConversationHistory: max 100 elements, each element validated
//
// # Examples
//
//	req := ChatRequest{
//	    Message:   "How do I refund a customer?",
//	    SessionID: "550e8400-e29b-41d4-a716-446655440000",
//	}
type ChatRequest struct {
	Message             string    `json:"message" validate:"required,notblank,maxbytes"`
	ConversationHistory []Message `json:"conversationHistory" validate:"omitempty,max=100,dive"`
	SessionID           string    `json:"sessionId"`
}

// Validate validates the ChatRequest fields.
//
// Call after binding the JSON request; returns a non-nil error describing the
// first failing field.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// =============================================================================
// Chat Response Types
// =============================================================================

// ChatResponse represents the response to a chat request.
//
// # Fields
//
//   - Response: The assistant's answer text. Always non-empty: backend
//     failures and empty completions are converted into user-facing text.
//   - HasMore: True when the answer was cut off and continuation state was
//     stored, i.e. asking to "continue" with the same session id will yield
//     the remainder.
//   - WasCutOff: True when the backend stopped due to its output-length
//     limit, regardless of whether continuation state could be stored.
//   - FinishReason: The backend's termination reason ("stop", "length", ...)
//     or "error" when the completion call failed.
type ChatResponse struct {
	Response     string `json:"response"`
	HasMore      bool   `json:"hasMore"`
	WasCutOff    bool   `json:"wasCutOff"`
	FinishReason string `json:"finishReason"`
}
