// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ChatRequest Validation Tests
// =============================================================================

func TestChatRequestValidate_Minimal(t *testing.T) {
	req := ChatRequest{Message: "how do refunds work?"}
	assert.NoError(t, req.Validate())
}

func TestChatRequestValidate_EmptyMessage(t *testing.T) {
	req := ChatRequest{}
	assert.Error(t, req.Validate())
}

func TestChatRequestValidate_BlankMessage(t *testing.T) {
	req := ChatRequest{Message: "   \t  "}
	assert.Error(t, req.Validate())
}

func TestChatRequestValidate_OversizedMessage(t *testing.T) {
	req := ChatRequest{Message: strings.Repeat("a", MaxMessageContentBytes+1)}
	assert.Error(t, req.Validate())

	req.Message = strings.Repeat("a", MaxMessageContentBytes)
	assert.NoError(t, req.Validate())
}

func TestChatRequestValidate_HistoryRoles(t *testing.T) {
	req := ChatRequest{
		Message: "q",
		ConversationHistory: []Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
	}
	assert.NoError(t, req.Validate())

	req.ConversationHistory = append(req.ConversationHistory, Message{Role: "robot", Content: "beep"})
	assert.Error(t, req.Validate())
}

func TestChatRequestValidate_HistoryTooLong(t *testing.T) {
	history := make([]Message, MaxHistoryMessages+1)
	for i := range history {
		history[i] = Message{Role: "user", Content: "x"}
	}
	req := ChatRequest{Message: "q", ConversationHistory: history}
	assert.Error(t, req.Validate())

	req.ConversationHistory = history[:MaxHistoryMessages]
	assert.NoError(t, req.Validate())
}

// =============================================================================
// Wire Format Tests
// =============================================================================

func TestChatRequest_WireFieldNames(t *testing.T) {
	raw := `{
		"message": "hello",
		"conversationHistory": [{"role": "user", "content": "earlier"}],
		"sessionId": "s1"
	}`
	var req ChatRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	assert.Equal(t, "hello", req.Message)
	assert.Equal(t, "s1", req.SessionID)
	require.Len(t, req.ConversationHistory, 1)
	assert.Equal(t, "earlier", req.ConversationHistory[0].Content)
}

func TestChatResponse_WireFieldNames(t *testing.T) {
	resp := ChatResponse{
		Response:     "partial",
		HasMore:      true,
		WasCutOff:    true,
		FinishReason: "length",
	}
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, field := range []string{`"response"`, `"hasMore"`, `"wasCutOff"`, `"finishReason"`} {
		assert.Contains(t, string(raw), field)
	}
}
