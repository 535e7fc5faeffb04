// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasbot/atlaschat/services/chatbot/catalog"
	"github.com/atlasbot/atlaschat/services/chatbot/continuation"
	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
	"github.com/atlasbot/atlaschat/services/chatbot/engine"
	"github.com/atlasbot/atlaschat/services/chatbot/generator"
	"github.com/atlasbot/atlaschat/services/chatbot/selection"
	"github.com/atlasbot/atlaschat/services/llm"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// MockCompletionClient implements llm.CompletionClient for handler testing.
type MockCompletionClient struct {
	Completion llm.Completion
	Err        error
}

func (m *MockCompletionClient) Chat(context.Context, []datatypes.Message, llm.GenerationParams) (llm.Completion, error) {
	return m.Completion, m.Err
}

func testIndex(t *testing.T) *catalog.Index {
	t.Helper()
	ix, err := catalog.New([]datatypes.Action{
		{Type: "addLeadV1", RequiredArguments: []datatypes.ActionArgument{{Name: "leadUuid"}}},
		{Type: "addMessageV1"},
		{Type: "refundEaterV1", OptionalArguments: []datatypes.ActionArgument{{Name: "reason"}}},
	})
	require.NoError(t, err)
	return ix
}

func testEngine(t *testing.T, ix *catalog.Index, client llm.CompletionClient) *engine.Engine {
	t.Helper()
	return engine.New(engine.Config{
		Catalog:  ix,
		Selector: selection.New(nil, nil),
		Store:    continuation.NewMemoryStore(),
		Client:   client,
	})
}

// createTestRouter creates a Gin router with the specified handler for testing.
func createTestRouter(method, path string, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	switch method {
	case "POST":
		router.POST(path, handler)
	case "GET":
		router.GET(path, handler)
	}
	return router
}

// performRequest executes an HTTP request against the test router.
func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// =============================================================================
// HandleChat Tests
// =============================================================================

func TestHandleChat_Success(t *testing.T) {
	ix := testIndex(t)
	mockLLM := &MockCompletionClient{Completion: llm.Completion{
		Content:      "Use addLeadV1 for that.",
		FinishReason: "stop",
	}}
	router := createTestRouter("POST", "/v1/chat", HandleChat(testEngine(t, ix, mockLLM)))

	w := performRequest(router, "POST", "/v1/chat", datatypes.ChatRequest{
		Message:   "how do I add a lead?",
		SessionID: "s1",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Use addLeadV1 for that.", resp.Response)
	assert.False(t, resp.WasCutOff)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestHandleChat_MalformedBody(t *testing.T) {
	ix := testIndex(t)
	router := createTestRouter("POST", "/v1/chat", HandleChat(testEngine(t, ix, &MockCompletionClient{})))

	req, _ := http.NewRequest("POST", "/v1/chat", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestHandleChat_BlankMessageRejected(t *testing.T) {
	ix := testIndex(t)
	router := createTestRouter("POST", "/v1/chat", HandleChat(testEngine(t, ix, &MockCompletionClient{})))

	w := performRequest(router, "POST", "/v1/chat", datatypes.ChatRequest{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChat_BackendErrorStillOK(t *testing.T) {
	ix := testIndex(t)
	mockLLM := &MockCompletionClient{Err: assert.AnError}
	router := createTestRouter("POST", "/v1/chat", HandleChat(testEngine(t, ix, mockLLM)))

	w := performRequest(router, "POST", "/v1/chat", datatypes.ChatRequest{Message: "hello"})

	// Degradation happens inside the engine; the HTTP layer stays 200.
	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.FinishReason)
	assert.Contains(t, resp.Response, "trouble connecting")
}

// =============================================================================
// Health Tests
// =============================================================================

func TestHandleHealthCheck(t *testing.T) {
	router := createTestRouter("GET", "/health", HandleHealthCheck(testIndex(t)))

	w := performRequest(router, "GET", "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Status        string `json:"status"`
		ActionsLoaded int    `json:"actions_loaded"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.ActionsLoaded)
}

// =============================================================================
// Actions Introspection Tests
// =============================================================================

func TestHandleListActions_All(t *testing.T) {
	router := createTestRouter("GET", "/v1/actions", HandleListActions(testIndex(t)))

	w := performRequest(router, "GET", "/v1/actions", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count   int                       `json:"count"`
		Actions []datatypes.ActionSummary `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, "addLeadV1", resp.Actions[0].Type)
	assert.Equal(t, 1, resp.Actions[0].RequiredArgs)
}

func TestHandleListActions_Filtered(t *testing.T) {
	router := createTestRouter("GET", "/v1/actions", HandleListActions(testIndex(t)))

	w := performRequest(router, "GET", "/v1/actions?q=refund", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count   int                       `json:"count"`
		Actions []datatypes.ActionSummary `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "refundEaterV1", resp.Actions[0].Type)
}

func TestHandleGetAction_Found(t *testing.T) {
	router := createTestRouter("GET", "/v1/actions/:name", HandleGetAction(testIndex(t)))

	w := performRequest(router, "GET", "/v1/actions/addLeadV1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var action datatypes.Action
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &action))
	assert.Equal(t, "addLeadV1", action.Type)
	assert.Len(t, action.RequiredArguments, 1)
}

func TestHandleGetAction_NotFound(t *testing.T) {
	router := createTestRouter("GET", "/v1/actions/:name", HandleGetAction(testIndex(t)))

	w := performRequest(router, "GET", "/v1/actions/doesNotExistV1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// Generate Tests
// =============================================================================

func TestHandleGenerateActions_Success(t *testing.T) {
	ix := testIndex(t)
	router := createTestRouter("POST", "/v1/actions/generate", HandleGenerateActions(generator.New(ix)))

	w := performRequest(router, "POST", "/v1/actions/generate", gin.H{
		"actions": []gin.H{
			{"type": "addLeadV1", "arguments": gin.H{"leadUuid": "abc-123"}},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count   int                         `json:"count"`
		Actions []generator.GeneratedAction `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "addLeadV1", resp.Actions[0].ActionType)
	assert.Equal(t, "abc-123", resp.Actions[0].Arguments["leadUuid"])
}

func TestHandleGenerateActions_EmptyList(t *testing.T) {
	ix := testIndex(t)
	router := createTestRouter("POST", "/v1/actions/generate", HandleGenerateActions(generator.New(ix)))

	w := performRequest(router, "POST", "/v1/actions/generate", gin.H{"actions": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
