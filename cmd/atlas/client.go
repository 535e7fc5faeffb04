// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
)

var httpClient = &http.Client{Timeout: 120 * time.Second}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func apiURL(path string) string {
	return strings.TrimRight(serverURL, "/") + path
}

// sendChatRequest posts one turn to the server and decodes the reply.
func sendChatRequest(message string, history []datatypes.Message, session string) (*datatypes.ChatResponse, error) {
	payload, err := json.Marshal(datatypes.ChatRequest{
		Message:             message,
		ConversationHistory: history,
		SessionID:           session,
	})
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Post(apiURL("/v1/chat"), "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("could not reach the Atlas server at %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var chatResp datatypes.ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("could not decode the chat response: %w", err)
	}
	return &chatResp, nil
}

// getJSON fetches path and decodes the JSON body into out.
func getJSON(path string, out any) error {
	resp, err := httpClient.Get(apiURL(path))
	if err != nil {
		return fmt.Errorf("could not reach the Atlas server at %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}
