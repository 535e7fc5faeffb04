// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
)

// ContinuationMarker is appended to a cut-off answer so the user knows the
// thread can be resumed.
const ContinuationMarker = "\n\n---\n*This answer was cut off. Say \"continue\" to get the rest.*"

// buildSystemPrompt embeds the selected actions as structured context plus
// the response-shape instructions the backend must follow.
func buildSystemPrompt(totalActions int, selected []datatypes.Action) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an AI assistant that helps users understand and work with API actions from an action catalog.

The catalog contains %d different action types, each with required and optional arguments.

Each action has:
- type: The name/identifier of the action
- requiredArguments: Array of arguments that must be provided
- optionalArguments: Array of arguments that can be optionally provided

`, totalActions)

	if len(selected) > 0 {
		b.WriteString("Relevant actions for this conversation:\n")
		if raw, err := json.MarshalIndent(selected, "", "  "); err == nil {
			b.Write(raw)
		}
		b.WriteString("\n\n")
	}

	b.WriteString(`CRITICAL INSTRUCTIONS - You MUST follow this format exactly:

1. Always start your response with a clear heading using ###
2. Always provide a complete JSON example using markdown code blocks
3. Be concise but comprehensive
4. Use this exact structure:

### Action: [actionName]
**Purpose**: [Brief description]
**Required Arguments**: [List them clearly]
**Optional Arguments**: [List common ones]
**Example Usage**:
` + "```json" + `
{
  "type": "actionName",
  "arguments": {
    "requiredArg1": "example_value",
    "optionalArg1": "example_value"
  }
}
` + "```" + `

When users ask about actions, provide helpful information about what the action does, required arguments, optional arguments, and always include a working JSON example.

Be helpful, accurate, and always include practical examples. Focus on being direct and useful.`)

	return b.String()
}

// resumeInstruction rewrites the user turn of a continuation into an
// instruction to pick the previous answer back up, carrying the original
// question for reference.
func resumeInstruction(originalQuery string) string {
	return fmt.Sprintf("Your previous answer to the question %q was cut off by the output limit. "+
		"Continue that answer exactly where it stopped. Do not repeat what you already wrote and do not start over.", originalQuery)
}

// wantsContinuation reports whether the user's text lexically signals a
// continuation request.
//
// This is a heuristic: plain substring containment of "continue" or "more",
// case-insensitively. It can misfire on fresh questions that happen to
// contain those words ("tell me more about refunds"); an explicit request
// flag would remove the ambiguity, but the lexical trigger is the contract
// for now.
func wantsContinuation(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "continue") || strings.Contains(lower, "more")
}
