package llm

import (
	"context"

	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
)

// FinishReasonLength is the termination reason a backend reports when it
// stopped generating because of its output-length limit.
const FinishReasonLength = "length"

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Completion is the normalized result of one completion call.
//
// Reasoning is a side channel some backends (deepseek-r1 style models) fill
// while leaving Content empty; the engine salvages an answer from it in that
// case.
type Completion struct {
	Content      string
	Reasoning    string
	FinishReason string
}

// Truncated reports whether the backend cut the answer off at its
// output-length limit.
func (c Completion) Truncated() bool { return c.FinishReason == FinishReasonLength }

// CompletionClient defines the standard interface for any completion backend.
type CompletionClient interface {
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (Completion, error)
}
