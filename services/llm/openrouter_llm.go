package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterClient talks to OpenRouter's OpenAI-compatible chat completions
// API. OpenRouter wants HTTP-Referer and X-Title headers for app attribution,
// which the wrapped transport injects on every request.
//
// The request rides go-openai's wire types, but the response is decoded here:
// OpenRouter delivers the reasoning side channel under "reasoning", a key the
// upstream client does not know about.
type OpenRouterClient struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float32
	maxTokens   int
}

// attributionTransport adds the OpenRouter app attribution headers.
type attributionTransport struct {
	base     http.RoundTripper
	siteURL  string
	siteName string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("HTTP-Referer", t.siteURL)
	req.Header.Set("X-Title", t.siteName)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// openRouterMessage accepts the side channel under both keys: "reasoning" is
// what OpenRouter sends, "reasoning_content" is the deepseek-native spelling.
type openRouterMessage struct {
	Role             string `json:"role"`
	Content          string `json:"content"`
	Reasoning        string `json:"reasoning"`
	ReasoningContent string `json:"reasoning_content"`
}

func (m openRouterMessage) reasoning() string {
	if m.Reasoning != "" {
		return m.Reasoning
	}
	return m.ReasoningContent
}

type openRouterChoice struct {
	FinishReason string            `json:"finish_reason"`
	Message      openRouterMessage `json:"message"`
}

type openRouterResponse struct {
	Choices []openRouterChoice `json:"choices"`
}

// NewOpenRouterClient builds a client from environment configuration.
//
// OPENROUTER_API_KEY is required (with a /run/secrets fallback for container
// deployments). OPENROUTER_BASE_URL, OPENROUTER_MODEL, OPENROUTER_TEMPERATURE
// and OPENROUTER_MAX_TOKENS are optional with logged defaults.
func NewOpenRouterClient() (*OpenRouterClient, error) {
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		secretPath := "/run/secrets/openrouter_api_key"
		raw, err := os.ReadFile(secretPath)
		if err != nil {
			slog.Error("OPENROUTER_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable not set")
		}
		apiKey = strings.TrimSpace(string(raw))
		slog.Info("Read the OpenRouter API key from container secrets")
	}

	baseURL := os.Getenv("OPENROUTER_BASE_URL")
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	model := os.Getenv("OPENROUTER_MODEL")
	if model == "" {
		model = "deepseek/deepseek-r1-0528:free"
		slog.Warn("OPENROUTER_MODEL not set, defaulting to deepseek/deepseek-r1-0528:free")
	}
	temperature := envFloat32("OPENROUTER_TEMPERATURE", 0.7)
	maxTokens := envInt("OPENROUTER_MAX_TOKENS", 1000)

	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "http://localhost:3000"
	}
	siteName := os.Getenv("SITE_NAME")
	if siteName == "" {
		siteName = "Atlas Chat"
	}

	slog.Info("Initializing OpenRouter client", "model", model, "base_url", baseURL)
	return newOpenRouterClient(apiKey, baseURL, model, temperature, maxTokens, siteURL, siteName), nil
}

// newOpenRouterClient is the explicit constructor used by tests to point the
// client at a stub server.
func newOpenRouterClient(apiKey, baseURL, model string, temperature float32, maxTokens int, siteURL, siteName string) *OpenRouterClient {
	return &OpenRouterClient{
		httpClient: &http.Client{
			Transport: &attributionTransport{siteURL: siteURL, siteName: siteName},
		},
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Chat implements the CompletionClient interface.
func (o *OpenRouterClient) Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Completion{}, fmt.Errorf("OpenRouter request encoding failed: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Completion{}, fmt.Errorf("OpenRouter request build failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	httpResp, err := o.httpClient.Do(httpReq)
	if err != nil {
		slog.Error("OpenRouter API call failed", "error", err)
		return Completion{}, fmt.Errorf("OpenRouter API call failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Completion{}, fmt.Errorf("OpenRouter response read failed: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		slog.Error("OpenRouter API returned an error status",
			"status", httpResp.StatusCode, "body", strings.TrimSpace(string(body)))
		return Completion{}, fmt.Errorf("OpenRouter API returned status %d", httpResp.StatusCode)
	}

	var resp openRouterResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Completion{}, fmt.Errorf("OpenRouter response decoding failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("OpenRouter returned no choices")
		return Completion{}, fmt.Errorf("OpenRouter returned no choices")
	}

	choice := resp.Choices[0]
	slog.Debug("Received response from OpenRouter", "finish_reason", choice.FinishReason)
	return Completion{
		Content:      choice.Message.Content,
		Reasoning:    choice.Message.reasoning(),
		FinishReason: choice.FinishReason,
	}, nil
}

func toOpenAIMessages(messages []datatypes.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func envFloat32(name string, fallback float32) float32 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		slog.Warn("Invalid value, using default", "var", name, "value", raw, "default", fallback)
		return fallback
	}
	return float32(v)
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Invalid value, using default", "var", name, "value", raw, "default", fallback)
		return fallback
	}
	return v
}
