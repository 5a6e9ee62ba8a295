package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/motionai/motion-engine/internal/provider"
)

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OpenAIBaseURL = "https://api.openai.com/v1"
)

// OpenAIClient calls an OpenAI-compatible /chat/completions endpoint.
type OpenAIClient struct {
	name      string
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// NewOpenAIClient creates a chat completion client. name identifies the
// backend ("groq", "openai") in logs and errors.
func NewOpenAIClient(name, baseURL, apiKey, model string, maxTokens int, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		name:      name,
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(apiKey),
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *OpenAIClient) Name() string   { return c.name }
func (c *OpenAIClient) Model() string  { return c.model }
func (c *OpenAIClient) MaxTokens() int { return c.maxTokens }

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		// Legacy completion-style field.
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Complete sends a single-turn chat completion and returns the reply text.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%s: %w", c.name, provider.ErrMissingCredential)
	}

	payload := chatCompletionRequest{
		Model:       c.model,
		Temperature: temperature(req),
		MaxTokens:   c.maxTokens,
	}
	if req.MaxTokens > 0 {
		payload.MaxTokens = req.MaxTokens
	}
	if req.System != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: req.System})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: req.Prompt})
	if req.JSON {
		payload.ResponseFormat = map[string]string{"type": "json_object"}
	}

	body, err := postJSON(ctx, c.client, c.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.apiKey}, payload, c.name)
	if err != nil {
		return "", err
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", &provider.DecodeError{Provider: c.name, Err: err}
	}
	for _, choice := range completion.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
		if text := strings.TrimSpace(choice.Text); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("%s: %w", c.name, provider.ErrEmptyOutput)
}
