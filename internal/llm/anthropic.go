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
	AnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

func NewAnthropicClient(baseURL, apiKey, model string, maxTokens int, timeout time.Duration) *AnthropicClient {
	if baseURL == "" {
		baseURL = AnthropicBaseURL
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &AnthropicClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(apiKey),
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *AnthropicClient) Name() string   { return "anthropic" }
func (c *AnthropicClient) Model() string  { return c.model }
func (c *AnthropicClient) MaxTokens() int { return c.maxTokens }

// Complete sends a single user message and concatenates the text blocks of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("anthropic: %w", provider.ErrMissingCredential)
	}

	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	payload := map[string]any{
		"model":       c.model,
		"max_tokens":  maxTokens,
		"temperature": temperature(req),
		"messages": []map[string]any{{
			"role":    "user",
			"content": req.Prompt,
		}},
	}
	if req.System != "" {
		payload["system"] = req.System
	}

	body, err := postJSON(ctx, c.client, c.baseURL+"/v1/messages", map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}, payload, "anthropic")
	if err != nil {
		return "", err
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &provider.DecodeError{Provider: "anthropic", Err: err}
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("anthropic: %w", provider.ErrEmptyOutput)
	}
	return text, nil
}
