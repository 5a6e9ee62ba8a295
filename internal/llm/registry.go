package llm

import (
	"fmt"
	"strings"
	"time"
)

// Endpoint holds connection settings for one hosted model.
type Endpoint struct {
	APIKey    string
	BaseURL   string // empty = provider default
	Model     string
	MaxTokens int
}

// Settings configures every known generation provider.
type Settings struct {
	Timeout   time.Duration
	Groq      Endpoint
	OpenAI    Endpoint
	Anthropic Endpoint
}

// DefaultOrder is the generation chain used when none is configured.
var DefaultOrder = []string{"groq", "openai", "anthropic"}

// NewProviders builds generation providers in the given order.
func NewProviders(names []string, s Settings) ([]Provider, error) {
	if len(names) == 0 {
		names = DefaultOrder
	}
	providers := make([]Provider, 0, len(names))
	for _, raw := range names {
		switch name := strings.ToLower(strings.TrimSpace(raw)); name {
		case "":
			continue
		case "groq":
			providers = append(providers, NewOpenAIClient("groq",
				orDefault(s.Groq.BaseURL, GroqBaseURL), s.Groq.APIKey,
				orDefault(s.Groq.Model, "llama-3.1-8b-instant"),
				intOrDefault(s.Groq.MaxTokens, 2000), s.Timeout))
		case "openai":
			providers = append(providers, NewOpenAIClient("openai",
				orDefault(s.OpenAI.BaseURL, OpenAIBaseURL), s.OpenAI.APIKey,
				orDefault(s.OpenAI.Model, "gpt-4o-mini"),
				intOrDefault(s.OpenAI.MaxTokens, 1000), s.Timeout))
		case "anthropic":
			providers = append(providers, NewAnthropicClient(
				orDefault(s.Anthropic.BaseURL, AnthropicBaseURL), s.Anthropic.APIKey,
				orDefault(s.Anthropic.Model, "claude-3-5-haiku-latest"),
				intOrDefault(s.Anthropic.MaxTokens, 2000), s.Timeout))
		default:
			return nil, fmt.Errorf("unknown generation provider %q", raw)
		}
	}
	return providers, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
