package transcribe

import (
	"fmt"
	"strings"
	"time"
)

// Endpoint holds connection settings for one hosted provider.
type Endpoint struct {
	APIKey  string
	BaseURL string // empty = provider default
	Model   string
}

// Settings configures every known speech-to-text provider.
type Settings struct {
	Timeout            time.Duration
	Groq               Endpoint
	OpenAI             Endpoint
	HuggingFace        Endpoint
	ElevenLabs         Endpoint
	ElevenLabsKeyterms string
}

// DefaultOrder is the provider chain used when none is configured.
var DefaultOrder = []string{"groq", "openai", "huggingface"}

// NewProviders builds providers in the given order. Unknown names are an
// error. Providers without an API key are still built and fail fast at call
// time so the chain can advance past them.
func NewProviders(names []string, s Settings) ([]Provider, error) {
	if len(names) == 0 {
		names = DefaultOrder
	}
	providers := make([]Provider, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "":
			continue
		case "groq":
			providers = append(providers, NewWhisperClient("groq",
				orDefault(s.Groq.BaseURL, GroqBaseURL), s.Groq.APIKey,
				orDefault(s.Groq.Model, "whisper-large-v3"), s.Timeout))
		case "openai":
			providers = append(providers, NewWhisperClient("openai",
				orDefault(s.OpenAI.BaseURL, OpenAIBaseURL), s.OpenAI.APIKey,
				orDefault(s.OpenAI.Model, "whisper-1"), s.Timeout))
		case "huggingface":
			providers = append(providers, NewHuggingFaceClient(
				orDefault(s.HuggingFace.BaseURL, HuggingFaceBaseURL), s.HuggingFace.APIKey,
				orDefault(s.HuggingFace.Model, "openai/whisper-large-v3"), s.Timeout))
		case "elevenlabs":
			providers = append(providers, NewElevenLabsClient(
				orDefault(s.ElevenLabs.BaseURL, ElevenLabsBaseURL), s.ElevenLabs.APIKey,
				orDefault(s.ElevenLabs.Model, "scribe_v1"), s.ElevenLabsKeyterms, s.Timeout))
		default:
			return nil, fmt.Errorf("unknown transcription provider %q", raw)
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
