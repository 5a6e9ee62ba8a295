package transcribe

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/motionai/motion-engine/internal/provider"
)

const (
	defaultFilename    = "audio.mp3"
	defaultContentType = "audio/mpeg"
)

// Media is an in-memory audio or video payload.
type Media struct {
	Data        []byte
	Filename    string
	ContentType string
}

// WithDefaults fills in the filename and content type when they are unknown.
func (m Media) WithDefaults() Media {
	if m.Filename == "" {
		m.Filename = defaultFilename
	}
	if m.ContentType == "" {
		m.ContentType = defaultContentType
	}
	return m
}

// Provider is the interface for speech-to-text backends.
type Provider interface {
	Transcribe(ctx context.Context, media Media, opts Options) (*Response, error)
	Name() string  // "groq", "openai", "huggingface", "elevenlabs"
	Model() string // model identifier for DB/logs
}

// Options are per-request hints. Zero values are omitted from requests.
type Options struct {
	Language    string // ISO 639-1 hint
	Prompt      string // domain vocabulary
	Temperature float64
}

// Response is the common transcription result from any provider.
type Response struct {
	Text     string
	Language string  // as reported by the provider, may be empty
	Duration float64 // audio duration in seconds, 0 if unknown
}

// doRequest executes req and returns the body of a 200 response. Any other
// status becomes a *provider.StatusError.
func doRequest(client *http.Client, req *http.Request, name string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &provider.StatusError{Provider: name, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
