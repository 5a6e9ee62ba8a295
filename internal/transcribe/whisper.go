package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/motionai/motion-engine/internal/provider"
)

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OpenAIBaseURL = "https://api.openai.com/v1"
)

// WhisperClient calls an OpenAI-compatible /audio/transcriptions endpoint.
// Groq and OpenAI both speak this protocol; name distinguishes them.
type WhisperClient struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// whisperResponse is the parsed response in verbose_json format.
type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// NewWhisperClient creates a new Whisper HTTP client.
func NewWhisperClient(name, baseURL, apiKey, model string, timeout time.Duration) *WhisperClient {
	return &WhisperClient{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (wc *WhisperClient) Name() string  { return wc.name }
func (wc *WhisperClient) Model() string { return wc.model }

// Transcribe uploads media as multipart/form-data and returns the transcript.
func (wc *WhisperClient) Transcribe(ctx context.Context, media Media, opts Options) (*Response, error) {
	if wc.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", wc.name, provider.ErrMissingCredential)
	}
	media = media.WithDefaults()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", media.Filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(media.Data); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	w.WriteField("model", wc.model)
	w.WriteField("response_format", "verbose_json")

	if opts.Language != "" {
		w.WriteField("language", opts.Language)
	}
	if opts.Prompt != "" {
		w.WriteField("prompt", opts.Prompt)
	}
	if opts.Temperature > 0 {
		w.WriteField("temperature", fmt.Sprintf("%.2f", opts.Temperature))
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wc.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+wc.apiKey)

	body, err := doRequest(wc.client, req, wc.name)
	if err != nil {
		return nil, err
	}

	var result whisperResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &provider.DecodeError{Provider: wc.name, Err: err}
	}

	return &Response{
		Text:     result.Text,
		Language: result.Language,
		Duration: result.Duration,
	}, nil
}
