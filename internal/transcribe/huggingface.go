package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/motionai/motion-engine/internal/provider"
)

const HuggingFaceBaseURL = "https://api-inference.huggingface.co"

// HuggingFaceClient calls the hosted inference API for Whisper models.
// Implements the Provider interface.
type HuggingFaceClient struct {
	baseURL string
	apiKey  string
	model   string // e.g. "openai/whisper-large-v3"
	client  *http.Client
}

// huggingFaceResponse is the JSON response from the inference API.
type huggingFaceResponse struct {
	Text string `json:"text"`
}

// NewHuggingFaceClient creates a new inference API client.
func NewHuggingFaceClient(baseURL, apiKey, model string, timeout time.Duration) *HuggingFaceClient {
	return &HuggingFaceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (hf *HuggingFaceClient) Name() string  { return "huggingface" }
func (hf *HuggingFaceClient) Model() string { return hf.model }

// Transcribe posts the raw audio bytes. The inference API takes the body as
// the model input, so no multipart envelope is used.
func (hf *HuggingFaceClient) Transcribe(ctx context.Context, media Media, _ Options) (*Response, error) {
	if hf.apiKey == "" {
		return nil, fmt.Errorf("huggingface: %w", provider.ErrMissingCredential)
	}

	// Endpoint: {base}/models/{model}
	url := hf.baseURL + "/models/" + hf.model

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(media.Data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", "Bearer "+hf.apiKey)

	body, err := doRequest(hf.client, req, "huggingface")
	if err != nil {
		return nil, err
	}

	var result huggingFaceResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &provider.DecodeError{Provider: "huggingface", Err: err}
	}
	return &Response{Text: result.Text}, nil
}
