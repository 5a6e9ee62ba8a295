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

const ElevenLabsBaseURL = "https://api.elevenlabs.io"

// ElevenLabsClient calls the ElevenLabs Speech-to-Text API.
// Implements the Provider interface.
type ElevenLabsClient struct {
	baseURL  string
	apiKey   string
	model    string // "scribe_v1"
	keyterms string // comma-separated boost terms
	client   *http.Client
}

// elevenlabsResponse is the JSON response from the ElevenLabs STT API.
type elevenlabsResponse struct {
	LanguageCode        string  `json:"language_code"`
	LanguageProbability float64 `json:"language_probability"`
	Text                string  `json:"text"`
}

// NewElevenLabsClient creates a new ElevenLabs STT client.
func NewElevenLabsClient(baseURL, apiKey, model, keyterms string, timeout time.Duration) *ElevenLabsClient {
	return &ElevenLabsClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		model:    model,
		keyterms: keyterms,
		client:   &http.Client{Timeout: timeout},
	}
}

func (el *ElevenLabsClient) Name() string  { return "elevenlabs" }
func (el *ElevenLabsClient) Model() string { return el.model }

// Transcribe sends the media to the ElevenLabs STT API and returns the result.
func (el *ElevenLabsClient) Transcribe(ctx context.Context, media Media, opts Options) (*Response, error) {
	if el.apiKey == "" {
		return nil, fmt.Errorf("elevenlabs: %w", provider.ErrMissingCredential)
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

	w.WriteField("model_id", el.model)
	if opts.Language != "" {
		w.WriteField("language_code", opts.Language)
	}
	if keyterms := el.buildKeyterms(opts.Prompt); keyterms != "" {
		w.WriteField("keyterms", keyterms)
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, el.baseURL+"/v1/speech-to-text", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("xi-api-key", el.apiKey)

	body, err := doRequest(el.client, req, "elevenlabs")
	if err != nil {
		return nil, err
	}

	var result elevenlabsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &provider.DecodeError{Provider: "elevenlabs", Err: err}
	}

	return &Response{
		Text:     result.Text,
		Language: result.LanguageCode,
	}, nil
}

// buildKeyterms merges config-level keyterms with per-request vocabulary into
// a JSON array of {"text": "term"} objects.
func (el *ElevenLabsClient) buildKeyterms(extra string) string {
	var terms []string
	for _, src := range []string{el.keyterms, extra} {
		for _, t := range strings.Split(src, ",") {
			if t = strings.TrimSpace(t); t != "" {
				terms = append(terms, t)
			}
		}
	}
	if len(terms) == 0 {
		return ""
	}

	type keyterm struct {
		Text string `json:"text"`
	}
	arr := make([]keyterm, len(terms))
	for i, t := range terms {
		arr[i] = keyterm{Text: t}
	}
	b, _ := json.Marshal(arr)
	return string(b)
}
