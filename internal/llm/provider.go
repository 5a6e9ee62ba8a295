package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/motionai/motion-engine/internal/provider"
)

// DefaultTemperature matches the sampling used for article generation.
const DefaultTemperature = 0.7

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int     // 0 = client default
	Temperature float64 // 0 = DefaultTemperature
	JSON        bool    // ask for a JSON object response where supported
}

// Provider is the interface for text generation backends.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
	Model() string
	MaxTokens() int
}

func temperature(req Request) float64 {
	if req.Temperature <= 0 {
		return DefaultTemperature
	}
	return req.Temperature
}

// postJSON sends payload and returns the body of a 2xx response.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any, name string) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &provider.StatusError{Provider: name, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
