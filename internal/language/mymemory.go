package language

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/motionai/motion-engine/internal/provider"
)

const defaultMyMemoryURL = "https://api.mymemory.translated.net"

// MyMemoryClient calls the MyMemory public translation API.
type MyMemoryClient struct {
	baseURL string
	email   string // raises the anonymous daily quota when set
	client  *http.Client
}

// NewMyMemoryClient creates a client. An empty baseURL uses the public endpoint.
func NewMyMemoryClient(baseURL, email string, timeout time.Duration) *MyMemoryClient {
	if baseURL == "" {
		baseURL = defaultMyMemoryURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MyMemoryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		email:   email,
		client:  &http.Client{Timeout: timeout},
	}
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	// responseStatus is a number on success and sometimes a string on quota errors
	ResponseStatus  any    `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
}

func (r *myMemoryResponse) status() int {
	switch v := r.ResponseStatus.(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

// Translate sends text to MyMemory. source may be Auto.
func (c *MyMemoryClient) Translate(ctx context.Context, text string, source, target Code) (string, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", string(source)+"|"+string(target))
	if c.email != "" {
		q.Set("de", c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mymemory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &provider.StatusError{Provider: "mymemory", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &provider.DecodeError{Provider: "mymemory", Err: err}
	}
	if st := result.status(); st != http.StatusOK {
		return "", &provider.StatusError{Provider: "mymemory", StatusCode: st, Body: result.ResponseDetails}
	}
	if strings.TrimSpace(result.ResponseData.TranslatedText) == "" {
		return "", provider.ErrEmptyOutput
	}
	return result.ResponseData.TranslatedText, nil
}
