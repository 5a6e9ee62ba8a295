package transcribe

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/language"
	"github.com/motionai/motion-engine/internal/provider"
	"github.com/motionai/motion-engine/internal/retry"
)

// Result is a successful transcription.
type Result struct {
	Text     string        `json:"text"`
	Language language.Code `json:"language"`
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
}

// Service runs the speech-to-text provider chain.
type Service struct {
	chain     *provider.Chain[Media, *Response]
	providers []Provider
}

// NewService creates a transcription service over providers, tried in order.
func NewService(providers []Provider, policy retry.Policy, log zerolog.Logger, retryOpts ...retry.Option) *Service {
	s := &Service{providers: providers}
	specs := make([]provider.Spec[Media, *Response], 0, len(providers))
	for _, p := range providers {
		p := p
		specs = append(specs, provider.Spec[Media, *Response]{
			Name:   p.Name(),
			Config: provider.Config{Model: p.Model()},
			Invoke: func(ctx context.Context, m Media) (*Response, error) {
				resp, err := p.Transcribe(ctx, m, Options{})
				if err != nil {
					return nil, err
				}
				if resp == nil || strings.TrimSpace(resp.Text) == "" {
					return nil, fmt.Errorf("%s: %w", p.Name(), provider.ErrEmptyOutput)
				}
				return resp, nil
			},
		})
	}
	s.chain = &provider.Chain[Media, *Response]{
		Operation:    "transcribe",
		Providers:    specs,
		Policy:       policy,
		Log:          log.With().Str("component", "transcribe").Logger(),
		RetryOptions: retryOpts,
	}
	return s
}

// Providers returns the provider names in chain order.
func (s *Service) Providers() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}

// Transcribe converts media to text. When every provider fails the returned
// error matches provider.ErrAllProvidersFailed; no transcript is invented.
func (s *Service) Transcribe(ctx context.Context, media Media) (*Result, error) {
	media = media.WithDefaults()
	out, err := s.chain.Run(ctx, media)
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", media.Filename, err)
	}
	text := strings.TrimSpace(out.Value.Text)
	return &Result{
		Text:     text,
		Language: language.Detect(text),
		Provider: out.Provider,
		Model:    out.Model,
	}, nil
}
