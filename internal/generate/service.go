package generate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/language"
	"github.com/motionai/motion-engine/internal/llm"
	"github.com/motionai/motion-engine/internal/metrics"
	"github.com/motionai/motion-engine/internal/provider"
	"github.com/motionai/motion-engine/internal/retry"
	"github.com/motionai/motion-engine/internal/templates"
)

// ErrUnknownTemplate is returned by GenerateWithTemplate for an unknown ID.
var ErrUnknownTemplate = errors.New("unknown template")

// Result is a generated post. Fallback is set when no provider succeeded and
// Text is the deterministic fallback document.
type Result struct {
	Text     string        `json:"text"`
	Title    string        `json:"title"`
	Body     string        `json:"body"`
	Language language.Code `json:"language"`
	Provider string        `json:"provider,omitempty"`
	Model    string        `json:"model,omitempty"`
	Fallback bool          `json:"fallback"`
}

// Options configures a Service.
type Options struct {
	Providers    []llm.Provider
	Policy       retry.Policy
	RetryOptions []retry.Option
	// Machine is the first translation tier. Nil skips straight to AI translation.
	Machine language.MachineTranslator
	Catalog *templates.Catalog
	Log     zerolog.Logger
	Now     func() time.Time
}

// Service runs the generation provider chain. It is stateless and safe for
// concurrent use.
type Service struct {
	specs      []provider.Spec[llm.Request, string]
	names      []string
	policy     retry.Policy
	retryOpts  []retry.Option
	translator *language.Translator
	catalog    *templates.Catalog
	log        zerolog.Logger
	now        func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		policy:    opts.Policy,
		retryOpts: opts.RetryOptions,
		catalog:   opts.Catalog,
		log:       opts.Log.With().Str("component", "generate").Logger(),
		now:       opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.catalog == nil {
		s.catalog = templates.Default()
	}
	for _, p := range opts.Providers {
		p := p
		s.names = append(s.names, p.Name())
		s.specs = append(s.specs, provider.Spec[llm.Request, string]{
			Name:   p.Name(),
			Config: provider.Config{Model: p.Model(), MaxTokens: p.MaxTokens()},
			Invoke: func(ctx context.Context, req llm.Request) (string, error) {
				return p.Complete(ctx, req)
			},
		})
	}
	s.translator = &language.Translator{
		Machine: opts.Machine,
		AI:      s.translateWithAI,
		Log:     s.log,
	}
	return s
}

// Providers returns the provider names in chain order.
func (s *Service) Providers() []string { return s.names }

// Catalog returns the template catalog used to resolve template IDs.
func (s *Service) Catalog() *templates.Catalog { return s.catalog }

func (s *Service) run(ctx context.Context, operation string, req llm.Request) (provider.Outcome[string], error) {
	chain := provider.Chain[llm.Request, string]{
		Operation:    operation,
		Providers:    s.specs,
		Policy:       s.policy,
		Log:          s.log,
		RetryOptions: s.retryOpts,
	}
	return chain.Run(ctx, req)
}

// Generate turns a transcription into a markdown post. It never fails: when
// every provider is exhausted the fallback document is returned instead.
func (s *Service) Generate(ctx context.Context, gc Context) Result {
	target := targetLanguage(gc.TargetLanguage)
	prompt := BuildPrompt(gc, s.resolveTemplate(gc.Template))

	out, err := s.run(ctx, "generate", llm.Request{Prompt: prompt})
	if err != nil {
		return s.fallback(err, gc.Transcription)
	}

	text := out.Value
	if target != language.English {
		// the model was asked for the target language; only translate if it ignored that
		text = s.translator.Translate(ctx, text, target, language.Detect(text))
	}
	r := newResult(text, target)
	r.Provider, r.Model = out.Provider, out.Model
	return r
}

// GenerateWithTemplate generates a post following a catalog template.
func (s *Service) GenerateWithTemplate(ctx context.Context, transcription, templateID string, target language.Code) (Result, error) {
	t, ok := s.catalog.Get(templateID)
	if !ok {
		return Result{}, ErrUnknownTemplate
	}
	target = targetLanguage(target)

	out, err := s.run(ctx, "generate_template", llm.Request{
		Prompt:    templatePrompt(t.Prompt, transcription, target),
		MaxTokens: 2000,
	})
	if err != nil {
		return s.fallback(err, transcription), nil
	}
	r := newResult(out.Value, target)
	r.Provider, r.Model = out.Provider, out.Model
	return r, nil
}

// resolveTemplate maps a template ID onto its instructions. Anything that is
// not a known ID is treated as literal instructions.
func (s *Service) resolveTemplate(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if t, ok := s.catalog.Get(ref); ok {
		return t.Prompt
	}
	return ref
}

func (s *Service) fallback(err error, transcription string) Result {
	s.log.Warn().Err(err).Msg("all generation providers failed, using fallback document")
	metrics.FallbackDocumentsTotal.Inc()
	r := newResult(FallbackDocument(transcription, s.now()), language.English)
	r.Fallback = true
	return r
}

func (s *Service) translateWithAI(ctx context.Context, prompt string) (string, error) {
	out, err := s.run(ctx, "translate", llm.Request{Prompt: prompt, Temperature: 0.3, MaxTokens: 2000})
	if err != nil {
		return "", err
	}
	return out.Value, nil
}

func newResult(text string, lang language.Code) Result {
	title, body := SplitTitle(text)
	return Result{Text: text, Title: title, Body: body, Language: lang}
}
