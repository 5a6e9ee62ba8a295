package generate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/language"
	"github.com/motionai/motion-engine/internal/llm"
	"github.com/motionai/motion-engine/internal/retry"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC) }

type fakeLLM struct {
	name    string
	replies []string // consumed in order; the last one repeats
	err     error
	calls   int
	reqs    []llm.Request
}

func (f *fakeLLM) Name() string   { return f.name }
func (f *fakeLLM) Model() string  { return f.name + "-model" }
func (f *fakeLLM) MaxTokens() int { return 2000 }

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.calls++
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return "", f.err
	}
	i := f.calls - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i], nil
}

type fakeMachine struct {
	calls int
	out   string
}

func (m *fakeMachine) Translate(context.Context, string, language.Code, language.Code) (string, error) {
	m.calls++
	return m.out, nil
}

func newTestService(machine language.MachineTranslator, ps ...llm.Provider) *Service {
	return NewService(Options{
		Providers:    ps,
		Policy:       retry.Policy{MaxAttempts: 2, BaseDelay: time.Second},
		RetryOptions: []retry.Option{retry.WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() })},
		Machine:      machine,
		Log:          zerolog.Nop(),
		Now:          fixedNow,
	})
}

func TestGenerate_NoCredentialsUsesFallback(t *testing.T) {
	providers, err := llm.NewProviders(nil, llm.Settings{Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	svc := newTestService(nil, providers...)

	input := "Hello world. This is a test."
	res := svc.Generate(context.Background(), Context{Transcription: input})

	if !res.Fallback {
		t.Error("Fallback = false, want true")
	}
	firstLine, _, _ := strings.Cut(res.Text, "\n")
	if !strings.HasPrefix(firstLine, "# ") {
		t.Errorf("first line = %q, want '# ' prefix", firstLine)
	}
	if !strings.Contains(res.Body, input) {
		t.Errorf("body does not contain transcription verbatim:\n%s", res.Body)
	}
	if res.Title != "AI Generated Blog Post" {
		t.Errorf("title = %q", res.Title)
	}
}

func TestGenerate_AllProvidersFailEmbedsTranscription(t *testing.T) {
	a := &fakeLLM{name: "groq", err: errors.New("connection reset")}
	b := &fakeLLM{name: "openai", err: errors.New("connection reset")}
	input := "Some  spoken\twords here"

	res := newTestService(nil, a, b).Generate(context.Background(), Context{Transcription: input, TargetLanguage: language.Spanish})
	if !res.Fallback {
		t.Fatal("expected fallback")
	}
	if !strings.Contains(res.Text, input) {
		t.Error("fallback missing verbatim transcription")
	}
	if a.calls != 2 || b.calls != 2 {
		t.Errorf("calls = %d/%d, want 2/2", a.calls, b.calls)
	}
}

func TestGenerate_FirstSuccessWins(t *testing.T) {
	a := &fakeLLM{name: "groq", err: errors.New("timeout")}
	b := &fakeLLM{name: "openai", replies: []string{"# My Great Post\n\nIntro paragraph.\n\n## Section\n\nText."}}
	c := &fakeLLM{name: "anthropic", replies: []string{"# Unused"}}

	res := newTestService(nil, a, b, c).Generate(context.Background(), Context{
		Transcription:  "talk about go",
		StyleReference: "previous post body",
	})
	if res.Fallback {
		t.Fatal("unexpected fallback")
	}
	if res.Provider != "openai" || res.Model != "openai-model" {
		t.Errorf("provider = %s/%s", res.Provider, res.Model)
	}
	if res.Title != "My Great Post" {
		t.Errorf("title = %q", res.Title)
	}
	if !strings.HasPrefix(res.Body, "Intro paragraph.") {
		t.Errorf("body = %q", res.Body)
	}
	if c.calls != 0 {
		t.Errorf("anthropic calls = %d, want 0", c.calls)
	}
	prompt := b.reqs[0].Prompt
	for _, want := range []string{"previous post body", "Target language: English", "Transcription: talk about go"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerate_TranslatesWhenModelIgnoredLanguage(t *testing.T) {
	english := "# Learning Go\n\nThis is an article about the Go programming language and why people enjoy writing it every day."
	spanish := "# Aprendiendo Go\n\nEste es un artículo sobre el lenguaje de programación Go y por qué a la gente le gusta escribirlo todos los días."
	p := &fakeLLM{name: "groq", replies: []string{english}}
	m := &fakeMachine{out: spanish}

	res := newTestService(m, p).Generate(context.Background(), Context{Transcription: "x", TargetLanguage: language.Spanish})
	if res.Text != spanish {
		t.Errorf("text = %q, want machine translation", res.Text)
	}
	if m.calls != 1 {
		t.Errorf("machine calls = %d, want 1", m.calls)
	}
	if res.Language != language.Spanish {
		t.Errorf("language = %s", res.Language)
	}
}

func TestGenerate_NoTranslationWhenAlreadyInTarget(t *testing.T) {
	spanish := "# Aprendiendo Go\n\nEste es un artículo sobre el lenguaje de programación Go y por qué a la gente le gusta escribirlo todos los días."
	p := &fakeLLM{name: "groq", replies: []string{spanish}}
	m := &fakeMachine{out: "should not be used"}

	res := newTestService(m, p).Generate(context.Background(), Context{Transcription: "x", TargetLanguage: language.Spanish})
	if res.Text != spanish {
		t.Errorf("text changed: %q", res.Text)
	}
	if m.calls != 0 {
		t.Errorf("machine calls = %d, want 0", m.calls)
	}
	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (no AI translation)", p.calls)
	}
}

func TestGenerate_TemplateResolution(t *testing.T) {
	p := &fakeLLM{name: "groq", replies: []string{"# T\n\nbody"}}
	svc := newTestService(nil, p)

	svc.Generate(context.Background(), Context{Transcription: "x", Template: "tutorial"})
	if !strings.Contains(p.reqs[0].Prompt, "step-by-step tutorial") {
		t.Error("template ID was not resolved to its prompt")
	}

	svc.Generate(context.Background(), Context{Transcription: "x", Template: "Write it as a haiku."})
	if !strings.Contains(p.reqs[1].Prompt, "Write it as a haiku.") {
		t.Error("literal template instructions missing from prompt")
	}
	if strings.Contains(p.reqs[1].Prompt, "SEO-friendly title") {
		t.Error("default structure should be replaced by the template")
	}
}

func TestGenerateWithTemplate(t *testing.T) {
	p := &fakeLLM{name: "groq", err: errors.New("down")}
	svc := newTestService(nil, p)

	if _, err := svc.GenerateWithTemplate(context.Background(), "x", "nope", language.English); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("err = %v, want ErrUnknownTemplate", err)
	}

	res, err := svc.GenerateWithTemplate(context.Background(), "the transcript", "review", language.French)
	if err != nil {
		t.Fatalf("GenerateWithTemplate: %v", err)
	}
	if !res.Fallback || !strings.Contains(res.Text, "the transcript") {
		t.Errorf("res = %+v", res)
	}
	if !strings.Contains(p.reqs[0].Prompt, "Write in French language.") {
		t.Errorf("prompt = %q", p.reqs[0].Prompt)
	}
}

func TestFallbackDocument(t *testing.T) {
	doc := FallbackDocument("one two  three", fixedNow())
	want := `# AI Generated Blog Post

## Introduction

This blog post was generated from an audio transcription containing 3 words.

## Content

one two  three

## Summary

The above content was automatically transcribed and formatted into this blog post structure. You can edit and enhance this content using the editor.

---

*Generated on 3/7/2024*`
	if doc != want {
		t.Errorf("FallbackDocument =\n%s\nwant\n%s", doc, want)
	}
}

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantTitle string
		wantBody  string
	}{
		{"heading", "# Hello\n\nWorld", "Hello", "World"},
		{"h2", "## Hello\nWorld", "Hello", "World"},
		{"bold", "**Hello**\nWorld", "Hello", "World"},
		{"leading_blank", "\n\n# Hello\nWorld", "Hello", "World"},
		{"title_only", "# Hello", "Hello", ""},
		{"empty", "", "Untitled", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := SplitTitle(tt.text)
			if title != tt.wantTitle || body != tt.wantBody {
				t.Errorf("SplitTitle = (%q, %q), want (%q, %q)", title, body, tt.wantTitle, tt.wantBody)
			}
		})
	}
}

func TestBuildPrompt_StyleReferenceTruncated(t *testing.T) {
	style := strings.Repeat("a", maxStyleReference) + "RECENT"
	prompt := BuildPrompt(Context{Transcription: "x", StyleReference: style, TargetLanguage: language.German}, "")
	if !strings.Contains(prompt, "RECENT") {
		t.Error("most recent style text should be kept")
	}
	if strings.Contains(prompt, strings.Repeat("a", maxStyleReference)) {
		t.Error("style reference not truncated")
	}
	if !strings.Contains(prompt, "all body text in German") {
		t.Error("target language name missing")
	}
}
