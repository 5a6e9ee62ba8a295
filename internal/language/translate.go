package language

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/metrics"
)

// MachineTranslator is the first translation tier.
type MachineTranslator interface {
	Translate(ctx context.Context, text string, source, target Code) (string, error)
}

// CompleteFunc sends a prompt to a text generation backend and returns its reply.
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// Translator converts text between supported languages. It tries the
// machine translation service first and falls back to an AI model. It never
// fails: when every tier fails the input is returned unchanged.
type Translator struct {
	Machine MachineTranslator // optional
	AI      CompleteFunc      // optional
	Log     zerolog.Logger
}

// TranslationPrompt builds the instruction sent to the AI tier.
func TranslationPrompt(text string, target Code) string {
	return fmt.Sprintf("Translate the following text to %s. Maintain the original formatting and structure:\n\n%s",
		target.Name(), text)
}

// Translate returns text rendered in target. An empty source means auto-detect.
func (t *Translator) Translate(ctx context.Context, text string, target, source Code) string {
	if strings.TrimSpace(text) == "" || target == "" {
		return text
	}
	if source == "" {
		source = Auto
	}
	if source != Auto && source == target {
		metrics.TranslationsTotal.WithLabelValues("skipped").Inc()
		return text
	}

	log := t.Log.With().Str("source", string(source)).Str("target", string(target)).Logger()

	if t.Machine != nil {
		out, err := t.Machine.Translate(ctx, text, source, target)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("machine translation failed, trying AI")
		case out == text:
			log.Debug().Msg("machine translation returned input unchanged, trying AI")
		default:
			metrics.TranslationsTotal.WithLabelValues("machine").Inc()
			return out
		}
	}

	if t.AI != nil && ctx.Err() == nil {
		out, err := t.AI(ctx, TranslationPrompt(text, target))
		if err == nil && strings.TrimSpace(out) != "" {
			metrics.TranslationsTotal.WithLabelValues("ai").Inc()
			return out
		}
		log.Warn().Err(err).Msg("AI translation failed, keeping original text")
	}

	metrics.TranslationsTotal.WithLabelValues("none").Inc()
	return text
}
