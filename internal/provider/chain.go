package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/motionai/motion-engine/internal/metrics"
	"github.com/motionai/motion-engine/internal/retry"
)

var tracer = otel.Tracer("github.com/motionai/motion-engine/internal/provider")

// Config describes the model settings a provider is invoked with.
type Config struct {
	Model     string
	MaxTokens int
}

// Spec is one entry in a provider chain.
type Spec[In, Out any] struct {
	Name   string
	Config Config
	Invoke func(ctx context.Context, in In) (Out, error)
}

// Outcome is the result of a successful chain run.
type Outcome[Out any] struct {
	Value    Out
	Provider string
	Model    string
	Attempts int // attempts spent on the winning provider
}

// Chain tries each provider in order, retrying transient failures according
// to Policy, and returns the first success. Providers after the winner are
// never invoked.
type Chain[In, Out any] struct {
	Operation    string
	Providers    []Spec[In, Out]
	Policy       retry.Policy
	Log          zerolog.Logger
	RetryOptions []retry.Option
}

// Run executes the chain. On exhaustion it returns an *ExhaustedError that
// matches ErrAllProvidersFailed. A cancelled ctx is returned as-is without
// trying further providers.
func (c *Chain[In, Out]) Run(ctx context.Context, in In) (Outcome[Out], error) {
	var zero Outcome[Out]
	var failures []*Error

	for _, p := range c.Providers {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		out, attempts, err := c.invoke(ctx, p, in)
		if err == nil {
			return Outcome[Out]{Value: out, Provider: p.Name, Model: p.Config.Model, Attempts: attempts}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}

		pe := Normalize(p.Name, err)
		failures = append(failures, pe)
		c.Log.Warn().
			Err(pe.Cause).
			Str("operation", c.Operation).
			Str("provider", p.Name).
			Str("model", p.Config.Model).
			Str("kind", pe.Kind.String()).
			Int("attempts", attempts).
			Msg("provider failed, trying next")
	}

	metrics.ChainExhaustedTotal.WithLabelValues(c.Operation).Inc()
	return zero, &ExhaustedError{Operation: c.Operation, Failures: failures}
}

func (c *Chain[In, Out]) invoke(ctx context.Context, p Spec[In, Out], in In) (Out, int, error) {
	ctx, span := tracer.Start(ctx, c.Operation+"."+p.Name, trace.WithAttributes(
		attribute.String("provider.name", p.Name),
		attribute.String("provider.model", p.Config.Model),
	))
	defer span.End()

	start := time.Now()
	attempts := 0
	opts := append([]retry.Option{
		retry.WithOnRetry(func(attempt int, delay time.Duration, err error) {
			c.Log.Debug().
				Err(err).
				Str("operation", c.Operation).
				Str("provider", p.Name).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("retrying provider")
		}),
	}, c.RetryOptions...)

	out, err := retry.Do(ctx, c.Policy, func(ctx context.Context) (Out, error) {
		attempts++
		v, err := p.Invoke(ctx, in)
		if err == nil {
			metrics.ProviderAttemptsTotal.WithLabelValues(c.Operation, p.Name, "success").Inc()
			return v, nil
		}
		pe := Normalize(p.Name, err)
		metrics.ProviderAttemptsTotal.WithLabelValues(c.Operation, p.Name, pe.Kind.String()).Inc()
		if !pe.Retryable() {
			return v, retry.Permanent(pe)
		}
		return v, pe
	}, opts...)

	elapsed := time.Since(start)
	metrics.ProviderDuration.WithLabelValues(c.Operation, p.Name).Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Int("provider.attempts", attempts))

	if err != nil {
		// unwrap the retry marker so callers see the normalized error
		var pe *Error
		if errors.As(err, &pe) {
			err = pe
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return out, attempts, err
	}

	span.SetStatus(codes.Ok, "")
	c.Log.Info().
		Str("operation", c.Operation).
		Str("provider", p.Name).
		Str("model", p.Config.Model).
		Int("attempts", attempts).
		Int64("duration_ms", elapsed.Milliseconds()).
		Msg("provider succeeded")
	return out, attempts, nil
}
