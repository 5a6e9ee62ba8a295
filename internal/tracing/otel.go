package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Options controls exporter selection.
type Options struct {
	ServiceName string
	Version     string
	Enabled     bool
	// Endpoint is an OTLP/gRPC collector address. Empty writes spans to Stdout.
	Endpoint string
	Stdout   io.Writer
}

// Runtime holds the shutdown hook for the installed tracer provider.
type Runtime struct {
	Shutdown func(context.Context) error
}

// Setup installs a global tracer provider when tracing is enabled. When it is
// disabled the otel no-op provider stays in place and spans cost nothing.
func Setup(ctx context.Context, opts Options) (Runtime, error) {
	noop := Runtime{Shutdown: func(context.Context) error { return nil }}
	if !opts.Enabled {
		return noop, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", opts.ServiceName),
			attribute.String("service.version", opts.Version),
		),
	)
	if err != nil {
		return Runtime{}, fmt.Errorf("otel resource: %w", err)
	}

	var exp sdktrace.SpanExporter
	if opts.Endpoint != "" {
		exp, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(opts.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return Runtime{}, fmt.Errorf("otel otlp exporter: %w", err)
		}
	} else {
		stdoutOpts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if opts.Stdout != nil {
			stdoutOpts = append(stdoutOpts, stdouttrace.WithWriter(opts.Stdout))
		}
		exp, err = stdouttrace.New(stdoutOpts...)
		if err != nil {
			return Runtime{}, fmt.Errorf("otel stdout exporter: %w", err)
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return Runtime{Shutdown: tp.Shutdown}, nil
}
