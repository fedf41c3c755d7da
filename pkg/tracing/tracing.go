// Package tracing configures the process-wide OpenTelemetry tracer provider.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// Exporter names accepted by Init.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// ShutdownFunc flushes pending spans.
type ShutdownFunc func(context.Context) error

type settings struct {
	exporter string
	output   io.Writer
	endpoint string
	insecure bool
}

// Option configures Init.
type Option func(*settings)

// WithExporter selects the span exporter: none, stdout or otlp.
func WithExporter(name string) Option {
	return func(s *settings) {
		s.exporter = strings.ToLower(strings.TrimSpace(name))
	}
}

// WithEndpoint sets the host:port of the OTLP/HTTP collector. Empty keeps
// the exporter default or OTEL_EXPORTER_OTLP_ENDPOINT.
func WithEndpoint(endpoint string) Option {
	return func(s *settings) {
		s.endpoint = strings.TrimSpace(endpoint)
	}
}

// WithInsecure disables TLS towards the OTLP collector.
func WithInsecure(insecure bool) Option {
	return func(s *settings) {
		s.insecure = insecure
	}
}

// WithOutput sets where the stdout exporter writes.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// Init installs a tracer provider for serviceName and returns it with its
// shutdown function. The none exporter installs a noop provider.
func Init(ctx context.Context, serviceName string, opts ...Option) (trace.TracerProvider, ShutdownFunc, error) {
	s := settings{exporter: ExporterNone, output: os.Stdout}
	for _, opt := range opts {
		opt(&s)
	}

	switch s.exporter {
	case "", ExporterNone:
		tp := nooptrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, func(context.Context) error { return nil }, nil
	case ExporterStdout, ExporterOTLP:
	default:
		return nil, nil, fmt.Errorf("unknown trace exporter: %s", s.exporter)
	}

	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("trace resource: %w", err)
	}

	exporter, err := newSpanExporter(ctx, s)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, tp.Shutdown, nil
}

func newSpanExporter(ctx context.Context, s settings) (sdktrace.SpanExporter, error) {
	if s.exporter == ExporterStdout {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(s.output))
		if err != nil {
			return nil, fmt.Errorf("stdout trace exporter: %w", err)
		}
		return exporter, nil
	}

	var opts []otlptracehttp.Option
	if s.endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(s.endpoint))
	}
	if s.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter: %w", err)
	}
	return exporter, nil
}
