// Copyright (c) Microsoft. All rights reserved.

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	ak "github.com/microsoft/agentkit/agentkit"
)

// ExporterType selects how spans leave the process.
type ExporterType string

const (
	// ExporterOTLPGRPC exports spans via OTLP over gRPC.
	ExporterOTLPGRPC ExporterType = "otlp-grpc"

	// ExporterOTLPHTTP exports spans via OTLP over HTTP.
	ExporterOTLPHTTP ExporterType = "otlp-http"

	// ExporterNone keeps spans in-process. Useful in tests.
	ExporterNone ExporterType = "none"
)

// TracingConfig configures a [TracingProvider].
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	ExporterType ExporterType
	Endpoint     string
	Headers      map[string]string
	Insecure     bool

	// SampleRate is the fraction of runs to sample, 0.0 to 1.0.
	// Zero means sample everything.
	SampleRate float64
}

// TracingProvider owns the OpenTelemetry tracer used by the middleware.
type TracingProvider struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
}

// NewTracingProvider sets up an OpenTelemetry tracer provider with the
// configured exporter and registers it globally.
func NewTracingProvider(ctx context.Context, cfg TracingConfig) (*TracingProvider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "agentkit"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracingProvider{
		tracerProvider: tp,
		tracer:         tp.Tracer("agentkit"),
	}, nil
}

func createExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case ExporterOTLPGRPC:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	case ExporterOTLPHTTP:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	case ExporterNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported exporter type %q", cfg.ExporterType)
	}
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Middleware returns an [agentkit.AgentMiddleware] that opens a span for
// each agent run and records message counts, token usage and errors.
func (tp *TracingProvider) Middleware(agentName string) ak.AgentMiddleware {
	return func(next ak.AgentHandler) ak.AgentHandler {
		return func(ctx context.Context, req *ak.RunRequest) (*ak.RunResponse, error) {
			ctx, span := tp.tracer.Start(ctx, "agent.run",
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("agent.name", agentName),
					attribute.Int("agent.input_messages", len(req.Messages)),
				),
			)
			defer span.End()

			resp, err := next(ctx, req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}

			span.SetAttributes(
				attribute.Int("agent.output_messages", len(resp.Messages)),
				attribute.Int("agent.usage.input_tokens", resp.Usage.InputTokens),
				attribute.Int("agent.usage.output_tokens", resp.Usage.OutputTokens),
			)
			span.SetStatus(codes.Ok, "")
			return resp, nil
		}
	}
}

// Shutdown flushes pending spans and releases exporter resources.
func (tp *TracingProvider) Shutdown(ctx context.Context) error {
	return tp.tracerProvider.Shutdown(ctx)
}
