// Copyright (c) Microsoft. All rights reserved.

// Package telemetry wires observability into agentkit pipelines.
//
// [NewTracingProvider] configures OpenTelemetry tracing with OTLP export
// and returns a provider whose [TracingProvider.Middleware] spans every
// agent run. [NewMetrics] registers Prometheus collectors for run counts,
// latencies and token usage; [Metrics.Middleware] records them and
// [Metrics.Serve] exposes the scrape endpoint.
package telemetry
