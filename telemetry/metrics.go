// Copyright (c) Microsoft. All rights reserved.

package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ak "github.com/microsoft/agentkit/agentkit"
)

// MetricsConfig configures a [Metrics] instance.
type MetricsConfig struct {
	Namespace string // Prometheus namespace, default "agentkit"
	Path      string // scrape path, default /metrics
	Addr      string // listen address for Serve, default :9090

	// Registry receives the collectors. Nil uses a fresh registry.
	Registry *prometheus.Registry
}

// Metrics holds Prometheus collectors for agent runs.
type Metrics struct {
	cfg      MetricsConfig
	registry *prometheus.Registry
	server   *http.Server

	runTotal    *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	tokenUsage  *prometheus.CounterVec
	toolTotal   *prometheus.CounterVec
}

// NewMetrics registers agent run collectors and returns the provider.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = "agentkit"
	}
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9090"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		cfg:      cfg,
		registry: cfg.Registry,
		runTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "agent_runs_total",
			Help:      "Total agent runs by agent name and status",
		}, []string{"agent", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "agent_run_duration_seconds",
			Help:      "Agent run duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"agent"}),
		tokenUsage: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "agent_tokens_total",
			Help:      "Token usage by agent name and direction",
		}, []string{"agent", "direction"}),
		toolTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "tool_invocations_total",
			Help:      "Tool invocations by tool name and status",
		}, []string{"tool", "status"}),
	}

	for _, c := range []prometheus.Collector{m.runTotal, m.runDuration, m.tokenUsage, m.toolTotal} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// Middleware returns an [agentkit.AgentMiddleware] that records run counts,
// durations and token usage for the named agent.
func (m *Metrics) Middleware(agentName string) ak.AgentMiddleware {
	return func(next ak.AgentHandler) ak.AgentHandler {
		return func(ctx context.Context, req *ak.RunRequest) (*ak.RunResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			m.runDuration.WithLabelValues(agentName).Observe(time.Since(start).Seconds())

			if err != nil {
				m.runTotal.WithLabelValues(agentName, "error").Inc()
				return nil, err
			}

			m.runTotal.WithLabelValues(agentName, "ok").Inc()
			m.tokenUsage.WithLabelValues(agentName, "input").Add(float64(resp.Usage.InputTokens))
			m.tokenUsage.WithLabelValues(agentName, "output").Add(float64(resp.Usage.OutputTokens))
			return resp, nil
		}
	}
}

// FunctionMiddleware returns an [agentkit.FunctionMiddleware] that counts
// tool invocations by outcome.
func (m *Metrics) FunctionMiddleware() ak.FunctionMiddleware {
	return func(next ak.FunctionHandler) ak.FunctionHandler {
		return func(ctx context.Context, tool ak.Tool, args json.RawMessage) (any, error) {
			result, err := next(ctx, tool, args)
			if err != nil {
				m.toolTotal.WithLabelValues(tool.Name(), "error").Inc()
				return nil, err
			}
			m.toolTotal.WithLabelValues(tool.Name(), "ok").Inc()
			return result, nil
		}
	}
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the exposition server and blocks until it stops.
func (m *Metrics) Serve() error {
	mux := http.NewServeMux()
	mux.Handle(m.cfg.Path, m.Handler())
	m.server = &http.Server{Addr: m.cfg.Addr, Handler: mux}
	if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the exposition server if one is running.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
