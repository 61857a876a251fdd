// Copyright (c) Microsoft. All rights reserved.

package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	ak "github.com/microsoft/agentkit/agentkit"
)

func okHandler(resp *ak.RunResponse) ak.AgentHandler {
	return func(ctx context.Context, req *ak.RunRequest) (*ak.RunResponse, error) {
		return resp, nil
	}
}

func TestMetrics_Middleware_RecordsRuns(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	handler := m.Middleware("support-bot")(okHandler(&ak.RunResponse{
		Usage: ak.UsageDetails{InputTokens: 12, OutputTokens: 5, TotalTokens: 17},
	}))

	for range 3 {
		if _, err := handler(context.Background(), &ak.RunRequest{}); err != nil {
			t.Fatalf("handler: %v", err)
		}
	}

	runs := testutil.ToFloat64(m.runTotal.WithLabelValues("support-bot", "ok"))
	if runs != 3 {
		t.Errorf("runs = %v, want 3", runs)
	}
	inTokens := testutil.ToFloat64(m.tokenUsage.WithLabelValues("support-bot", "input"))
	if inTokens != 36 {
		t.Errorf("input tokens = %v, want 36", inTokens)
	}
	outTokens := testutil.ToFloat64(m.tokenUsage.WithLabelValues("support-bot", "output"))
	if outTokens != 15 {
		t.Errorf("output tokens = %v, want 15", outTokens)
	}
}

func TestMetrics_Middleware_RecordsErrors(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	boom := errors.New("boom")
	handler := m.Middleware("support-bot")(func(ctx context.Context, req *ak.RunRequest) (*ak.RunResponse, error) {
		return nil, boom
	})

	if _, err := handler(context.Background(), &ak.RunRequest{}); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}

	errRuns := testutil.ToFloat64(m.runTotal.WithLabelValues("support-bot", "error"))
	if errRuns != 1 {
		t.Errorf("error runs = %v, want 1", errRuns)
	}
}

func TestMetrics_FunctionMiddleware(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	tool := ak.NewTool("get_weather", "weather", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) { return "sunny", nil })

	handler := m.FunctionMiddleware()(func(ctx context.Context, tl ak.Tool, args json.RawMessage) (any, error) {
		return tl.Invoke(ctx, args)
	})

	if _, err := handler(context.Background(), tool, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("handler: %v", err)
	}

	calls := testutil.ToFloat64(m.toolTotal.WithLabelValues("get_weather", "ok"))
	if calls != 1 {
		t.Errorf("tool calls = %v, want 1", calls)
	}
}

func TestMetrics_Handler_Exposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(MetricsConfig{Namespace: "testns", Registry: reg})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	handler := m.Middleware("bot")(okHandler(&ak.RunResponse{}))
	if _, err := handler(context.Background(), &ak.RunRequest{}); err != nil {
		t.Fatalf("handler: %v", err)
	}

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()

	var sb strings.Builder
	buf := make([]byte, 64*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		sb.Write(buf[:n])
		if readErr != nil {
			break
		}
	}
	if !strings.Contains(sb.String(), "testns_agent_runs_total") {
		t.Error("exposition output missing run counter")
	}
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewMetrics(MetricsConfig{Registry: reg}); err != nil {
		t.Fatalf("first NewMetrics: %v", err)
	}
	if _, err := NewMetrics(MetricsConfig{Registry: reg}); err == nil {
		t.Error("expected duplicate registration error")
	}
}
