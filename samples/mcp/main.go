// Copyright (c) Microsoft. All rights reserved.

// Command mcp runs an agent whose tools come from an MCP server, with
// tracing and Prometheus metrics wired in.
//
// Usage:
//
//	export OPENAI_API_KEY=sk-...
//	export MCP_ENDPOINT=http://localhost:8080/mcp
//	export OTLP_ENDPOINT=localhost:4317        # optional, enables tracing
//	go run .
//
// Metrics are exposed on :9090/metrics while the program runs.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	ak "github.com/microsoft/agentkit/agentkit"
	"github.com/microsoft/agentkit/mcptool"
	"github.com/microsoft/agentkit/openai"
	"github.com/microsoft/agentkit/telemetry"
)

func main() {
	_ = godotenv.Load()

	key := os.Getenv("OPENAI_API_KEY")
	mcpEndpoint := os.Getenv("MCP_ENDPOINT")
	if key == "" || mcpEndpoint == "" {
		log.Fatal("Set OPENAI_API_KEY and MCP_ENDPOINT")
	}

	ctx := context.Background()

	tracingCfg := telemetry.TracingConfig{ServiceName: "agentkit-mcp-sample"}
	if otlp := os.Getenv("OTLP_ENDPOINT"); otlp != "" {
		tracingCfg.ExporterType = telemetry.ExporterOTLPGRPC
		tracingCfg.Endpoint = otlp
		tracingCfg.Insecure = true
	}
	tracing, err := telemetry.NewTracingProvider(ctx, tracingCfg)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer tracing.Shutdown(ctx)

	metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{})
	if err != nil {
		log.Fatalf("Failed to set up metrics: %v", err)
	}
	go func() {
		if err := metrics.Serve(); err != nil {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
	defer metrics.Shutdown(ctx)

	session, err := mcptool.Connect(ctx, mcpEndpoint, mcptool.WithClientName("agentkit-mcp-sample"))
	if err != nil {
		log.Fatalf("Failed to connect to MCP server: %v", err)
	}
	defer session.Close()

	fmt.Printf("MCP server offers %d tools:\n", len(session.Tools()))
	for _, t := range session.Tools() {
		fmt.Printf("  %s — %s\n", t.Name(), t.Description())
	}
	fmt.Println()

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o"
	}

	agent := ak.NewAgent(openai.New(key, openai.WithModel(model)),
		ak.WithName("mcp-assistant"),
		ak.WithInstructions("Use the available tools to answer. Keep responses concise."),
		ak.WithTools(session.Tools()...),
		ak.WithAgentMiddleware(
			tracing.Middleware("mcp-assistant"),
			metrics.Middleware("mcp-assistant"),
		),
		ak.WithFunctionMiddleware(metrics.FunctionMiddleware()),
	)

	thread := agent.NewThread()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}

		resp, err := agent.Run(ctx,
			[]ak.Message{ak.NewUserMessage(input)},
			ak.WithThread(thread),
		)
		if err != nil {
			log.Printf("Error: %v", err)
			continue
		}
		fmt.Printf("Assistant: %s\n\n", resp.Text())
	}
}
