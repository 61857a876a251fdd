// Copyright (c) Microsoft. All rights reserved.

// Package agentkit provides the core types and abstractions for building
// provider-backed AI agents in Go. It includes a composable Agent with tool
// calling, middleware pipelines, conversation threads, and streaming support.
//
// # Quick Start
//
// Create a ChatClient (e.g., from the openai package) and build an Agent:
//
//	client := openai.New(os.Getenv("OPENAI_API_KEY"), openai.WithModel("gpt-4o"))
//
//	agent := agentkit.NewAgent(client,
//	    agentkit.WithName("assistant"),
//	    agentkit.WithInstructions("You are helpful."),
//	    agentkit.WithTools(myTool),
//	)
//
//	resp, err := agent.Run(ctx, []agentkit.Message{
//	    agentkit.NewUserMessage("Hello!"),
//	})
//
// # Architecture
//
// The package is organized around these key abstractions:
//
//   - [Agent]: the top-level orchestrator that composes a client with tools,
//     middleware, and conversation threads.
//   - [ChatClient]: interface for model backends, implemented by the provider
//     packages (openai, azureagents, anthropic, a2a).
//   - [ChatOptions]: the per-request configuration bag, with
//     [MergeChatOptions] defining how agent-level defaults and per-call
//     overrides combine.
//   - [Tool]: callable functions exposed to the model via function calling.
//   - [Content]: sealed interface with concrete types representing message parts.
//   - [Thread]: multi-turn conversation state, service-managed or local.
//   - [ResponseStream]: generic pull-based iterator for streaming responses.
//   - Middleware: three levels (Agent, Chat, Function) for cross-cutting concerns.
//
// # Tools
//
// Use [NewTypedTool] for type-safe tools with automatic JSON Schema generation:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" jsonschema:"description=City name,required"`
//	    Unit     string `json:"unit"     jsonschema:"enum=celsius|fahrenheit"`
//	}
//
//	tool := agentkit.NewTypedTool("get_weather", "Get current weather",
//	    func(ctx context.Context, args WeatherArgs) (any, error) {
//	        return fetchWeather(args.Location, args.Unit)
//	    },
//	)
//
// # Threads
//
// Use threads for multi-turn conversations:
//
//	thread := agent.NewThread()
//	resp1, _ := agent.Run(ctx, msgs1, agentkit.WithThread(thread))
//	resp2, _ := agent.Run(ctx, msgs2, agentkit.WithThread(thread))
//
// A thread is either locally managed (messages persisted through a
// [MessageStore]) or service managed (the backend owns the conversation and
// the thread only carries its conversation ID). The first mode established
// locks out the other.
package agentkit
