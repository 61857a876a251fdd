// Copyright (c) Microsoft. All rights reserved.

// Command chat demonstrates a multi-turn conversational agent with tool use.
//
// It works with both direct OpenAI and Azure OpenAI endpoints.
//
// Usage with OpenAI:
//
//	export OPENAI_API_KEY=sk-...
//	go run .
//
// Usage with Azure OpenAI:
//
//	export AZURE_OPENAI_ENDPOINT=https://<resource>.openai.azure.com/openai/deployments/<deployment>
//	export AZURE_OPENAI_KEY=<your-key>         # omit to use Azure AD (az login etc.)
//	export AZURE_OPENAI_MODEL=gpt-4o           # optional, defaults to gpt-4o
//	go run .
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/joho/godotenv"
	ak "github.com/microsoft/agentkit/agentkit"
	"github.com/microsoft/agentkit/openai"
)

func main() {
	// Load .env file if present (ignored if missing).
	_ = godotenv.Load()

	if os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	client := newChatClient()

	weatherTool := ak.NewTypedTool("get_weather",
		"Get the current weather for a location.",
		func(ctx context.Context, args struct {
			Location string `json:"location" jsonschema:"description=City name or location,required"`
			Unit     string `json:"unit"     jsonschema:"description=Temperature unit,enum=celsius|fahrenheit"`
		}) (any, error) {
			// Simulated weather API
			unit := args.Unit
			if unit == "" {
				unit = "fahrenheit"
			}
			temp := 72
			if unit == "celsius" {
				temp = 22
			}
			return map[string]any{
				"location":    args.Location,
				"temperature": temp,
				"unit":        unit,
				"condition":   "sunny",
			}, nil
		},
	)

	timeTool := ak.NewTool("get_time",
		"Get the current time.",
		json.RawMessage(`{"type":"object","properties":{}}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return "2025-01-15T10:30:00Z", nil
		},
	)

	agent := ak.NewAgent(client,
		ak.WithName("assistant"),
		ak.WithInstructions("You are a helpful assistant. When asked about the weather, use the get_weather tool. When asked about the time, use the get_time tool. Keep responses concise."),
		ak.WithTools(weatherTool, timeTool),
		ak.WithAgentMiddleware(ak.LoggingMiddleware(slog.Default())),
	)

	// One thread for the whole conversation.
	thread := agent.NewThread()

	fmt.Println("Chat with the assistant (type 'quit' to exit, 'stream' prefix for streaming)")
	fmt.Println()

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

		ctx := context.Background()

		if strings.HasPrefix(input, "stream ") {
			input = strings.TrimPrefix(input, "stream ")
			stream, err := agent.RunStream(ctx,
				[]ak.Message{ak.NewUserMessage(input)},
				ak.WithThread(thread),
			)
			if err != nil {
				log.Printf("Error: %v", err)
				continue
			}

			fmt.Print("Assistant: ")
			for {
				update, ok, err := stream.Next(ctx)
				if err != nil {
					log.Printf("\nStream error: %v", err)
					break
				}
				if !ok {
					break
				}
				fmt.Print(update.Text())
			}
			fmt.Println()
			stream.Close()
		} else {
			resp, err := agent.Run(ctx,
				[]ak.Message{ak.NewUserMessage(input)},
				ak.WithThread(thread),
			)
			if err != nil {
				log.Printf("Error: %v", err)
				continue
			}

			fmt.Printf("Assistant: %s\n", resp.Text())
			if resp.Usage.TotalTokens > 0 {
				fmt.Printf("  [tokens: %d in, %d out]\n",
					resp.Usage.InputTokens, resp.Usage.OutputTokens)
			}
		}
		fmt.Println()
	}
}

// newChatClient creates an OpenAI-compatible client, choosing between Azure
// OpenAI and direct OpenAI based on which environment variables are set.
func newChatClient() *openai.Client {
	if endpoint := os.Getenv("AZURE_OPENAI_ENDPOINT"); endpoint != "" {
		key := os.Getenv("AZURE_OPENAI_KEY")
		model := os.Getenv("AZURE_OPENAI_MODEL")
		if model == "" {
			model = "gpt-4o"
		}

		fmt.Printf("Using Azure OpenAI: %s\n", endpoint)

		if key == "" {
			// No key provided, fall back to Azure AD.
			cred, err := azidentity.NewDefaultAzureCredential(nil)
			if err != nil {
				log.Fatalf("Failed to create Azure credential: %v", err)
			}
			fmt.Println("Using Azure AD authentication (DefaultAzureCredential)")
			return openai.New("",
				openai.WithBaseURL(endpoint),
				openai.WithModel(model),
				openai.WithAzureCredential(cred),
			)
		}

		return openai.New(key,
			openai.WithBaseURL(endpoint),
			openai.WithModel(model),
			openai.WithHeaders(map[string]string{
				"api-key": key, // Azure uses api-key header instead of Bearer token
			}),
		)
	}

	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		log.Fatal("Set OPENAI_API_KEY or AZURE_OPENAI_ENDPOINT")
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o"
	}
	return openai.New(key, openai.WithModel(model))
}
