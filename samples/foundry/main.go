// Copyright (c) Microsoft. All rights reserved.

// Command foundry runs a server-managed Azure AI Foundry agent.
//
// The agent's instructions, tools and sampling parameters live in the
// Foundry project; this program resolves the agent by name, attaches a
// local executor for its declared function tool, and chats on a
// service-managed thread.
//
// Usage:
//
//	az login
//	export AZURE_FOUNDRY_PROJECT_ENDPOINT=https://<resource>.services.ai.azure.com/api/projects/<project>
//	export AZURE_FOUNDRY_AGENT_NAME=support-bot
//	go run .
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/joho/godotenv"
	ak "github.com/microsoft/agentkit/agentkit"
	"github.com/microsoft/agentkit/azureagents"
)

func main() {
	_ = godotenv.Load()

	if os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	endpoint := os.Getenv("AZURE_FOUNDRY_PROJECT_ENDPOINT")
	agentName := os.Getenv("AZURE_FOUNDRY_AGENT_NAME")
	if endpoint == "" || agentName == "" {
		log.Fatal("Set AZURE_FOUNDRY_PROJECT_ENDPOINT and AZURE_FOUNDRY_AGENT_NAME")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		log.Fatalf("Failed to create Azure credential: %v", err)
	}

	client, err := azureagents.NewClient(endpoint, cred)
	if err != nil {
		log.Fatalf("Failed to create Foundry client: %v", err)
	}

	ctx := context.Background()

	// Local executor for the function tool the server-side agent declares.
	// The definition stays server-authoritative; only execution is local.
	lookupTicket := ak.NewTypedTool("lookup_ticket",
		"Look up a support ticket by ID.",
		func(ctx context.Context, args struct {
			TicketID string `json:"ticket_id" jsonschema:"description=Support ticket ID,required"`
		}) (any, error) {
			return map[string]any{
				"ticket_id": args.TicketID,
				"status":    "open",
				"assignee":  "dana",
			}, nil
		},
	)

	agent, err := client.NewAgent(ctx, agentName,
		azureagents.WithFactoryTools(lookupTicket),
	)
	if err != nil {
		log.Fatalf("Failed to resolve agent %q: %v", agentName, err)
	}

	thread := agent.NewThread()

	fmt.Printf("Chatting with %s (type 'quit' to exit)\n\n", agentName)

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
