// Copyright (c) Microsoft. All rights reserved.

// Command a2a chats with a remote agent over the A2A protocol.
//
// The remote agent is discovered through its published agent card and
// wrapped as a chat client; turns chain on the remote contextId via a
// service-managed thread.
//
// Usage:
//
//	export A2A_AGENT_URL=http://localhost:9999
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

	"github.com/joho/godotenv"
	"github.com/microsoft/agentkit/a2a"
	ak "github.com/microsoft/agentkit/agentkit"
)

func main() {
	_ = godotenv.Load()

	if os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	baseURL := os.Getenv("A2A_AGENT_URL")
	if baseURL == "" {
		log.Fatal("Set A2A_AGENT_URL")
	}

	ctx := context.Background()

	client, err := a2a.NewClientFromCard(ctx, baseURL)
	if err != nil {
		log.Fatalf("Failed to resolve remote agent: %v", err)
	}

	card := client.Card()
	fmt.Printf("Connected to %s (%s)\n", card.Name, card.Description)
	for _, skill := range card.Skills {
		fmt.Printf("  skill: %s — %s\n", skill.Name, skill.Description)
	}
	fmt.Println()

	agent := ak.NewAgent(client, ak.WithName(card.Name))
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
		fmt.Printf("%s: %s\n\n", card.Name, resp.Text())
	}
}
