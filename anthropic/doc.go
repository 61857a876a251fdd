// Copyright (c) Microsoft. All rights reserved.

// Package anthropic provides an [agentkit.ChatClient] implementation backed
// by the Anthropic Messages API.
//
// Create a client and pass it to [agentkit.NewAgent]:
//
//	client := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"),
//	    anthropic.WithModel("claude-sonnet-4-5"),
//	)
//
//	agent := agentkit.NewAgent(client)
//
// The Messages API differs from OpenAI-style APIs in a few ways the client
// papers over: the system prompt is a top-level request field rather than a
// message, max_tokens is mandatory (the client applies a default), and tool
// calls travel as tool_use / tool_result content blocks.
package anthropic
