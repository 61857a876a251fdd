// Copyright (c) Microsoft. All rights reserved.

// Package openai provides [agentkit.ChatClient] implementations for the
// OpenAI Chat Completions and Responses APIs.
//
// Create a client and pass it to [agentkit.NewAgent]:
//
//	client := openai.New(os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//
//	agent := agentkit.NewAgent(client)
//
// For server-side conversation state, use [NewResponsesClient] instead.
// The Responses API chains turns through previous_response_id, which the
// framework surfaces as the thread's conversation ID, so a service-managed
// [agentkit.Thread] works without a local message store.
//
// # Configuration
//
// Use functional options to configure either client:
//
//   - [WithModel]: set the default model
//   - [WithBaseURL]: override the API endpoint (Azure OpenAI, proxies,
//     or any OpenAI-compatible server such as a local runtime)
//   - [WithOrganization]: set the OpenAI organization header
//   - [WithAzureCredential]: authenticate with Azure AD instead of an API key
//   - [WithHTTPClient]: provide a custom http.Client
//   - [WithHeaders]: add custom headers to every request
//
// # Testing
//
// Both clients route all traffic through an unexported transport
// interface. For testing, provide a mock http.Client via [WithHTTPClient]
// with a custom RoundTripper.
package openai
