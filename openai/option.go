// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	ak "github.com/microsoft/agentkit/agentkit"
)

// clientConfig holds resolved configuration shared by both client kinds.
type clientConfig struct {
	baseURL         string
	organization    string
	httpClient      *http.Client
	headers         map[string]string
	model           string
	azureCredential azcore.TokenCredential
	chatMiddleware  []ak.ChatMiddleware
}

// Option configures an OpenAI [Client] or [ResponsesClient].
type Option func(*clientConfig)

// WithBaseURL overrides the API base URL (e.g., for Azure OpenAI or proxies).
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithOrganization sets the OpenAI organization header.
func WithOrganization(org string) Option {
	return func(c *clientConfig) { c.organization = org }
}

// WithHTTPClient provides a custom http.Client for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *clientConfig) { c.headers = headers }
}

// WithModel sets the default model for requests.
func WithModel(model string) Option {
	return func(c *clientConfig) { c.model = model }
}

// WithAzureCredential enables Azure AD token authentication using the provided
// credential. When set, the client obtains and refreshes tokens automatically
// instead of sending an API key.
func WithAzureCredential(cred azcore.TokenCredential) Option {
	return func(c *clientConfig) { c.azureCredential = cred }
}

// WithChatMiddleware adds middleware around every request made by the client.
// Middleware is applied in the order provided (first = outermost).
func WithChatMiddleware(mw ...ak.ChatMiddleware) Option {
	return func(c *clientConfig) { c.chatMiddleware = append(c.chatMiddleware, mw...) }
}
