// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	ak "github.com/microsoft/agentkit/agentkit"
)

// Client implements [agentkit.ChatClient] using the OpenAI Chat
// Completions API. Use [New] to create one.
type Client struct {
	tp      transport
	model   string
	handler ak.ChatHandler
}

// Verify interface compliance at compile time.
var _ ak.ChatClient = (*Client)(nil)

// New creates an OpenAI [Client] with the given API key and options.
//
//	client := openai.New(os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
func New(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	c := &Client{
		tp:    newHTTPTransport(apiKey, cfg),
		model: cfg.model,
	}
	c.handler = ak.ChainChatHandler(c.coreResponse, cfg.chatMiddleware...)
	return c
}

// Response sends a non-streaming chat completion request and returns the
// complete response.
func (c *Client) Response(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
	return c.handler(ctx, messages, opts)
}

// coreResponse is the base implementation called by the middleware chain.
func (c *Client) coreResponse(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
	req := buildChatRequest(messages, opts, c.model)
	req.Stream = false

	resp, err := c.tp.do(ctx, "POST", "/chat/completions", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ak.ErrService, err)
	}

	var raw chatCompletionResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ak.ErrInvalidResponse, err)
	}

	result := parseChatResponse(&raw)
	result.Raw = &raw
	return result, nil
}

// StreamResponse sends a streaming chat completion request and returns
// a [agentkit.ResponseStream] that yields incremental updates via
// server-sent events.
func (c *Client) StreamResponse(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ResponseStream[ak.ChatResponseUpdate], error) {
	req := buildChatRequest(messages, opts, c.model)
	req.Stream = true
	req.StreamOptions = &streamOptions{IncludeUsage: true}

	resp, err := c.tp.do(ctx, "POST", "/chat/completions", req)
	if err != nil {
		return nil, err
	}

	stream := ak.NewResponseStream(ctx, func(ctx context.Context, ch chan<- ak.ChatResponseUpdate) error {
		defer resp.Body.Close()
		return readSSE(resp.Body, func(ev sseEvent) error {
			var chunk chatCompletionChunk
			if err := json.Unmarshal([]byte(ev.data), &chunk); err != nil {
				// Skip malformed chunks rather than aborting.
				return nil
			}
			update := parseChunk(&chunk)
			update.Raw = &chunk
			select {
			case ch <- *update:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	return stream, nil
}
