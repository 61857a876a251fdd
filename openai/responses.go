// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	ak "github.com/microsoft/agentkit/agentkit"
)

// ResponsesClient implements [agentkit.ChatClient] using the OpenAI
// Responses API. Unlike [Client], the service retains conversation state
// between calls: each response ID can be supplied as previous_response_id
// on the next request. The client reports that ID as the response's
// conversation ID, so a service-managed [agentkit.Thread] chains turns
// automatically.
type ResponsesClient struct {
	tp      transport
	model   string
	handler ak.ChatHandler
}

var _ ak.ChatClient = (*ResponsesClient)(nil)

// NewResponsesClient creates a Responses API client with the given API key
// and options.
//
//	client := openai.NewResponsesClient(os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
func NewResponsesClient(apiKey string, opts ...Option) *ResponsesClient {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	c := &ResponsesClient{
		tp:    newHTTPTransport(apiKey, cfg),
		model: cfg.model,
	}
	c.handler = ak.ChainChatHandler(c.coreResponse, cfg.chatMiddleware...)
	return c
}

// Response sends a non-streaming request and returns the complete response.
func (c *ResponsesClient) Response(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
	return c.handler(ctx, messages, opts)
}

func (c *ResponsesClient) coreResponse(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
	req := buildResponsesRequest(messages, opts, c.model)
	req.Stream = false

	resp, err := c.tp.do(ctx, "POST", "/responses", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ak.ErrService, err)
	}

	var raw responsesResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ak.ErrInvalidResponse, err)
	}

	result := parseResponsesResponse(&raw)
	result.Raw = &raw
	return result, nil
}

// StreamResponse sends a streaming request and yields incremental updates.
func (c *ResponsesClient) StreamResponse(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ResponseStream[ak.ChatResponseUpdate], error) {
	req := buildResponsesRequest(messages, opts, c.model)
	req.Stream = true

	resp, err := c.tp.do(ctx, "POST", "/responses", req)
	if err != nil {
		return nil, err
	}

	stream := ak.NewResponseStream(ctx, func(ctx context.Context, ch chan<- ak.ChatResponseUpdate) error {
		defer resp.Body.Close()
		return readSSE(resp.Body, func(ev sseEvent) error {
			update, ok := parseResponsesEvent(ev)
			if !ok {
				return nil
			}
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
