// Copyright (c) Microsoft. All rights reserved.

package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	ak "github.com/microsoft/agentkit/agentkit"
)

// Client wraps a remote A2A agent as an [agentkit.ChatClient] over the
// JSON-RPC message/send method. Use [NewClient] or [NewClientFromCard].
type Client struct {
	endpoint   string
	httpClient *http.Client
	headers    map[string]string
	card       *AgentCard
	handler    ak.ChatHandler
}

var _ ak.ChatClient = (*Client)(nil)

// ClientOption configures an A2A [Client].
type ClientOption func(*Client)

// WithHTTPClient provides a custom http.Client for requests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithHeaders adds custom headers to every JSON-RPC request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) { c.headers = headers }
}

// WithChatMiddleware adds middleware around every request made by the client.
func WithChatMiddleware(mw ...ak.ChatMiddleware) ClientOption {
	return func(c *Client) { c.handler = ak.ChainChatHandler(c.handler, mw...) }
}

// NewClient creates a client for the remote agent's JSON-RPC endpoint.
func NewClient(endpoint string, opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ak.ErrInitialization)
	}
	c := &Client{endpoint: endpoint, httpClient: http.DefaultClient}
	c.handler = c.coreResponse
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// NewClientFromCard resolves the agent card at baseURL and creates a client
// for the endpoint the card declares.
func NewClientFromCard(ctx context.Context, baseURL string, opts ...ClientOption) (*Client, error) {
	// Resolve with the caller's http.Client when one is supplied.
	probe := &Client{}
	for _, o := range opts {
		o(probe)
	}

	card, err := ResolveAgentCard(ctx, baseURL, probe.httpClient)
	if err != nil {
		return nil, err
	}

	c, err := NewClient(card.Endpoint(), opts...)
	if err != nil {
		return nil, err
	}
	c.card = card
	slog.DebugContext(ctx, "resolved remote agent", "name", card.Name, "endpoint", c.endpoint)
	return c, nil
}

// Card returns the resolved agent card, or nil when the client was created
// directly from an endpoint.
func (c *Client) Card() *AgentCard { return c.card }

// Response sends the conversation to the remote agent and returns its reply.
func (c *Client) Response(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
	return c.handler(ctx, messages, opts)
}

// StreamResponse satisfies [agentkit.ChatClient]. The message/send method is
// request/response, so the stream carries the complete reply as one update.
func (c *Client) StreamResponse(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ResponseStream[ak.ChatResponseUpdate], error) {
	return ak.NewResponseStream(ctx, func(ctx context.Context, ch chan<- ak.ChatResponseUpdate) error {
		resp, err := c.Response(ctx, messages, opts)
		if err != nil {
			return err
		}
		for _, m := range resp.Messages {
			update := ak.ChatResponseUpdate{
				Contents:       m.Contents,
				Role:           m.Role,
				ResponseID:     resp.ResponseID,
				ConversationID: resp.ConversationID,
			}
			select {
			case ch <- update:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}), nil
}

func (c *Client) coreResponse(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
	msg := buildOutgoingMessage(messages, opts)
	if msg == nil {
		return nil, fmt.Errorf("%w: no sendable message content", ak.ErrInvalidRequest)
	}

	result, err := c.call(ctx, "message/send", sendParams{Message: *msg})
	if err != nil {
		return nil, err
	}
	return parseSendResult(result)
}

// wire types

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type sendParams struct {
	Message wireMessage `json:"message"`
}

type wireMessage struct {
	Kind      string     `json:"kind"`
	Role      string     `json:"role"`
	Parts     []wirePart `json:"parts"`
	MessageID string     `json:"messageId"`
	ContextID string     `json:"contextId,omitempty"`
	TaskID    string     `json:"taskId,omitempty"`
}

type wirePart struct {
	Kind string          `json:"kind"`
	Text string          `json:"text,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// sendResult is either a terminal message or a task, discriminated by kind.
type sendResult struct {
	Kind string `json:"kind"`

	// message
	Role      string     `json:"role,omitempty"`
	Parts     []wirePart `json:"parts,omitempty"`
	MessageID string     `json:"messageId,omitempty"`

	// task
	ID        string         `json:"id,omitempty"`
	Status    *taskStatus    `json:"status,omitempty"`
	Artifacts []taskArtifact `json:"artifacts,omitempty"`

	ContextID string `json:"contextId,omitempty"`
}

type taskStatus struct {
	State   string       `json:"state"`
	Message *wireMessage `json:"message,omitempty"`
}

type taskArtifact struct {
	ArtifactID string     `json:"artifactId"`
	Name       string     `json:"name,omitempty"`
	Parts      []wirePart `json:"parts"`
}

// buildOutgoingMessage flattens the latest user turn into one A2A message.
// The remote agent keeps its own history keyed by contextId, so only new
// input travels on the wire.
func buildOutgoingMessage(messages []ak.Message, opts *ak.ChatOptions) *wireMessage {
	var parts []wirePart
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != ak.RoleUser {
			break
		}
		var turn []wirePart
		for _, c := range messages[i].Contents {
			if tc, ok := c.(*ak.TextContent); ok {
				turn = append(turn, wirePart{Kind: "text", Text: tc.Text})
			}
		}
		parts = append(turn, parts...)
	}
	if len(parts) == 0 {
		return nil
	}

	msg := &wireMessage{
		Kind:      "message",
		Role:      "user",
		Parts:     parts,
		MessageID: uuid.NewString(),
	}
	if opts != nil {
		msg.ContextID = opts.ConversationID
	}
	return msg
}

func parseSendResult(raw json.RawMessage) (*ak.ChatResponse, error) {
	var result sendResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: parse message/send result: %v", ak.ErrInvalidResponse, err)
	}

	resp := &ak.ChatResponse{
		ConversationID: result.ContextID,
		FinishReason:   ak.FinishReasonStop,
	}

	switch result.Kind {
	case "message":
		resp.ResponseID = result.MessageID
		if contents := partsToContents(result.Parts); len(contents) > 0 {
			resp.Messages = []ak.Message{{Role: ak.RoleAssistant, Contents: contents}}
		}
	case "task":
		resp.ResponseID = result.ID
		var contents ak.Contents
		for _, a := range result.Artifacts {
			contents = append(contents, partsToContents(a.Parts)...)
		}
		if len(contents) == 0 && result.Status != nil && result.Status.Message != nil {
			contents = partsToContents(result.Status.Message.Parts)
		}
		if result.Status != nil && result.Status.State == "failed" {
			return nil, fmt.Errorf("%w: remote task failed", ak.ErrService)
		}
		if len(contents) > 0 {
			resp.Messages = []ak.Message{{Role: ak.RoleAssistant, Contents: contents}}
		}
	default:
		return nil, fmt.Errorf("%w: unexpected result kind %q", ak.ErrInvalidResponse, result.Kind)
	}
	return resp, nil
}

func partsToContents(parts []wirePart) ak.Contents {
	var contents ak.Contents
	for _, p := range parts {
		if p.Kind == "text" && p.Text != "" {
			contents = append(contents, &ak.TextContent{Text: p.Text})
		}
	}
	return contents
}

// call issues one JSON-RPC request and returns the raw result.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &ak.ServiceError{
			StatusCode: resp.StatusCode,
			Message:    method,
			Err:        ak.ErrService,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ak.ErrService, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("%w: parse JSON-RPC response: %v", ak.ErrInvalidResponse, err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("%w: remote agent error %d: %s",
			ak.ErrService, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}
