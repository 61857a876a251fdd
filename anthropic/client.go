// Copyright (c) Microsoft. All rights reserved.

package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	ak "github.com/microsoft/agentkit/agentkit"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"

	// defaultMaxTokens is applied when the caller leaves MaxTokens unset;
	// the Messages API requires the field.
	defaultMaxTokens = 4096
)

// Client implements [agentkit.ChatClient] using the Anthropic Messages API.
// Use [New] to create one.
type Client struct {
	tp      transport
	model   string
	handler ak.ChatHandler
}

var _ ak.ChatClient = (*Client)(nil)

// Option configures an Anthropic [Client].
type Option func(*clientConfig)

type clientConfig struct {
	baseURL        string
	httpClient     *http.Client
	headers        map[string]string
	model          string
	chatMiddleware []ak.ChatMiddleware
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
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

// WithChatMiddleware adds middleware around every request made by the client.
func WithChatMiddleware(mw ...ak.ChatMiddleware) Option {
	return func(c *clientConfig) { c.chatMiddleware = append(c.chatMiddleware, mw...) }
}

// New creates an Anthropic [Client] with the given API key and options.
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

// Response sends a non-streaming request and returns the complete response.
func (c *Client) Response(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
	return c.handler(ctx, messages, opts)
}

func (c *Client) coreResponse(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
	req := buildMessagesRequest(messages, opts, c.model)
	req.Stream = false

	resp, err := c.tp.do(ctx, "POST", "/messages", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ak.ErrService, err)
	}

	var raw messagesResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ak.ErrInvalidResponse, err)
	}

	result := parseMessagesResponse(&raw)
	result.Raw = &raw
	return result, nil
}

// StreamResponse sends a streaming request and yields incremental updates.
func (c *Client) StreamResponse(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ResponseStream[ak.ChatResponseUpdate], error) {
	req := buildMessagesRequest(messages, opts, c.model)
	req.Stream = true

	resp, err := c.tp.do(ctx, "POST", "/messages", req)
	if err != nil {
		return nil, err
	}

	stream := ak.NewResponseStream(ctx, func(ctx context.Context, ch chan<- ak.ChatResponseUpdate) error {
		defer resp.Body.Close()
		st := newStreamState()
		return readSSE(resp.Body, func(ev sseEvent) error {
			update, ok := st.handleEvent(ev)
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

// transport is an unexported interface for HTTP communication.
// The default implementation uses net/http; tests inject a mock.
type transport interface {
	do(ctx context.Context, method, path string, body any) (*http.Response, error)
}

type httpTransport struct {
	client  *http.Client
	baseURL string
	apiKey  string
	headers map[string]string
}

func newHTTPTransport(apiKey string, cfg *clientConfig) *httpTransport {
	t := &httpTransport{
		client:  cfg.httpClient,
		baseURL: cfg.baseURL,
		apiKey:  apiKey,
		headers: cfg.headers,
	}
	if t.client == nil {
		t.client = http.DefaultClient
	}
	if t.baseURL == "" {
		t.baseURL = defaultBaseURL
	}
	return t
}

func (t *httpTransport) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", t.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, parseErrorResponse(resp)
	}
	return resp, nil
}

// parseErrorResponse reads an error response body and returns a typed error.
func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)

	msg := apiErr.Error.Message
	if msg == "" {
		msg = string(body)
	}

	svcErr := &ak.ServiceError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Code:       apiErr.Error.Type,
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		svcErr.Err = ak.ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		svcErr.Err = ak.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		svcErr.Err = ak.ErrInvalidRequest
	default:
		svcErr.Err = ak.ErrService
	}
	return svcErr
}
