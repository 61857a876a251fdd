// Copyright (c) Microsoft. All rights reserved.

// Package mcptool exposes tools hosted on MCP (Model Context Protocol)
// servers as [agentkit.Tool] values, so server-side tools participate in
// the function-invocation loop like locally registered ones.
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ajitpratap0/mcp-sdk-go/pkg/client"
	"github.com/ajitpratap0/mcp-sdk-go/pkg/protocol"
	"github.com/ajitpratap0/mcp-sdk-go/pkg/transport"

	ak "github.com/microsoft/agentkit/agentkit"
)

// toolCaller is the slice of the MCP client surface the session needs.
// *client.ClientConfig satisfies it; tests supply a fake.
type toolCaller interface {
	InitializeAndStart(ctx context.Context) error
	ListTools(ctx context.Context, category string, pagination *protocol.PaginationParams) ([]protocol.Tool, *protocol.PaginationResult, error)
	CallTool(ctx context.Context, name string, input any, toolContext any) (*protocol.CallToolResult, error)
	Close() error
}

// Session is a live connection to an MCP server with its tools resolved.
// Close the session when the tools are no longer needed.
type Session struct {
	caller toolCaller
	tools  []ak.Tool
}

// SessionOption configures a [Session] before it connects.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	clientName    string
	category      string
	clientOptions []client.ClientOption
	caller        toolCaller
}

// WithClientName sets the client name announced during MCP initialization.
func WithClientName(name string) SessionOption {
	return func(c *sessionConfig) { c.clientName = name }
}

// WithCategory restricts tool listing to one server-side category.
func WithCategory(category string) SessionOption {
	return func(c *sessionConfig) { c.category = category }
}

// WithClientOptions passes additional options to the underlying MCP client.
func WithClientOptions(opts ...client.ClientOption) SessionOption {
	return func(c *sessionConfig) { c.clientOptions = append(c.clientOptions, opts...) }
}

// withCaller injects a fake MCP client. Test hook.
func withCaller(caller toolCaller) SessionOption {
	return func(c *sessionConfig) { c.caller = caller }
}

// Connect dials an MCP server over streamable HTTP, initializes the
// session and lists the server's tools.
func Connect(ctx context.Context, endpoint string, opts ...SessionOption) (*Session, error) {
	cfg := &sessionConfig{clientName: "agentkit"}
	for _, o := range opts {
		o(cfg)
	}

	caller := cfg.caller
	if caller == nil {
		if endpoint == "" {
			return nil, fmt.Errorf("%w: MCP endpoint is required", ak.ErrInitialization)
		}
		tcfg := transport.DefaultTransportConfig(transport.TransportTypeStreamableHTTP)
		tcfg.Endpoint = endpoint
		t, err := transport.NewTransport(tcfg)
		if err != nil {
			return nil, fmt.Errorf("%w: create MCP transport: %v", ak.ErrInitialization, err)
		}
		clientOpts := append([]client.ClientOption{client.WithName(cfg.clientName)}, cfg.clientOptions...)
		caller = client.New(t, clientOpts...)
	}

	if err := caller.InitializeAndStart(ctx); err != nil {
		return nil, fmt.Errorf("%w: initialize MCP session: %v", ak.ErrInitialization, err)
	}

	listed, err := listAllTools(ctx, caller, cfg.category)
	if err != nil {
		_ = caller.Close()
		return nil, fmt.Errorf("%w: list MCP tools: %v", ak.ErrInitialization, err)
	}

	s := &Session{caller: caller}
	for _, t := range listed {
		s.tools = append(s.tools, newServerTool(caller, t))
	}
	return s, nil
}

// listAllTools walks the paginated tools/list endpoint until the server
// reports no further pages.
func listAllTools(ctx context.Context, caller toolCaller, category string) ([]protocol.Tool, error) {
	var all []protocol.Tool
	var params *protocol.PaginationParams
	for {
		tools, page, err := caller.ListTools(ctx, category, params)
		if err != nil {
			return nil, err
		}
		all = append(all, tools...)
		if page == nil || !page.HasMore || page.NextCursor == "" {
			return all, nil
		}
		params = &protocol.PaginationParams{Cursor: page.NextCursor}
	}
}

// Tools returns every tool the server advertises.
func (s *Session) Tools() []ak.Tool { return s.tools }

// Tool returns the named tool, or nil when the server does not offer it.
func (s *Session) Tool(name string) ak.Tool {
	for _, t := range s.tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// Close shuts down the MCP session.
func (s *Session) Close() error { return s.caller.Close() }

// ServerTool adapts one MCP server tool to the [agentkit.Tool] interface.
type ServerTool struct {
	caller      toolCaller
	name        string
	description string
	schema      json.RawMessage
}

var _ ak.Tool = (*ServerTool)(nil)

func newServerTool(caller toolCaller, t protocol.Tool) *ServerTool {
	schema := t.InputSchema
	if len(schema) == 0 {
		schema = json.RawMessage(`{"type":"object"}`)
	}
	return &ServerTool{
		caller:      caller,
		name:        t.Name,
		description: t.Description,
		schema:      schema,
	}
}

func (t *ServerTool) Name() string                { return t.name }
func (t *ServerTool) Description() string         { return t.description }
func (t *ServerTool) Parameters() json.RawMessage { return t.schema }
func (t *ServerTool) DeclarationOnly() bool       { return false }
func (t *ServerTool) Approval() ak.ApprovalMode   { return ak.ApprovalNever }

// Invoke forwards the call to the MCP server. Results arrive as raw JSON;
// plain JSON strings are unwrapped so tool results read naturally in chat.
func (t *ServerTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	input := args
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	result, err := t.caller.CallTool(ctx, t.name, input, nil)
	if err != nil {
		return nil, &ak.ToolError{
			ToolName: t.name,
			Message:  "MCP call failed: " + err.Error(),
			Err:      ak.ErrToolExecution,
		}
	}
	if result.Error != "" {
		return nil, &ak.ToolError{
			ToolName: t.name,
			Message:  result.Error,
			Err:      ak.ErrToolExecution,
		}
	}

	var s string
	if err := json.Unmarshal(result.Result, &s); err == nil {
		return s, nil
	}
	return result.Result, nil
}
