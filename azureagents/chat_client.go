// Copyright (c) Microsoft. All rights reserved.

package azureagents

import (
	"context"
	"fmt"
	"log/slog"

	ak "github.com/microsoft/agentkit/agentkit"
)

// AgentChatClient decorates an [agentkit.ChatClient] with a server-side
// [AgentDefinition]. Every request is reconciled against the definition
// under the configured [OverridePolicy] before being forwarded, and carries
// the agent reference (plus the conversation reference when the thread is
// service-managed).
type AgentChatClient struct {
	inner  ak.ChatClient
	def    *AgentDefinition
	policy OverridePolicy
}

var _ ak.ChatClient = (*AgentChatClient)(nil)

// AgentChatClientOption configures an [AgentChatClient].
type AgentChatClientOption func(*AgentChatClient)

// WithOverridePolicy sets how per-request options are reconciled against the
// definition. The default is [OverrideServerManaged].
func WithOverridePolicy(p OverridePolicy) AgentChatClientOption {
	return func(c *AgentChatClient) { c.policy = p }
}

// NewAgentChatClient wraps inner with def. Local tools already present in
// the inner pipeline are not visible here; tool-consistency validation
// happens per request against the reconciled options.
func NewAgentChatClient(inner ak.ChatClient, def *AgentDefinition, opts ...AgentChatClientOption) (*AgentChatClient, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: inner chat client is required", ak.ErrInitialization)
	}
	if def == nil || def.Name == "" {
		return nil, fmt.Errorf("%w: agent definition with a name is required", ak.ErrInitialization)
	}
	c := &AgentChatClient{
		inner: inner,
		def:   def,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Definition returns the wrapped server-side definition.
func (c *AgentChatClient) Definition() *AgentDefinition { return c.def }

// Response reconciles opts against the definition and forwards the request.
func (c *AgentChatClient) Response(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
	forwarded, err := c.prepare(ctx, opts)
	if err != nil {
		return nil, err
	}
	return c.inner.Response(ctx, messages, forwarded)
}

// StreamResponse reconciles opts against the definition and forwards the
// streaming request.
func (c *AgentChatClient) StreamResponse(ctx context.Context, messages []ak.Message, opts *ak.ChatOptions) (*ak.ResponseStream[ak.ChatResponseUpdate], error) {
	forwarded, err := c.prepare(ctx, opts)
	if err != nil {
		return nil, err
	}
	return c.inner.StreamResponse(ctx, messages, forwarded)
}

func (c *AgentChatClient) prepare(ctx context.Context, opts *ak.ChatOptions) (*ak.ChatOptions, error) {
	if opts != nil && c.policy == OverrideAllowClient {
		if err := validateToolConsistency(c.def, opts.Tools); err != nil {
			return nil, err
		}
	}

	forwarded, err := reconcileOptions(c.def, opts, c.policy)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "azure agent request",
		"agent", c.def.Name,
		"model", forwarded.ModelID,
		"conversation_id", forwarded.ConversationID,
	)
	return forwarded, nil
}
