// Copyright (c) Microsoft. All rights reserved.

package azureagents

import (
	"context"

	ak "github.com/microsoft/agentkit/agentkit"
	"github.com/microsoft/agentkit/openai"
)

// AgentFactoryOption configures agents produced by [Client.NewAgent] and
// [Client.CreateAgent].
type AgentFactoryOption func(*factoryConfig)

type factoryConfig struct {
	policy      OverridePolicy
	tools       []ak.Tool
	agentOpts   []ak.AgentOption
	innerClient ak.ChatClient
}

// WithFactoryOverridePolicy sets the [OverridePolicy] for the produced
// agent's chat client.
func WithFactoryOverridePolicy(p OverridePolicy) AgentFactoryOption {
	return func(c *factoryConfig) { c.policy = p }
}

// WithFactoryTools registers local tools on the produced agent. The tools
// are validated against the definition's declarations before the agent is
// returned.
func WithFactoryTools(tools ...ak.Tool) AgentFactoryOption {
	return func(c *factoryConfig) { c.tools = append(c.tools, tools...) }
}

// WithFactoryAgentOptions passes additional [agentkit.AgentOption] values
// through to the produced agent.
func WithFactoryAgentOptions(opts ...ak.AgentOption) AgentFactoryOption {
	return func(c *factoryConfig) { c.agentOpts = append(c.agentOpts, opts...) }
}

// WithFactoryChatClient overrides the inference client the produced agent
// uses. Without it, the factory builds an OpenAI-compatible client against
// the project endpoint using the [Client]'s credential.
func WithFactoryChatClient(inner ak.ChatClient) AgentFactoryOption {
	return func(c *factoryConfig) { c.innerClient = inner }
}

// NewAgent resolves the named server-side definition, validates local
// configuration against it, and returns a ready [agentkit.Agent].
func (c *Client) NewAgent(ctx context.Context, name string, opts ...AgentFactoryOption) (*ak.Agent, error) {
	def, err := c.GetAgentDefinitionByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.wrapDefinition(def, opts)
}

// CreateAgent creates the definition server-side and returns an
// [agentkit.Agent] wrapping it.
func (c *Client) CreateAgent(ctx context.Context, def *AgentDefinition, opts ...AgentFactoryOption) (*ak.Agent, error) {
	created, err := c.CreateAgentDefinition(ctx, def)
	if err != nil {
		return nil, err
	}
	return c.wrapDefinition(created, opts)
}

func (c *Client) wrapDefinition(def *AgentDefinition, opts []AgentFactoryOption) (*ak.Agent, error) {
	cfg := &factoryConfig{}
	for _, o := range opts {
		o(cfg)
	}

	if err := validateToolConsistency(def, cfg.tools); err != nil {
		return nil, err
	}

	inner := cfg.innerClient
	if inner == nil {
		inner = openai.NewResponsesClient("",
			openai.WithBaseURL(c.endpoint+"/openai/v1"),
			openai.WithAzureCredential(c.credential),
			openai.WithModel(def.Model),
		)
	}

	chatClient, err := NewAgentChatClient(inner, def, WithOverridePolicy(cfg.policy))
	if err != nil {
		return nil, err
	}

	agentOpts := []ak.AgentOption{
		ak.WithName(def.Name),
		ak.WithDescription(def.Description),
	}
	if len(cfg.tools) > 0 {
		agentOpts = append(agentOpts, ak.WithTools(cfg.tools...))
	}
	agentOpts = append(agentOpts, cfg.agentOpts...)

	return ak.NewAgent(chatClient, agentOpts...), nil
}
