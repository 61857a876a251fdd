// Copyright (c) Microsoft. All rights reserved.

// Package azureagents connects the framework to the Azure AI Foundry Agents
// service, where agent definitions (model, instructions, tools) live
// server-side and conversation threads are service-managed.
//
// [Client] is a thin REST client for managing agent definitions and threads:
//
//	cred, _ := azidentity.NewDefaultAzureCredential(nil)
//	client, _ := azureagents.NewClient(endpoint, cred)
//
//	agent, err := client.NewAgent(ctx, "support-bot")
//
// [Client.NewAgent] resolves a named server-side definition and returns a
// ready [agentkit.Agent]. Under the hood the agent's chat client is an
// [AgentChatClient]: a decorator that injects the agent reference (and the
// conversation reference for service-managed threads) into every request and
// reconciles per-request options against the definition.
//
// # Override policy
//
// Because the service owns the definition, fields like instructions, tools,
// and sampling parameters are server-authoritative by default
// ([OverrideServerManaged]): a per-request value for one of them is rejected
// with [ErrOptionNotOverridable] instead of being silently dropped. Use
// [WithOverridePolicy] with [OverrideAllowClient] to let per-request values
// through; they then take precedence over unset definition fields.
package azureagents
