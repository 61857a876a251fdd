// Copyright (c) Microsoft. All rights reserved.

// Package a2a connects agentkit to remote agents speaking the A2A
// (agent-to-agent) protocol.
//
// A remote agent publishes an [AgentCard] at the well-known path
// /.well-known/agent-card.json describing its identity, skills and
// transports. [ResolveAgentCard] fetches and validates the card, and
// [NewClient] wraps the remote agent as an [agentkit.ChatClient] using
// the JSON-RPC message/send method. The remote contextId is surfaced as
// the agentkit conversation ID, so service-managed threads chain turns
// on the remote agent's own context.
package a2a
