// Copyright (c) Microsoft. All rights reserved.

package azureagents

import "encoding/json"

// AgentDefinition is a server-side agent stored in an Azure AI Foundry
// project. The service is the source of truth for every field.
type AgentDefinition struct {
	ID           string            `json:"id,omitempty"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Model        string            `json:"model"`
	Instructions string            `json:"instructions,omitempty"`
	Temperature  *float64          `json:"temperature,omitempty"`
	TopP         *float64          `json:"top_p,omitempty"`
	Tools        []ToolDefinition  `json:"tools,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Version      string            `json:"version,omitempty"`
	CreatedAt    int64             `json:"created_at,omitempty"`
}

// ToolDefinition declares a tool on an agent definition. Function tools carry
// a schema; hosted tools (code interpreter, file search) only a type.
type ToolDefinition struct {
	Type     string        `json:"type"`
	Function *FunctionSpec `json:"function,omitempty"`
}

// FunctionSpec describes a function tool's callable surface.
type FunctionSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// AgentThread is a service-managed conversation thread.
type AgentThread struct {
	ID        string            `json:"id"`
	CreatedAt int64             `json:"created_at,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// agentList is the wire shape for list responses.
type agentList struct {
	Data    []AgentDefinition `json:"data"`
	HasMore bool              `json:"has_more"`
	LastID  string            `json:"last_id,omitempty"`
}

// deleteResult is the wire shape for delete responses.
type deleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
