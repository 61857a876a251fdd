// Copyright (c) Microsoft. All rights reserved.

package azureagents

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	ak "github.com/microsoft/agentkit/agentkit"
)

// OverridePolicy controls how per-request [agentkit.ChatOptions] interact
// with a server-side [AgentDefinition].
type OverridePolicy int

const (
	// OverrideServerManaged (default) treats instructions, tools, model,
	// sampling parameters, and response format as server-authoritative.
	// A per-request value for any of them is rejected with
	// [ErrOptionNotOverridable] so the caller's intent is never silently
	// dropped.
	OverrideServerManaged OverridePolicy = iota

	// OverrideAllowClient forwards per-request values. They take precedence
	// over the definition; definition fields fill in anything the request
	// leaves unset.
	OverrideAllowClient
)

// Sentinel errors for option reconciliation.
var (
	// ErrOptionNotOverridable is returned when a per-request option targets a
	// server-authoritative field under [OverrideServerManaged].
	ErrOptionNotOverridable = fmt.Errorf("%w: option is server-managed and not overridable", ak.ErrInvalidRequest)

	// ErrDefinitionMismatch is returned when local configuration conflicts
	// with the server-side definition (tool schema shadowing, model mismatch).
	ErrDefinitionMismatch = fmt.Errorf("%w: conflicts with server-side agent definition", ak.ErrInvalidRequest)
)

// reconcileOptions merges per-request options with the definition under the
// given policy and returns the options to forward to the service.
//
// The returned options always carry the agent reference in metadata; the
// conversation ID (service-managed thread) passes through untouched.
func reconcileOptions(def *AgentDefinition, opts *ak.ChatOptions, policy OverridePolicy) (*ak.ChatOptions, error) {
	if policy == OverrideServerManaged {
		if err := checkServerManaged(def, opts); err != nil {
			return nil, err
		}
		return serverManagedOptions(def, opts), nil
	}
	return clientMergedOptions(def, opts), nil
}

// checkServerManaged rejects per-request values for server-authoritative
// fields. Each violation names the offending field.
func checkServerManaged(def *AgentDefinition, opts *ak.ChatOptions) error {
	if opts == nil {
		return nil
	}
	var errs []error
	if opts.Instructions != "" {
		errs = append(errs, fmt.Errorf("%w: instructions", ErrOptionNotOverridable))
	}
	// Local tools are allowed only as executors for server-declared functions
	// (same name, same schema). They are stripped from the forwarded request;
	// anything beyond that would change the agent's tool surface.
	declared := declaredFunctions(def)
	for _, t := range opts.Tools {
		fs, ok := declared[t.Name()]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: tool %q is not declared on the agent", ErrOptionNotOverridable, t.Name()))
			continue
		}
		if !schemaEqual(fs.Parameters, t.Parameters()) {
			errs = append(errs, fmt.Errorf("%w: local tool %q shadows server tool with a different schema", ErrDefinitionMismatch, t.Name()))
		}
	}
	if opts.Temperature != nil {
		errs = append(errs, fmt.Errorf("%w: temperature", ErrOptionNotOverridable))
	}
	if opts.TopP != nil {
		errs = append(errs, fmt.Errorf("%w: topP", ErrOptionNotOverridable))
	}
	if opts.ResponseFormat != nil {
		errs = append(errs, fmt.Errorf("%w: responseFormat", ErrOptionNotOverridable))
	}
	if opts.ModelID != "" && opts.ModelID != def.Model {
		errs = append(errs, fmt.Errorf("%w: model %q (definition uses %q)", ErrOptionNotOverridable, opts.ModelID, def.Model))
	}
	return errors.Join(errs...)
}

// serverManagedOptions builds the forwarded options from the definition,
// keeping only the per-request fields the service does not own.
func serverManagedOptions(def *AgentDefinition, opts *ak.ChatOptions) *ak.ChatOptions {
	out := opts.Clone()
	out.ModelID = def.Model
	out.Instructions = ""
	out.Tools = nil
	out.Temperature = nil
	out.TopP = nil
	out.ResponseFormat = nil
	injectAgentReference(out, def)
	return out
}

// clientMergedOptions overlays per-request options onto the definition's
// fields with request values winning.
func clientMergedOptions(def *AgentDefinition, opts *ak.ChatOptions) *ak.ChatOptions {
	base := &ak.ChatOptions{
		ModelID:      def.Model,
		Instructions: def.Instructions,
		Temperature:  def.Temperature,
		TopP:         def.TopP,
	}
	out := ak.MergeChatOptions(base, opts)
	injectAgentReference(out, def)
	return out
}

func injectAgentReference(opts *ak.ChatOptions, def *AgentDefinition) {
	// Clone and Merge may alias the caller's metadata map; copy before writing.
	meta := make(map[string]string, len(opts.Metadata)+2)
	for k, v := range opts.Metadata {
		meta[k] = v
	}
	if def.ID != "" {
		meta["azure_agent_id"] = def.ID
	}
	meta["azure_agent_name"] = def.Name
	opts.Metadata = meta
}

// declaredFunctions indexes the definition's function tools by name.
func declaredFunctions(def *AgentDefinition) map[string]*FunctionSpec {
	declared := make(map[string]*FunctionSpec, len(def.Tools))
	for i := range def.Tools {
		if fs := def.Tools[i].Function; fs != nil {
			declared[fs.Name] = fs
		}
	}
	return declared
}

// validateToolConsistency checks local tools against the definition's tool
// declarations. A local tool may repeat a server-declared function name only
// with an identical schema; anything else shadows the server tool and is
// rejected with [ErrDefinitionMismatch]. Tools the definition does not
// declare are fine here: under [OverrideAllowClient] they extend the agent.
func validateToolConsistency(def *AgentDefinition, tools []ak.Tool) error {
	if len(tools) == 0 {
		return nil
	}
	declared := declaredFunctions(def)

	var errs []error
	for _, t := range tools {
		fs, ok := declared[t.Name()]
		if !ok {
			continue
		}
		if !schemaEqual(fs.Parameters, t.Parameters()) {
			errs = append(errs, fmt.Errorf("%w: local tool %q shadows server tool with a different schema", ErrDefinitionMismatch, t.Name()))
		}
	}
	return errors.Join(errs...)
}

// schemaEqual compares two JSON schemas structurally, ignoring formatting
// and key order.
func schemaEqual(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}
