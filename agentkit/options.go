// Copyright (c) Microsoft. All rights reserved.

package agentkit

// ToolChoice controls how the model selects tools.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
	ToolChoiceNone     ToolChoice = "none"
)

// ToolChoiceFunction returns a ToolChoice that forces the model to call
// the named function.
func ToolChoiceFunction(name string) ToolChoice {
	return ToolChoice("function:" + name)
}

// ChatOptions configures a single chat completion request.
// Pointer fields use nil to represent "unset" (use provider default).
type ChatOptions struct {
	ModelID          string
	Temperature      *float64
	TopP             *float64
	MaxTokens        *int
	Stop             []string
	Seed             *int
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Tools            []Tool
	ToolChoice       ToolChoice
	ResponseFormat   any // JSON Schema object or struct type descriptor
	Metadata         map[string]string
	User             string
	Instructions     string
	ConversationID   string
	Store            *bool

	// Extra holds provider-specific options not covered by standard fields.
	Extra map[string]any
}

// Clone returns a shallow copy of the options. A nil receiver yields an
// empty, non-nil value so callers can mutate the result freely.
func (o *ChatOptions) Clone() *ChatOptions {
	if o == nil {
		return &ChatOptions{}
	}
	cp := *o
	return &cp
}

// MergeChatOptions produces a new ChatOptions by overlaying override values
// onto base. Nil or zero-value fields in override do not overwrite base, so
// caller-supplied fields are never silently dropped. Tools are merged by name
// with override replacing same-named entries; metadata and extras merge with
// override keys winning; instructions concatenate base-first.
func MergeChatOptions(base, override *ChatOptions) *ChatOptions {
	if base == nil {
		return override.Clone()
	}
	if override == nil {
		return base.Clone()
	}

	merged := base.Clone()
	merged.applyScalars(override)
	merged.Instructions = concatInstructions(base.Instructions, override.Instructions)
	if len(override.Tools) > 0 {
		merged.Tools = mergeToolsByName(base.Tools, override.Tools)
	}
	merged.Metadata = mergeStringMap(base.Metadata, override.Metadata)
	merged.Extra = mergeAnyMap(base.Extra, override.Extra)
	return merged
}

// applyScalars copies every set scalar field of override onto o.
func (o *ChatOptions) applyScalars(override *ChatOptions) {
	if override.ModelID != "" {
		o.ModelID = override.ModelID
	}
	if override.Temperature != nil {
		o.Temperature = override.Temperature
	}
	if override.TopP != nil {
		o.TopP = override.TopP
	}
	if override.MaxTokens != nil {
		o.MaxTokens = override.MaxTokens
	}
	if len(override.Stop) > 0 {
		o.Stop = override.Stop
	}
	if override.Seed != nil {
		o.Seed = override.Seed
	}
	if override.FrequencyPenalty != nil {
		o.FrequencyPenalty = override.FrequencyPenalty
	}
	if override.PresencePenalty != nil {
		o.PresencePenalty = override.PresencePenalty
	}
	if override.ToolChoice != "" {
		o.ToolChoice = override.ToolChoice
	}
	if override.ResponseFormat != nil {
		o.ResponseFormat = override.ResponseFormat
	}
	if override.User != "" {
		o.User = override.User
	}
	if override.ConversationID != "" {
		o.ConversationID = override.ConversationID
	}
	if override.Store != nil {
		o.Store = override.Store
	}
}

// concatInstructions joins two instruction strings with a newline,
// tolerating either being empty.
func concatInstructions(first, second string) string {
	switch {
	case first == "":
		return second
	case second == "":
		return first
	default:
		return first + "\n" + second
	}
}

// mergeToolsByName overlays override tools onto base tools. A tool in
// override replaces a same-named tool in base in place; new tools are
// appended in override order.
func mergeToolsByName(baseTools, overrideTools []Tool) []Tool {
	replacements := make(map[string]Tool, len(overrideTools))
	for _, t := range overrideTools {
		replacements[t.Name()] = t
	}

	merged := make([]Tool, 0, len(baseTools)+len(overrideTools))
	seen := make(map[string]bool, len(baseTools))
	for _, t := range baseTools {
		if r, ok := replacements[t.Name()]; ok {
			merged = append(merged, r)
		} else {
			merged = append(merged, t)
		}
		seen[t.Name()] = true
	}
	for _, t := range overrideTools {
		if !seen[t.Name()] {
			merged = append(merged, t)
		}
	}
	return merged
}

func mergeStringMap(base, override map[string]string) map[string]string {
	if len(override) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

func mergeAnyMap(base, override map[string]any) map[string]any {
	if len(override) == 0 {
		return base
	}
	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
