// Copyright (c) Microsoft. All rights reserved.

package agentkit_test

import (
	"context"
	"encoding/json"
	"testing"

	ak "github.com/microsoft/agentkit/agentkit"
)

func TestMergeChatOptions_NilBase(t *testing.T) {
	temp := 0.7
	override := &ak.ChatOptions{Temperature: &temp, ModelID: "gpt-4o"}
	merged := ak.MergeChatOptions(nil, override)

	if merged.ModelID != "gpt-4o" {
		t.Errorf("ModelID = %q", merged.ModelID)
	}
	if merged.Temperature == nil || *merged.Temperature != 0.7 {
		t.Errorf("Temperature = %v", merged.Temperature)
	}
}

func TestMergeChatOptions_NilOverride(t *testing.T) {
	base := &ak.ChatOptions{ModelID: "gpt-3.5"}
	merged := ak.MergeChatOptions(base, nil)

	if merged.ModelID != "gpt-3.5" {
		t.Errorf("ModelID = %q", merged.ModelID)
	}
}

func TestMergeChatOptions_BothNil(t *testing.T) {
	merged := ak.MergeChatOptions(nil, nil)
	if merged == nil {
		t.Fatal("expected non-nil result")
	}
}

func TestMergeChatOptions_OverrideWins(t *testing.T) {
	baseTemp := 0.5
	overTemp := 0.9
	base := &ak.ChatOptions{
		ModelID:     "base-model",
		Temperature: &baseTemp,
		User:        "user1",
	}
	override := &ak.ChatOptions{
		ModelID:     "override-model",
		Temperature: &overTemp,
	}
	merged := ak.MergeChatOptions(base, override)

	if merged.ModelID != "override-model" {
		t.Errorf("ModelID = %q, want override-model", merged.ModelID)
	}
	if *merged.Temperature != 0.9 {
		t.Errorf("Temperature = %f, want 0.9", *merged.Temperature)
	}
	if merged.User != "user1" {
		t.Errorf("User = %q, want user1 (preserved from base)", merged.User)
	}
}

func TestMergeChatOptions_DoesNotMutateInputs(t *testing.T) {
	base := &ak.ChatOptions{
		Metadata: map[string]string{"a": "1"},
	}
	override := &ak.ChatOptions{
		Metadata: map[string]string{"b": "2"},
	}
	_ = ak.MergeChatOptions(base, override)

	if len(base.Metadata) != 1 || base.Metadata["a"] != "1" {
		t.Errorf("base metadata mutated: %v", base.Metadata)
	}
	if len(override.Metadata) != 1 || override.Metadata["b"] != "2" {
		t.Errorf("override metadata mutated: %v", override.Metadata)
	}
}

func TestMergeChatOptions_InstructionsConcatenate(t *testing.T) {
	base := &ak.ChatOptions{Instructions: "Be helpful"}
	override := &ak.ChatOptions{Instructions: "Be concise"}
	merged := ak.MergeChatOptions(base, override)

	expected := "Be helpful\nBe concise"
	if merged.Instructions != expected {
		t.Errorf("Instructions = %q, want %q", merged.Instructions, expected)
	}
}

func TestMergeChatOptions_ToolsMergeByName(t *testing.T) {
	noop := func(ctx context.Context, args json.RawMessage) (any, error) { return nil, nil }
	schema := json.RawMessage(`{"type":"object"}`)

	baseA := ak.NewTool("a", "base a", schema, noop)
	baseB := ak.NewTool("b", "base b", schema, noop)
	overrideB := ak.NewTool("b", "override b", schema, noop)
	overrideC := ak.NewTool("c", "override c", schema, noop)

	base := &ak.ChatOptions{Tools: []ak.Tool{baseA, baseB}}
	override := &ak.ChatOptions{Tools: []ak.Tool{overrideB, overrideC}}
	merged := ak.MergeChatOptions(base, override)

	if len(merged.Tools) != 3 {
		t.Fatalf("tools = %d, want 3", len(merged.Tools))
	}
	// Base ordering preserved, override replaces in place, new tools appended.
	if merged.Tools[0].Name() != "a" || merged.Tools[1].Name() != "b" || merged.Tools[2].Name() != "c" {
		t.Errorf("tool order = [%s %s %s]", merged.Tools[0].Name(), merged.Tools[1].Name(), merged.Tools[2].Name())
	}
	if merged.Tools[1].Description() != "override b" {
		t.Errorf("tool b description = %q, want override b", merged.Tools[1].Description())
	}
}

func TestMergeChatOptions_MetadataMerge(t *testing.T) {
	base := &ak.ChatOptions{
		Metadata: map[string]string{"a": "1", "b": "2"},
	}
	override := &ak.ChatOptions{
		Metadata: map[string]string{"b": "override", "c": "3"},
	}
	merged := ak.MergeChatOptions(base, override)

	if merged.Metadata["a"] != "1" {
		t.Errorf("metadata[a] = %q", merged.Metadata["a"])
	}
	if merged.Metadata["b"] != "override" {
		t.Errorf("metadata[b] = %q, want override", merged.Metadata["b"])
	}
	if merged.Metadata["c"] != "3" {
		t.Errorf("metadata[c] = %q", merged.Metadata["c"])
	}
}

func TestChatOptions_CloneNil(t *testing.T) {
	var opts *ak.ChatOptions
	cp := opts.Clone()
	if cp == nil {
		t.Fatal("Clone of nil should return empty options")
	}
}

func TestToolChoiceFunction(t *testing.T) {
	tc := ak.ToolChoiceFunction("get_weather")
	expected := ak.ToolChoice("function:get_weather")
	if tc != expected {
		t.Errorf("ToolChoiceFunction = %q, want %q", tc, expected)
	}
}
