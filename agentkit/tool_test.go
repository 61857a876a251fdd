// Copyright (c) Microsoft. All rights reserved.

package agentkit_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	ak "github.com/microsoft/agentkit/agentkit"
)

func TestNewTypedTool_SchemaGeneration(t *testing.T) {
	type args struct {
		Location string `json:"location" jsonschema:"description=City name,required"`
		Unit     string `json:"unit"     jsonschema:"description=Temperature unit,enum=celsius|fahrenheit"`
	}

	tool := ak.NewTypedTool("get_weather", "Gets the weather",
		func(ctx context.Context, a args) (any, error) {
			return "sunny", nil
		},
	)

	var schema map[string]any
	if err := json.Unmarshal(tool.Parameters(), &schema); err != nil {
		t.Fatalf("schema not valid JSON: %v", err)
	}
	if schema["type"] != "object" {
		t.Errorf("type = %v", schema["type"])
	}

	props, _ := schema["properties"].(map[string]any)
	loc, _ := props["location"].(map[string]any)
	if loc["description"] != "City name" {
		t.Errorf("location description = %v", loc["description"])
	}

	unit, _ := props["unit"].(map[string]any)
	enum, _ := unit["enum"].([]any)
	if len(enum) != 2 || enum[0] != "celsius" || enum[1] != "fahrenheit" {
		t.Errorf("unit enum = %v", enum)
	}

	required, _ := schema["required"].([]any)
	if len(required) != 1 || required[0] != "location" {
		t.Errorf("required = %v", required)
	}
}

func TestNewTypedTool_Invoke(t *testing.T) {
	type args struct {
		A int `json:"a"`
		B int `json:"b"`
	}

	tool := ak.NewTypedTool("add", "Adds two numbers",
		func(ctx context.Context, a args) (any, error) {
			return a.A + a.B, nil
		},
	)

	result, err := tool.Invoke(context.Background(), json.RawMessage(`{"a":2,"b":3}`))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if result != 5 {
		t.Errorf("result = %v, want 5", result)
	}
}

func TestNewTypedTool_InvalidArguments(t *testing.T) {
	type args struct {
		N int `json:"n"`
	}

	tool := ak.NewTypedTool("strict", "Wants a number",
		func(ctx context.Context, a args) (any, error) {
			return a.N, nil
		},
	)

	_, err := tool.Invoke(context.Background(), json.RawMessage(`{"n":"not a number"}`))
	if err == nil {
		t.Fatal("expected error for invalid arguments")
	}
	if !errors.Is(err, ak.ErrToolExecution) {
		t.Errorf("error should wrap ErrToolExecution: %v", err)
	}
	var te *ak.ToolError
	if !errors.As(err, &te) || te.ToolName != "strict" {
		t.Errorf("expected ToolError for strict, got %v", err)
	}
}

func TestToolOptions(t *testing.T) {
	tool := ak.NewTool("guarded", "Needs approval", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) { return nil, nil },
		ak.WithApprovalRequired(),
		ak.WithDeclarationOnly(),
	)

	if tool.Approval() != ak.ApprovalAlways {
		t.Errorf("approval = %q", tool.Approval())
	}
	if !tool.DeclarationOnly() {
		t.Error("expected declaration-only")
	}
}

func TestGenerateSchema_NestedTypes(t *testing.T) {
	type inner struct {
		Name string `json:"name"`
	}
	type outer struct {
		Items  []inner        `json:"items"`
		Counts map[string]int `json:"counts"`
		Flag   *bool          `json:"flag"`
	}

	var schema map[string]any
	if err := json.Unmarshal(ak.GenerateSchema[outer](), &schema); err != nil {
		t.Fatalf("schema not valid JSON: %v", err)
	}
	props, _ := schema["properties"].(map[string]any)

	items, _ := props["items"].(map[string]any)
	if items["type"] != "array" {
		t.Errorf("items type = %v", items["type"])
	}
	itemSchema, _ := items["items"].(map[string]any)
	if itemSchema["type"] != "object" {
		t.Errorf("items element type = %v", itemSchema["type"])
	}

	counts, _ := props["counts"].(map[string]any)
	if counts["type"] != "object" {
		t.Errorf("counts type = %v", counts["type"])
	}

	flag, _ := props["flag"].(map[string]any)
	if flag["type"] != "boolean" {
		t.Errorf("flag type = %v", flag["type"])
	}
}
