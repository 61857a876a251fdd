// Copyright (c) Microsoft. All rights reserved.

package anthropic_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	ak "github.com/microsoft/agentkit/agentkit"
	"github.com/microsoft/agentkit/anthropic"
)

// mockTransportFunc is a RoundTripper that delegates to a function.
type mockTransportFunc func(*http.Request) (*http.Response, error)

func (f mockTransportFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newMockHTTPClient(fn func(*http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{Transport: mockTransportFunc(fn)}
}

func jsonResponse(status int, body any) *http.Response {
	b, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(b)),
	}
}

func sseResponse(lines ...string) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:       io.NopCloser(strings.NewReader(strings.Join(lines, "\n"))),
	}
}

func textResponse(id, model, text string) map[string]any {
	return map[string]any{
		"id":    id,
		"type":  "message",
		"role":  "assistant",
		"model": model,
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 12, "output_tokens": 7},
	}
}

func TestClient_Response_Basic(t *testing.T) {
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		if req.Method != "POST" {
			t.Errorf("method = %q", req.Method)
		}
		if !strings.HasSuffix(req.URL.Path, "/messages") {
			t.Errorf("path = %q", req.URL.Path)
		}
		if req.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", req.Header.Get("x-api-key"))
		}
		if req.Header.Get("anthropic-version") == "" {
			t.Error("anthropic-version header missing")
		}
		return jsonResponse(200, textResponse("msg_01", "claude-sonnet-4-20250514", "Hello there")), nil
	})

	client := anthropic.New("test-key",
		anthropic.WithHTTPClient(httpClient),
		anthropic.WithModel("claude-sonnet-4-20250514"),
	)

	resp, err := client.Response(context.Background(), []ak.Message{ak.NewUserMessage("Hi")}, nil)
	if err != nil {
		t.Fatalf("Response: %v", err)
	}
	if got := resp.Text(); got != "Hello there" {
		t.Errorf("text = %q", got)
	}
	if resp.ResponseID != "msg_01" {
		t.Errorf("response ID = %q", resp.ResponseID)
	}
	if resp.FinishReason != ak.FinishReasonStop {
		t.Errorf("finish reason = %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 19 {
		t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
	}
}

func TestClient_Response_SystemHoisted(t *testing.T) {
	var captured map[string]any
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		return jsonResponse(200, textResponse("msg_02", "claude-sonnet-4-20250514", "ok")), nil
	})

	client := anthropic.New("test-key",
		anthropic.WithHTTPClient(httpClient),
		anthropic.WithModel("claude-sonnet-4-20250514"),
	)

	messages := []ak.Message{
		ak.NewSystemMessage("You are terse."),
		ak.NewUserMessage("Hi"),
	}
	if _, err := client.Response(context.Background(), messages, &ak.ChatOptions{Instructions: "Answer in French."}); err != nil {
		t.Fatalf("Response: %v", err)
	}

	if got := captured["system"]; got != "Answer in French.\nYou are terse." {
		t.Errorf("system = %q", got)
	}
	msgs, _ := captured["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages on the wire = %d, want 1", len(msgs))
	}
	if _, ok := captured["max_tokens"]; !ok {
		t.Error("max_tokens missing from request")
	}
}

func TestClient_Response_ToolUse(t *testing.T) {
	apiResp := map[string]any{
		"id":    "msg_03",
		"type":  "message",
		"role":  "assistant",
		"model": "claude-sonnet-4-20250514",
		"content": []map[string]any{
			{"type": "text", "text": "Checking."},
			{
				"type":  "tool_use",
				"id":    "toolu_01",
				"name":  "get_weather",
				"input": map[string]any{"location": "Paris"},
			},
		},
		"stop_reason": "tool_use",
		"usage":       map[string]any{"input_tokens": 20, "output_tokens": 15},
	}

	var captured map[string]any
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &captured)
		return jsonResponse(200, apiResp), nil
	})

	tool := ak.NewTool("get_weather", "Get the weather",
		json.RawMessage(`{"type":"object","properties":{"location":{"type":"string"}}}`),
		func(ctx context.Context, args json.RawMessage) (any, error) { return "sunny", nil },
	)

	client := anthropic.New("test-key",
		anthropic.WithHTTPClient(httpClient),
		anthropic.WithModel("claude-sonnet-4-20250514"),
	)

	resp, err := client.Response(context.Background(), []ak.Message{ak.NewUserMessage("Weather in Paris?")},
		&ak.ChatOptions{Tools: []ak.Tool{tool}})
	if err != nil {
		t.Fatalf("Response: %v", err)
	}

	tools, _ := captured["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("tools on the wire = %d", len(tools))
	}
	spec := tools[0].(map[string]any)
	if spec["name"] != "get_weather" {
		t.Errorf("tool name = %v", spec["name"])
	}
	if _, ok := spec["input_schema"]; !ok {
		t.Error("input_schema missing from tool spec")
	}

	if resp.FinishReason != ak.FinishReasonToolCalls {
		t.Errorf("finish reason = %q", resp.FinishReason)
	}
	var call *ak.FunctionCallContent
	for _, c := range resp.Messages[0].Contents {
		if fc, ok := c.(*ak.FunctionCallContent); ok {
			call = fc
		}
	}
	if call == nil {
		t.Fatal("no function call in response")
	}
	if call.CallID != "toolu_01" || call.Name != "get_weather" {
		t.Errorf("call = %+v", call)
	}
	var args map[string]string
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || args["location"] != "Paris" {
		t.Errorf("arguments = %q (err %v)", call.Arguments, err)
	}
}

func TestClient_Response_ToolResultMessage(t *testing.T) {
	var captured map[string]any
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &captured)
		return jsonResponse(200, textResponse("msg_04", "claude-sonnet-4-20250514", "It is sunny.")), nil
	})

	client := anthropic.New("test-key",
		anthropic.WithHTTPClient(httpClient),
		anthropic.WithModel("claude-sonnet-4-20250514"),
	)

	messages := []ak.Message{
		ak.NewUserMessage("Weather in Paris?"),
		{
			Role: ak.RoleAssistant,
			Contents: ak.Contents{&ak.FunctionCallContent{
				CallID:    "toolu_01",
				Name:      "get_weather",
				Arguments: `{"location":"Paris"}`,
			}},
		},
		ak.NewToolMessage("toolu_01", "sunny"),
	}
	if _, err := client.Response(context.Background(), messages, nil); err != nil {
		t.Fatalf("Response: %v", err)
	}

	msgs, _ := captured["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("messages on the wire = %d, want 3", len(msgs))
	}

	assistant := msgs[1].(map[string]any)
	blocks := assistant["content"].([]any)
	block := blocks[0].(map[string]any)
	if block["type"] != "tool_use" || block["id"] != "toolu_01" {
		t.Errorf("assistant block = %v", block)
	}

	toolMsg := msgs[2].(map[string]any)
	if toolMsg["role"] != "user" {
		t.Errorf("tool result role = %v, want user", toolMsg["role"])
	}
	resultBlock := toolMsg["content"].([]any)[0].(map[string]any)
	if resultBlock["type"] != "tool_result" || resultBlock["tool_use_id"] != "toolu_01" {
		t.Errorf("tool result block = %v", resultBlock)
	}
	if resultBlock["content"] != "sunny" {
		t.Errorf("tool result content = %v", resultBlock["content"])
	}
}

func TestClient_Response_MaxTokensForwarded(t *testing.T) {
	var captured map[string]any
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &captured)
		return jsonResponse(200, textResponse("msg_05", "claude-sonnet-4-20250514", "ok")), nil
	})

	client := anthropic.New("test-key",
		anthropic.WithHTTPClient(httpClient),
		anthropic.WithModel("claude-sonnet-4-20250514"),
	)

	maxTokens := 256
	temperature := 0.3
	opts := &ak.ChatOptions{MaxTokens: &maxTokens, Temperature: &temperature}
	if _, err := client.Response(context.Background(), []ak.Message{ak.NewUserMessage("Hi")}, opts); err != nil {
		t.Fatalf("Response: %v", err)
	}

	if got := captured["max_tokens"]; got != float64(256) {
		t.Errorf("max_tokens = %v", got)
	}
	if got := captured["temperature"]; got != 0.3 {
		t.Errorf("temperature = %v", got)
	}
}

func TestClient_Response_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		errType string
		want    error
	}{
		{"unauthorized", 401, "authentication_error", ak.ErrAuth},
		{"not found", 404, "not_found_error", ak.ErrNotFound},
		{"invalid request", 400, "invalid_request_error", ak.ErrInvalidRequest},
		{"overloaded", 529, "overloaded_error", ak.ErrService},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(tc.status, map[string]any{
					"type": "error",
					"error": map[string]any{
						"type":    tc.errType,
						"message": "nope",
					},
				}), nil
			})

			client := anthropic.New("bad-key",
				anthropic.WithHTTPClient(httpClient),
				anthropic.WithModel("claude-sonnet-4-20250514"),
			)

			_, err := client.Response(context.Background(), []ak.Message{ak.NewUserMessage("Hi")}, nil)
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
			var svcErr *ak.ServiceError
			if !errors.As(err, &svcErr) {
				t.Fatalf("error %v is not a ServiceError", err)
			}
			if svcErr.StatusCode != tc.status || svcErr.Code != tc.errType {
				t.Errorf("ServiceError = %+v", svcErr)
			}
		})
	}
}

func TestClient_StreamResponse(t *testing.T) {
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		var body map[string]any
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &body)
		if body["stream"] != true {
			t.Error("stream flag not set")
		}
		return sseResponse(
			`event: message_start`,
			`data: {"type":"message_start","message":{"id":"msg_06","model":"claude-sonnet-4-20250514","usage":{"input_tokens":9}}}`,
			``,
			`event: content_block_start`,
			`data: {"type":"content_block_start","index":0,"content_block":{"type":"text"}}`,
			``,
			`event: content_block_delta`,
			`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello, "}}`,
			``,
			`event: content_block_delta`,
			`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"world!"}}`,
			``,
			`event: content_block_stop`,
			`data: {"type":"content_block_stop","index":0}`,
			``,
			`event: message_delta`,
			`data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":4}}`,
			``,
			`event: message_stop`,
			`data: {"type":"message_stop"}`,
			``,
		), nil
	})

	client := anthropic.New("test-key",
		anthropic.WithHTTPClient(httpClient),
		anthropic.WithModel("claude-sonnet-4-20250514"),
	)

	stream, err := client.StreamResponse(context.Background(), []ak.Message{ak.NewUserMessage("Hi")}, nil)
	if err != nil {
		t.Fatalf("StreamResponse: %v", err)
	}
	updates, err := stream.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	resp := ak.ChatResponseFromUpdates(updates)
	if got := resp.Text(); got != "Hello, world!" {
		t.Errorf("merged text = %q", got)
	}
	if resp.ResponseID != "msg_06" {
		t.Errorf("response ID = %q", resp.ResponseID)
	}
	if resp.FinishReason != ak.FinishReasonStop {
		t.Errorf("finish reason = %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 13 {
		t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
	}
}

func TestClient_StreamResponse_ToolUse(t *testing.T) {
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return sseResponse(
			`event: message_start`,
			`data: {"type":"message_start","message":{"id":"msg_07","model":"claude-sonnet-4-20250514","usage":{"input_tokens":14}}}`,
			``,
			`event: content_block_start`,
			`data: {"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_02","name":"get_weather"}}`,
			``,
			`event: content_block_delta`,
			`data: {"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"location\":"}}`,
			``,
			`event: content_block_delta`,
			`data: {"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"\"Paris\"}"}}`,
			``,
			`event: content_block_stop`,
			`data: {"type":"content_block_stop","index":0}`,
			``,
			`event: message_delta`,
			`data: {"type":"message_delta","delta":{"stop_reason":"tool_use"},"usage":{"output_tokens":11}}`,
			``,
			`event: message_stop`,
			`data: {"type":"message_stop"}`,
			``,
		), nil
	})

	client := anthropic.New("test-key",
		anthropic.WithHTTPClient(httpClient),
		anthropic.WithModel("claude-sonnet-4-20250514"),
	)

	stream, err := client.StreamResponse(context.Background(), []ak.Message{ak.NewUserMessage("Weather?")}, nil)
	if err != nil {
		t.Fatalf("StreamResponse: %v", err)
	}
	updates, err := stream.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	resp := ak.ChatResponseFromUpdates(updates)
	if resp.FinishReason != ak.FinishReasonToolCalls {
		t.Errorf("finish reason = %q", resp.FinishReason)
	}
	var call *ak.FunctionCallContent
	for _, m := range resp.Messages {
		for _, c := range m.Contents {
			if fc, ok := c.(*ak.FunctionCallContent); ok {
				call = fc
			}
		}
	}
	if call == nil {
		t.Fatal("no function call in merged response")
	}
	if call.CallID != "toolu_02" || call.Name != "get_weather" {
		t.Errorf("call = %+v", call)
	}
	if call.Arguments != `{"location":"Paris"}` {
		t.Errorf("arguments = %q", call.Arguments)
	}
}

func TestClient_Response_ForcedToolChoice(t *testing.T) {
	var captured map[string]any
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &captured)
		return jsonResponse(200, textResponse("msg_08", "claude-sonnet-4-20250514", "ok")), nil
	})

	client := anthropic.New("test-key",
		anthropic.WithHTTPClient(httpClient),
		anthropic.WithModel("claude-sonnet-4-20250514"),
	)

	opts := &ak.ChatOptions{ToolChoice: ak.ToolChoiceFunction("get_weather")}
	if _, err := client.Response(context.Background(), []ak.Message{ak.NewUserMessage("Hi")}, opts); err != nil {
		t.Fatalf("Response: %v", err)
	}

	choice, _ := captured["tool_choice"].(map[string]any)
	if choice["type"] != "tool" || choice["name"] != "get_weather" {
		t.Errorf("tool_choice = %v", choice)
	}
}
