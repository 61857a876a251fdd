// Copyright (c) Microsoft. All rights reserved.

package anthropic

import (
	"encoding/json"

	ak "github.com/microsoft/agentkit/agentkit"
)

// messagesResponse is the wire format of a non-streaming Messages API reply.
type messagesResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Role       string          `json:"role"`
	Model      string          `json:"model"`
	Content    []responseBlock `json:"content"`
	StopReason string          `json:"stop_reason"`
	Usage      *wireUsage      `json:"usage,omitempty"`
}

type responseBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type wireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (u *wireUsage) details() ak.UsageDetails {
	if u == nil {
		return ak.UsageDetails{}
	}
	return ak.UsageDetails{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.InputTokens + u.OutputTokens,
	}
}

func parseMessagesResponse(raw *messagesResponse) *ak.ChatResponse {
	var contents ak.Contents
	for _, b := range raw.Content {
		if c := parseBlock(b); c != nil {
			contents = append(contents, c)
		}
	}

	resp := &ak.ChatResponse{
		ResponseID:   raw.ID,
		ModelID:      raw.Model,
		FinishReason: mapStopReason(raw.StopReason),
		Usage:        raw.Usage.details(),
	}
	if len(contents) > 0 {
		resp.Messages = []ak.Message{{Role: ak.RoleAssistant, Contents: contents}}
	}
	return resp
}

func parseBlock(b responseBlock) ak.Content {
	switch b.Type {
	case "text":
		return &ak.TextContent{Text: b.Text}
	case "tool_use":
		return &ak.FunctionCallContent{
			CallID:    b.ID,
			Name:      b.Name,
			Arguments: string(b.Input),
		}
	default:
		return nil
	}
}

func mapStopReason(reason string) ak.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return ak.FinishReasonStop
	case "max_tokens":
		return ak.FinishReasonLength
	case "tool_use":
		return ak.FinishReasonToolCalls
	case "":
		return ""
	default:
		return ak.FinishReason(reason)
	}
}
