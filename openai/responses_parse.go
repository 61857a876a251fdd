// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"encoding/json"

	ak "github.com/microsoft/agentkit/agentkit"
)

// responsesResponse is the OpenAI Responses API response body.
type responsesResponse struct {
	ID                 string         `json:"id"`
	Object             string         `json:"object"`
	CreatedAt          int64          `json:"created_at"`
	Model              string         `json:"model"`
	Status             string         `json:"status"`
	Output             []outputItem   `json:"output"`
	Usage              *responseUsage `json:"usage,omitempty"`
	PreviousResponseID string         `json:"previous_response_id,omitempty"`
	IncompleteDetails  *struct {
		Reason string `json:"reason"`
	} `json:"incomplete_details,omitempty"`
}

// outputItem is a single item in a response's output array.
type outputItem struct {
	Type string `json:"type"`

	// type == "message"
	Role    string          `json:"role,omitempty"`
	Content []outputContent `json:"content,omitempty"`

	// type == "function_call"
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// type == "reasoning"
	Summary []outputContent `json:"summary,omitempty"`
}

type outputContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type responseUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

func (u *responseUsage) details() ak.UsageDetails {
	if u == nil {
		return ak.UsageDetails{}
	}
	return ak.UsageDetails{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	}
}

// parseResponsesResponse converts a Responses API response into framework
// types. The response ID doubles as the conversation ID so a subsequent
// request can chain through previous_response_id.
func parseResponsesResponse(raw *responsesResponse) *ak.ChatResponse {
	resp := &ak.ChatResponse{
		ResponseID:     raw.ID,
		ConversationID: raw.ID,
		ModelID:        raw.Model,
		Usage:          raw.Usage.details(),
	}

	msg := ak.Message{Role: ak.RoleAssistant}
	for _, item := range raw.Output {
		switch item.Type {
		case "message":
			if item.Role != "" {
				msg.Role = ak.Role(item.Role)
			}
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					msg.Contents = append(msg.Contents, &ak.TextContent{Text: c.Text})
				}
			}
		case "function_call":
			msg.Contents = append(msg.Contents, &ak.FunctionCallContent{
				CallID:    item.CallID,
				Name:      item.Name,
				Arguments: item.Arguments,
			})
		case "reasoning":
			for _, c := range item.Summary {
				if c.Text != "" {
					msg.Contents = append(msg.Contents, &ak.TextReasoningContent{Text: c.Text})
				}
			}
		}
	}

	switch raw.Status {
	case "completed":
		resp.FinishReason = ak.FinishReasonStop
	case "incomplete":
		resp.FinishReason = ak.FinishReasonLength
	}
	if hasFunctionCall(msg.Contents) {
		resp.FinishReason = ak.FinishReasonToolCalls
	}

	if len(msg.Contents) > 0 {
		resp.Messages = []ak.Message{msg}
	}
	return resp
}

func hasFunctionCall(cs ak.Contents) bool {
	for _, c := range cs {
		if _, ok := c.(*ak.FunctionCallContent); ok {
			return true
		}
	}
	return false
}

// Streaming event payloads. The Responses API names each SSE event; only a
// few carry content the framework surfaces.

type textDeltaEvent struct {
	Type  string `json:"type"`
	Delta string `json:"delta"`
}

type outputItemDoneEvent struct {
	Type string     `json:"type"`
	Item outputItem `json:"item"`
}

type responseCompletedEvent struct {
	Type     string            `json:"type"`
	Response responsesResponse `json:"response"`
}

// parseResponsesEvent converts one SSE event into an update. Events that
// carry no framework-visible content return ok=false.
func parseResponsesEvent(ev sseEvent) (*ak.ChatResponseUpdate, bool) {
	switch ev.event {
	case "response.output_text.delta":
		var e textDeltaEvent
		if err := json.Unmarshal([]byte(ev.data), &e); err != nil || e.Delta == "" {
			return nil, false
		}
		return &ak.ChatResponseUpdate{
			Role:     ak.RoleAssistant,
			Contents: ak.Contents{&ak.TextContent{Text: e.Delta}},
		}, true

	case "response.output_item.done":
		var e outputItemDoneEvent
		if err := json.Unmarshal([]byte(ev.data), &e); err != nil || e.Item.Type != "function_call" {
			return nil, false
		}
		return &ak.ChatResponseUpdate{
			Role: ak.RoleAssistant,
			Contents: ak.Contents{&ak.FunctionCallContent{
				CallID:    e.Item.CallID,
				Name:      e.Item.Name,
				Arguments: e.Item.Arguments,
			}},
		}, true

	case "response.completed":
		var e responseCompletedEvent
		if err := json.Unmarshal([]byte(ev.data), &e); err != nil {
			return nil, false
		}
		return &ak.ChatResponseUpdate{
			ResponseID:     e.Response.ID,
			ConversationID: e.Response.ID,
			ModelID:        e.Response.Model,
			FinishReason:   ak.FinishReasonStop,
			Usage:          e.Response.Usage.details(),
		}, true

	default:
		return nil, false
	}
}
