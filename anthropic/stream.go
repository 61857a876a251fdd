// Copyright (c) Microsoft. All rights reserved.

package anthropic

import (
	"encoding/json"
	"strings"

	ak "github.com/microsoft/agentkit/agentkit"
)

// streamState accumulates per-connection state across Messages API stream
// events. Tool-use blocks arrive as a start event followed by partial-JSON
// deltas; the assembled call is emitted on the block's stop event.
type streamState struct {
	responseID  string
	modelID     string
	inputTokens int

	// tool blocks in flight, keyed by content block index
	toolBlocks map[int]*toolBlockState
}

type toolBlockState struct {
	id   string
	name string
	args strings.Builder
}

func newStreamState() *streamState {
	return &streamState{toolBlocks: map[int]*toolBlockState{}}
}

// handleEvent consumes one SSE event and returns an update to emit, if any.
func (st *streamState) handleEvent(ev sseEvent) (*ak.ChatResponseUpdate, bool) {
	switch ev.event {
	case "message_start":
		var payload struct {
			Message struct {
				ID    string     `json:"id"`
				Model string     `json:"model"`
				Usage *wireUsage `json:"usage"`
			} `json:"message"`
		}
		if err := json.Unmarshal([]byte(ev.data), &payload); err != nil {
			return nil, false
		}
		st.responseID = payload.Message.ID
		st.modelID = payload.Message.Model
		if payload.Message.Usage != nil {
			st.inputTokens = payload.Message.Usage.InputTokens
		}
		return nil, false

	case "content_block_start":
		var payload struct {
			Index        int `json:"index"`
			ContentBlock struct {
				Type string `json:"type"`
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"content_block"`
		}
		if err := json.Unmarshal([]byte(ev.data), &payload); err != nil {
			return nil, false
		}
		if payload.ContentBlock.Type == "tool_use" {
			st.toolBlocks[payload.Index] = &toolBlockState{
				id:   payload.ContentBlock.ID,
				name: payload.ContentBlock.Name,
			}
		}
		return nil, false

	case "content_block_delta":
		var payload struct {
			Index int `json:"index"`
			Delta struct {
				Type        string `json:"type"`
				Text        string `json:"text"`
				PartialJSON string `json:"partial_json"`
			} `json:"delta"`
		}
		if err := json.Unmarshal([]byte(ev.data), &payload); err != nil {
			return nil, false
		}
		switch payload.Delta.Type {
		case "text_delta":
			return st.update(ak.Contents{&ak.TextContent{Text: payload.Delta.Text}}), true
		case "input_json_delta":
			if tb := st.toolBlocks[payload.Index]; tb != nil {
				tb.args.WriteString(payload.Delta.PartialJSON)
			}
			return nil, false
		}
		return nil, false

	case "content_block_stop":
		var payload struct {
			Index int `json:"index"`
		}
		if err := json.Unmarshal([]byte(ev.data), &payload); err != nil {
			return nil, false
		}
		tb := st.toolBlocks[payload.Index]
		if tb == nil {
			return nil, false
		}
		delete(st.toolBlocks, payload.Index)
		return st.update(ak.Contents{&ak.FunctionCallContent{
			CallID:    tb.id,
			Name:      tb.name,
			Arguments: string(normalizeInput(tb.args.String())),
		}}), true

	case "message_delta":
		var payload struct {
			Delta struct {
				StopReason string `json:"stop_reason"`
			} `json:"delta"`
			Usage *wireUsage `json:"usage"`
		}
		if err := json.Unmarshal([]byte(ev.data), &payload); err != nil {
			return nil, false
		}
		u := st.update(nil)
		u.FinishReason = mapStopReason(payload.Delta.StopReason)
		if payload.Usage != nil {
			u.Usage = ak.UsageDetails{
				InputTokens:  st.inputTokens,
				OutputTokens: payload.Usage.OutputTokens,
				TotalTokens:  st.inputTokens + payload.Usage.OutputTokens,
			}
		}
		return u, true
	}

	// message_stop, ping and unrecognized events carry nothing to forward.
	return nil, false
}

func (st *streamState) update(contents ak.Contents) *ak.ChatResponseUpdate {
	return &ak.ChatResponseUpdate{
		Contents:   contents,
		Role:       ak.RoleAssistant,
		ResponseID: st.responseID,
		ModelID:    st.modelID,
	}
}
