// Copyright (c) Microsoft. All rights reserved.

package anthropic

import (
	"encoding/json"
	"strings"

	ak "github.com/microsoft/agentkit/agentkit"
)

// messagesRequest is the wire format for POST /v1/messages.
type messagesRequest struct {
	Model         string            `json:"model"`
	MaxTokens     int               `json:"max_tokens"`
	Messages      []wireMessage     `json:"messages"`
	System        string            `json:"system,omitempty"`
	Temperature   *float64          `json:"temperature,omitempty"`
	TopP          *float64          `json:"top_p,omitempty"`
	StopSequences []string          `json:"stop_sequences,omitempty"`
	Tools         []wireTool        `json:"tools,omitempty"`
	ToolChoice    *wireToolChoice   `json:"tool_choice,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Stream        bool              `json:"stream,omitempty"`
}

type wireMessage struct {
	Role    string      `json:"role"`
	Content []wireBlock `json:"content"`
}

// wireBlock is a single content block. Exactly one shape is populated
// depending on Type: "text", "tool_use" or "tool_result".
type wireBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type wireTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type wireToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// buildMessagesRequest converts agentkit messages and options into the
// Messages API wire format. System-role messages and opts.Instructions are
// hoisted into the top-level system field, which is the only place the
// Messages API accepts them.
func buildMessagesRequest(messages []ak.Message, opts *ak.ChatOptions, defaultModel string) *messagesRequest {
	req := &messagesRequest{
		Model:     defaultModel,
		MaxTokens: defaultMaxTokens,
	}

	var system []string
	if opts != nil {
		if opts.ModelID != "" {
			req.Model = opts.ModelID
		}
		if opts.MaxTokens != nil {
			req.MaxTokens = *opts.MaxTokens
		}
		req.Temperature = opts.Temperature
		req.TopP = opts.TopP
		req.StopSequences = opts.Stop
		req.Tools = convertTools(opts.Tools)
		req.ToolChoice = convertToolChoice(opts.ToolChoice)
		req.Metadata = opts.Metadata
		if opts.Instructions != "" {
			system = append(system, opts.Instructions)
		}
	}

	for _, m := range messages {
		if m.Role == ak.RoleSystem {
			if t := m.Text(); t != "" {
				system = append(system, t)
			}
			continue
		}
		if wm, ok := convertMessage(m); ok {
			req.Messages = append(req.Messages, wm)
		}
	}
	req.System = strings.Join(system, "\n")
	return req
}

func convertMessage(m ak.Message) (wireMessage, bool) {
	role := "user"
	if m.Role == ak.RoleAssistant {
		role = "assistant"
	}

	var blocks []wireBlock
	for _, c := range m.Contents {
		switch v := c.(type) {
		case *ak.TextContent:
			blocks = append(blocks, wireBlock{Type: "text", Text: v.Text})
		case *ak.FunctionCallContent:
			blocks = append(blocks, wireBlock{
				Type:  "tool_use",
				ID:    v.CallID,
				Name:  v.Name,
				Input: normalizeInput(v.Arguments),
			})
		case *ak.FunctionResultContent:
			// Tool results travel in a user-role message.
			blocks = append(blocks, wireBlock{
				Type:      "tool_result",
				ToolUseID: v.CallID,
				Content:   resultText(v.Result),
			})
		}
	}
	if len(blocks) == 0 {
		return wireMessage{}, false
	}
	return wireMessage{Role: role, Content: blocks}, true
}

// normalizeInput ensures a tool_use input is valid JSON; an empty argument
// string becomes the empty object the API requires.
func normalizeInput(args string) json.RawMessage {
	if strings.TrimSpace(args) == "" {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(args)
}

func resultText(result any) string {
	switch v := result.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func convertTools(tools []ak.Tool) []wireTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]wireTool, 0, len(tools))
	for _, t := range tools {
		schema := t.Parameters()
		if len(schema) == 0 {
			schema = json.RawMessage(`{"type":"object"}`)
		}
		out = append(out, wireTool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: schema,
		})
	}
	return out
}

func convertToolChoice(choice ak.ToolChoice) *wireToolChoice {
	switch {
	case choice == "":
		return nil
	case choice == ak.ToolChoiceAuto:
		return &wireToolChoice{Type: "auto"}
	case choice == ak.ToolChoiceRequired:
		return &wireToolChoice{Type: "any"}
	case choice == ak.ToolChoiceNone:
		return &wireToolChoice{Type: "none"}
	default:
		if name, ok := strings.CutPrefix(string(choice), "function:"); ok {
			return &wireToolChoice{Type: "tool", Name: name}
		}
		return nil
	}
}
