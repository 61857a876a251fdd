// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"encoding/json"
	"strings"

	ak "github.com/microsoft/agentkit/agentkit"
)

// responsesRequest is the OpenAI Responses API request body.
type responsesRequest struct {
	Model              string            `json:"model"`
	Input              []inputItem       `json:"input"`
	Instructions       string            `json:"instructions,omitempty"`
	Temperature        *float64          `json:"temperature,omitempty"`
	TopP               *float64          `json:"top_p,omitempty"`
	MaxOutputTokens    *int              `json:"max_output_tokens,omitempty"`
	Tools              []responsesTool   `json:"tools,omitempty"`
	ToolChoice         any               `json:"tool_choice,omitempty"`
	PreviousResponseID string            `json:"previous_response_id,omitempty"`
	Store              *bool             `json:"store,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	User               string            `json:"user,omitempty"`
	Stream             bool              `json:"stream,omitempty"`
}

// inputItem is a single item in the Responses API input array. The item
// type determines which fields are set.
type inputItem struct {
	Type string `json:"type"`

	// type == "message"
	Role    string         `json:"role,omitempty"`
	Content []inputContent `json:"content,omitempty"`

	// type == "function_call"
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// type == "function_call_output"
	Output string `json:"output,omitempty"`
}

type inputContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// responsesTool is a function tool declaration. The Responses API flattens
// the function fields onto the tool object.
type responsesTool struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// buildResponsesRequest converts framework types into a Responses API request.
// A leading system message becomes the top-level instructions field, and the
// conversation ID (if any) becomes previous_response_id.
func buildResponsesRequest(messages []ak.Message, opts *ak.ChatOptions, defaultModel string) *responsesRequest {
	req := &responsesRequest{
		Model: defaultModel,
	}
	if opts != nil {
		if opts.ModelID != "" {
			req.Model = opts.ModelID
		}
		req.Temperature = opts.Temperature
		req.TopP = opts.TopP
		req.MaxOutputTokens = opts.MaxTokens
		req.PreviousResponseID = opts.ConversationID
		req.Store = opts.Store
		req.Metadata = opts.Metadata
		req.User = opts.User
		req.ToolChoice = convertResponsesToolChoice(opts.ToolChoice)
		for _, t := range opts.Tools {
			req.Tools = append(req.Tools, responsesTool{
				Type:        "function",
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			})
		}
	}

	// System prompt travels in the instructions field, not the input list.
	// Option-level instructions come first, then a hoisted system message.
	var instructions []string
	if opts != nil && opts.Instructions != "" {
		instructions = append(instructions, opts.Instructions)
	}
	if len(messages) > 0 && messages[0].Role == ak.RoleSystem {
		if t := messages[0].Text(); t != "" {
			instructions = append(instructions, t)
		}
		messages = messages[1:]
	}
	req.Instructions = strings.Join(instructions, "\n")

	req.Input = convertInputItems(messages)
	return req
}

// convertInputItems translates framework Messages into Responses API input items.
func convertInputItems(messages []ak.Message) []inputItem {
	items := make([]inputItem, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case ak.RoleTool:
			for _, c := range msg.Contents {
				if fr, ok := c.(*ak.FunctionResultContent); ok {
					items = append(items, inputItem{
						Type:   "function_call_output",
						CallID: fr.CallID,
						Output: marshalResult(fr.Result),
					})
				}
			}

		case ak.RoleAssistant:
			var text strings.Builder
			for _, c := range msg.Contents {
				switch v := c.(type) {
				case *ak.TextContent:
					text.WriteString(v.Text)
				case *ak.FunctionCallContent:
					items = append(items, inputItem{
						Type:      "function_call",
						CallID:    v.CallID,
						Name:      v.Name,
						Arguments: v.Arguments,
					})
				}
			}
			if text.Len() > 0 {
				items = append(items, inputItem{
					Type:    "message",
					Role:    string(ak.RoleAssistant),
					Content: []inputContent{{Type: "output_text", Text: text.String()}},
				})
			}

		default:
			var content []inputContent
			for _, c := range msg.Contents {
				switch v := c.(type) {
				case *ak.TextContent:
					content = append(content, inputContent{Type: "input_text", Text: v.Text})
				case *ak.DataContent:
					content = append(content, inputContent{Type: "input_image", ImageURL: v.URI})
				case *ak.URIContent:
					content = append(content, inputContent{Type: "input_image", ImageURL: v.URI})
				}
			}
			if len(content) > 0 {
				items = append(items, inputItem{
					Type:    "message",
					Role:    string(msg.Role),
					Content: content,
				})
			}
		}
	}

	return items
}

func convertResponsesToolChoice(tc ak.ToolChoice) any {
	switch tc {
	case "":
		return nil
	case ak.ToolChoiceAuto, ak.ToolChoiceRequired, ak.ToolChoiceNone:
		return string(tc)
	}
	if name, ok := strings.CutPrefix(string(tc), "function:"); ok {
		return map[string]any{"type": "function", "name": name}
	}
	return string(tc)
}
