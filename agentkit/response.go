// Copyright (c) Microsoft. All rights reserved.

package agentkit

import "strings"

// ChatResponse is the complete (non-streaming) response from a [ChatClient].
type ChatResponse struct {
	Messages       []Message
	ResponseID     string
	ConversationID string
	ModelID        string
	CreatedAt      string
	FinishReason   FinishReason
	Usage          UsageDetails
	Extra          map[string]any
	Raw            any
}

// Text returns the concatenated text of all messages in this response.
func (r *ChatResponse) Text() string {
	var b strings.Builder
	for i := range r.Messages {
		b.WriteString(r.Messages[i].Text())
	}
	return b.String()
}

// ChatResponseUpdate is a single chunk received during streaming from a [ChatClient].
type ChatResponseUpdate struct {
	Contents       Contents
	Role           Role
	ResponseID     string
	ConversationID string
	ModelID        string
	FinishReason   FinishReason
	Usage          UsageDetails
	Raw            any
}

// Text returns the concatenated text of all [TextContent] items in this update.
func (u *ChatResponseUpdate) Text() string {
	var b strings.Builder
	for _, c := range u.Contents {
		if tc, ok := c.(*TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// RunResponse is the complete response from an [Agent] run.
type RunResponse struct {
	Messages   []Message
	ResponseID string
	AgentID    string
	Usage      UsageDetails
	Extra      map[string]any
	Raw        any
}

// Text returns the concatenated text of all messages in this run response.
func (r *RunResponse) Text() string {
	var b strings.Builder
	for i := range r.Messages {
		b.WriteString(r.Messages[i].Text())
	}
	return b.String()
}

// UserInputRequests returns all [ApprovalRequestContent] items across messages.
func (r *RunResponse) UserInputRequests() []Content {
	var reqs []Content
	for _, m := range r.Messages {
		for _, c := range m.Contents {
			if c.Type() == ContentTypeApprovalRequest {
				reqs = append(reqs, c)
			}
		}
	}
	return reqs
}

// RunResponseUpdate is a single streaming chunk from an [Agent] run.
type RunResponseUpdate struct {
	Contents   Contents
	Role       Role
	AgentID    string
	ResponseID string
	Usage      UsageDetails
	Raw        any
}

// Text returns the concatenated text of all [TextContent] items in this update.
func (u *RunResponseUpdate) Text() string {
	var b strings.Builder
	for _, c := range u.Contents {
		if tc, ok := c.(*TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// ChatResponseFromUpdates builds a complete [ChatResponse] by merging
// a sequence of streaming updates.
func ChatResponseFromUpdates(updates []ChatResponseUpdate) *ChatResponse {
	resp := &ChatResponse{}
	var allContents Contents
	for _, u := range updates {
		allContents = append(allContents, u.Contents...)
		if u.ResponseID != "" {
			resp.ResponseID = u.ResponseID
		}
		if u.ConversationID != "" {
			resp.ConversationID = u.ConversationID
		}
		if u.ModelID != "" {
			resp.ModelID = u.ModelID
		}
		if u.FinishReason != "" {
			resp.FinishReason = u.FinishReason
		}
		if u.Usage.TotalTokens > 0 {
			resp.Usage = u.Usage
		}
	}

	if merged := mergeContentDeltas(allContents); len(merged) > 0 {
		resp.Messages = []Message{{Role: updatesRole(len(updates) > 0, updates), Contents: merged}}
	}
	return resp
}

// RunResponseFromUpdates builds a complete [RunResponse] by merging
// a sequence of streaming updates.
func RunResponseFromUpdates(updates []RunResponseUpdate) *RunResponse {
	resp := &RunResponse{}
	var allContents Contents
	role := RoleAssistant
	for i, u := range updates {
		allContents = append(allContents, u.Contents...)
		if u.AgentID != "" {
			resp.AgentID = u.AgentID
		}
		if u.ResponseID != "" {
			resp.ResponseID = u.ResponseID
		}
		if u.Usage.TotalTokens > 0 {
			resp.Usage = u.Usage
		}
		if i == 0 && u.Role != "" {
			role = u.Role
		}
	}

	if merged := mergeContentDeltas(allContents); len(merged) > 0 {
		resp.Messages = []Message{{Role: role, Contents: merged}}
	}
	return resp
}

func updatesRole(has bool, updates []ChatResponseUpdate) Role {
	if has && updates[0].Role != "" {
		return updates[0].Role
	}
	return RoleAssistant
}

// mergeContentDeltas consolidates sequential TextContent runs into single
// items, and passes non-text content through as-is.
func mergeContentDeltas(cs Contents) Contents {
	if len(cs) == 0 {
		return nil
	}
	var merged Contents
	var textBuf strings.Builder
	flush := func() {
		if textBuf.Len() > 0 {
			merged = append(merged, &TextContent{Text: textBuf.String()})
			textBuf.Reset()
		}
	}
	for _, c := range cs {
		if tc, ok := c.(*TextContent); ok {
			textBuf.WriteString(tc.Text)
		} else {
			flush()
			merged = append(merged, c)
		}
	}
	flush()
	return merged
}
