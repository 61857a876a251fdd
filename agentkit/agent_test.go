// Copyright (c) Microsoft. All rights reserved.

package agentkit_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	ak "github.com/microsoft/agentkit/agentkit"
)

func TestAgent_BasicRun(t *testing.T) {
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
			return &ak.ChatResponse{
				Messages: []ak.Message{ak.NewAssistantMessage("Hello there")},
			}, nil
		},
	}

	agent := ak.NewAgent(client, ak.WithName("greeter"))
	resp, err := agent.Run(context.Background(), []ak.Message{ak.NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if resp.Text() != "Hello there" {
		t.Errorf("text = %q", resp.Text())
	}
	if resp.AgentID != agent.ID() {
		t.Errorf("agent id = %q, want %q", resp.AgentID, agent.ID())
	}
	if agent.Name() != "greeter" {
		t.Errorf("name = %q", agent.Name())
	}
}

func TestAgent_InstructionsPrepended(t *testing.T) {
	var received []ak.Message
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
			received = msgs
			return &ak.ChatResponse{
				Messages: []ak.Message{ak.NewAssistantMessage("ok")},
			}, nil
		},
	}

	agent := ak.NewAgent(client, ak.WithInstructions("You are a pirate"))
	if _, err := agent.Run(context.Background(), []ak.Message{ak.NewUserMessage("hi")}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(received) != 2 {
		t.Fatalf("received %d messages, want 2", len(received))
	}
	if received[0].Role != ak.RoleSystem {
		t.Errorf("first role = %q, want system", received[0].Role)
	}
	if received[0].Text() != "You are a pirate" {
		t.Errorf("system text = %q", received[0].Text())
	}
}

func TestAgent_RunInstructionsConcatenate(t *testing.T) {
	var received []ak.Message
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
			received = msgs
			return &ak.ChatResponse{
				Messages: []ak.Message{ak.NewAssistantMessage("ok")},
			}, nil
		},
	}

	agent := ak.NewAgent(client, ak.WithInstructions("Base rules"))
	_, err := agent.Run(context.Background(),
		[]ak.Message{ak.NewUserMessage("hi")},
		ak.WithRunOptions(&ak.ChatOptions{Instructions: "Extra rules"}),
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	sys := received[0].Text()
	if !strings.Contains(sys, "Base rules") || !strings.Contains(sys, "Extra rules") {
		t.Errorf("system text = %q, want both instruction sets", sys)
	}
	if strings.Index(sys, "Base rules") > strings.Index(sys, "Extra rules") {
		t.Errorf("agent instructions should come first: %q", sys)
	}
}

func TestAgent_WithToolInvocation(t *testing.T) {
	weatherTool := ak.NewTypedTool("get_weather", "Gets the weather",
		func(ctx context.Context, args struct {
			Location string `json:"location"`
		}) (any, error) {
			return "sunny in " + args.Location, nil
		},
	)

	callCount := 0
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
			callCount++
			if callCount == 1 {
				return &ak.ChatResponse{
					Messages: []ak.Message{{
						Role: ak.RoleAssistant,
						Contents: ak.Contents{
							&ak.FunctionCallContent{CallID: "c1", Name: "get_weather", Arguments: `{"location":"Seattle"}`},
						},
					}},
				}, nil
			}
			// Verify the tool result came back
			var sawResult bool
			for _, m := range msgs {
				for _, c := range m.Contents {
					if fr, ok := c.(*ak.FunctionResultContent); ok && fr.CallID == "c1" {
						sawResult = true
					}
				}
			}
			if !sawResult {
				t.Error("model never saw the tool result")
			}
			return &ak.ChatResponse{
				Messages: []ak.Message{ak.NewAssistantMessage("It is sunny in Seattle")},
			}, nil
		},
	}

	agent := ak.NewAgent(client, ak.WithTools(weatherTool))
	resp, err := agent.Run(context.Background(), []ak.Message{ak.NewUserMessage("weather in Seattle?")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if callCount != 2 {
		t.Errorf("model calls = %d, want 2", callCount)
	}
	if resp.Text() != "It is sunny in Seattle" {
		t.Errorf("text = %q", resp.Text())
	}
}

func TestAgent_WithThread(t *testing.T) {
	turn := 0
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
			turn++
			if turn == 2 {
				// Second turn should include first-turn history
				if len(msgs) < 3 {
					t.Errorf("turn 2 received %d messages, want history + new", len(msgs))
				}
			}
			return &ak.ChatResponse{
				Messages: []ak.Message{ak.NewAssistantMessage("reply")},
			}, nil
		},
	}

	agent := ak.NewAgent(client)
	thread := agent.NewThread()

	if _, err := agent.Run(context.Background(), []ak.Message{ak.NewUserMessage("first")}, ak.WithThread(thread)); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if _, err := agent.Run(context.Background(), []ak.Message{ak.NewUserMessage("second")}, ak.WithThread(thread)); err != nil {
		t.Fatalf("turn 2: %v", err)
	}

	history, err := thread.Store().ListMessages(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// two user messages + two assistant replies
	if len(history) != 4 {
		t.Errorf("history = %d messages, want 4", len(history))
	}
}

func TestAgent_ServiceManagedThread(t *testing.T) {
	var forwardedID string
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
			forwardedID = opts.ConversationID
			return &ak.ChatResponse{
				Messages:       []ak.Message{ak.NewAssistantMessage("ok")},
				ConversationID: "conv-123",
			}, nil
		},
	}

	agent := ak.NewAgent(client)
	thread := ak.NewThread()

	if _, err := agent.Run(context.Background(), []ak.Message{ak.NewUserMessage("hi")}, ak.WithThread(thread)); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if thread.ConversationID() != "conv-123" {
		t.Fatalf("conversation id = %q, want conv-123", thread.ConversationID())
	}

	// Second turn forwards the stored conversation reference
	if _, err := agent.Run(context.Background(), []ak.Message{ak.NewUserMessage("again")}, ak.WithThread(thread)); err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	if forwardedID != "conv-123" {
		t.Errorf("forwarded conversation id = %q, want conv-123", forwardedID)
	}
}

func TestAgent_RunStream(t *testing.T) {
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
			return &ak.ChatResponse{
				Messages: []ak.Message{ak.NewAssistantMessage("streamed text")},
			}, nil
		},
	}

	agent := ak.NewAgent(client)
	stream, err := agent.RunStream(context.Background(), []ak.Message{ak.NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer stream.Close()

	var text strings.Builder
	for {
		update, ok, err := stream.Next(context.Background())
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		text.WriteString(update.Text())
	}
	if text.String() != "streamed text" {
		t.Errorf("text = %q", text.String())
	}
}

func TestAgent_ClientError(t *testing.T) {
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
			return nil, errors.New("upstream boom")
		},
	}

	agent := ak.NewAgent(client)
	_, err := agent.Run(context.Background(), []ak.Message{ak.NewUserMessage("hi")})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ak.ErrExecution) {
		t.Errorf("error should wrap ErrExecution: %v", err)
	}
}

func TestAgent_ContextProviderInjection(t *testing.T) {
	cp := &recordingProvider{
		instructions: "Remember: user prefers metric units",
	}

	var received []ak.Message
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
			received = msgs
			return &ak.ChatResponse{
				Messages: []ak.Message{ak.NewAssistantMessage("ok")},
			}, nil
		},
	}

	agent := ak.NewAgent(client, ak.WithContextProvider(cp))
	if _, err := agent.Run(context.Background(), []ak.Message{ak.NewUserMessage("hi")}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(received[0].Text(), "metric units") {
		t.Errorf("provider instructions not injected: %q", received[0].Text())
	}
	if !cp.invokedCalled {
		t.Error("Invoked hook was not called")
	}
}

func TestAgent_DeclarationOnlyToolNotInvoked(t *testing.T) {
	invoked := false
	tool := ak.NewTool("manual", "Must be run by the caller", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			invoked = true
			return nil, nil
		},
		ak.WithDeclarationOnly(),
	)

	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []ak.Message, opts *ak.ChatOptions) (*ak.ChatResponse, error) {
			return &ak.ChatResponse{
				Messages: []ak.Message{{
					Role: ak.RoleAssistant,
					Contents: ak.Contents{
						&ak.FunctionCallContent{CallID: "c1", Name: "manual", Arguments: `{}`},
					},
				}},
			}, nil
		},
	}

	agent := ak.NewAgent(client, ak.WithTools(tool))
	resp, err := agent.Run(context.Background(), []ak.Message{ak.NewUserMessage("go")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if invoked {
		t.Error("declaration-only tool was invoked")
	}
	// The call is surfaced back to the caller instead.
	var sawCall bool
	for _, m := range resp.Messages {
		for _, c := range m.Contents {
			if fc, ok := c.(*ak.FunctionCallContent); ok && fc.Name == "manual" {
				sawCall = true
			}
		}
	}
	if !sawCall {
		t.Error("function call not surfaced to caller")
	}
}

// recordingProvider implements ContextProvider for testing.
type recordingProvider struct {
	instructions  string
	invokedCalled bool
}

func (p *recordingProvider) Invoking(ctx context.Context, messages []ak.Message) (*ak.InvocationContext, error) {
	return &ak.InvocationContext{Instructions: p.instructions}, nil
}

func (p *recordingProvider) Invoked(ctx context.Context, request, response []ak.Message) error {
	p.invokedCalled = true
	return nil
}

func (p *recordingProvider) ThreadCreated(ctx context.Context, threadID string) error {
	return nil
}
