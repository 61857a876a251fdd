// Copyright (c) Microsoft. All rights reserved.

package agentkit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// InvocationConfig controls the function invocation loop behavior.
type InvocationConfig struct {
	// MaxIterations is the maximum number of model round-trips for tool calling.
	// Default: 40.
	MaxIterations int

	// MaxConsecutiveErrors is the maximum number of consecutive tool errors
	// before aborting. Default: 3.
	MaxConsecutiveErrors int

	// MaxConcurrency caps how many tool calls from a single response are
	// invoked in parallel. Default: 4.
	MaxConcurrency int

	// TerminateOnUnknown aborts if the model calls an unknown tool.
	TerminateOnUnknown bool

	// IncludeDetailedErrors includes full error text in tool results sent
	// back to the model. When false, a generic error message is used.
	IncludeDetailedErrors bool
}

// DefaultInvocationConfig returns the default configuration.
func DefaultInvocationConfig() InvocationConfig {
	return InvocationConfig{
		MaxIterations:        40,
		MaxConsecutiveErrors: 3,
		MaxConcurrency:       4,
	}
}

// invokeFunctions runs the tool-calling loop: extract function_call content
// from the response, invoke matched tools, append results, and re-call the
// model through handler. Multiple calls in one response run concurrently.
//
// It returns the final ChatResponse after all tool calls are resolved (or limits hit).
func invokeFunctions(
	ctx context.Context,
	handler ChatHandler,
	messages []Message,
	opts *ChatOptions,
	config InvocationConfig,
	fnMiddleware []FunctionMiddleware,
) (*ChatResponse, error) {
	if config.MaxIterations <= 0 {
		config.MaxIterations = 40
	}
	if config.MaxConsecutiveErrors <= 0 {
		config.MaxConsecutiveErrors = 3
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}

	// Build tool lookup
	toolMap := make(map[string]Tool, len(opts.Tools))
	for _, t := range opts.Tools {
		toolMap[t.Name()] = t
	}

	consecutiveErrors := 0

	for iteration := 0; iteration < config.MaxIterations; iteration++ {
		resp, err := handler(ctx, messages, opts)
		if err != nil {
			return nil, err
		}

		calls := extractFunctionCalls(resp)
		if len(calls) == 0 {
			return resp, nil
		}

		// Approval and declaration-only tools short-circuit the loop before
		// anything is invoked.
		for _, call := range calls {
			tool, ok := toolMap[call.Name]
			if !ok {
				continue
			}
			if tool.Approval() == ApprovalAlways {
				resp.Messages = append(resp.Messages, Message{
					Role: RoleAssistant,
					Contents: Contents{&ApprovalRequestContent{
						CallID:    call.CallID,
						Name:      call.Name,
						Arguments: call.Arguments,
					}},
				})
				return resp, nil
			}
			if tool.DeclarationOnly() {
				return resp, nil
			}
		}

		resultMessages, errCount, err := invokeCalls(ctx, calls, toolMap, config, fnMiddleware)
		if err != nil {
			return nil, err
		}
		if errCount > 0 {
			consecutiveErrors += errCount
			if consecutiveErrors >= config.MaxConsecutiveErrors {
				return nil, fmt.Errorf("%w: max consecutive errors reached (%d)", ErrToolExecution, consecutiveErrors)
			}
		} else {
			consecutiveErrors = 0
		}

		// Append assistant message with tool calls and tool results
		messages = append(messages, resp.Messages...)
		messages = append(messages, resultMessages...)
	}

	return nil, fmt.Errorf("%w: max iterations reached (%d)", ErrExecution, config.MaxIterations)
}

// invokeCalls runs a batch of tool calls concurrently and returns result
// messages in call order, plus the number of failed invocations.
func invokeCalls(
	ctx context.Context,
	calls []functionCall,
	toolMap map[string]Tool,
	config InvocationConfig,
	fnMiddleware []FunctionMiddleware,
) ([]Message, int, error) {
	results := make([]Message, len(calls))
	var errCount atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.MaxConcurrency)

	for i, call := range calls {
		tool, ok := toolMap[call.Name]
		if !ok {
			if config.TerminateOnUnknown {
				return nil, 0, fmt.Errorf("%w: unknown tool %q", ErrToolExecution, call.Name)
			}
			slog.WarnContext(ctx, "unknown tool called", "tool", call.Name)
			results[i] = NewToolMessage(call.CallID, "error: unknown tool")
			errCount.Add(1)
			continue
		}

		g.Go(func() error {
			result, invokeErr := invokeToolWithMiddleware(gctx, tool, json.RawMessage(call.Arguments), fnMiddleware)
			if invokeErr != nil {
				slog.WarnContext(gctx, "tool invocation error",
					"tool", call.Name,
					"error", invokeErr,
				)
				errCount.Add(1)
				errMsg := "error invoking tool"
				if config.IncludeDetailedErrors {
					errMsg = invokeErr.Error()
				}
				results[i] = NewToolMessage(call.CallID, errMsg)
				return nil
			}
			results[i] = NewToolMessage(call.CallID, result)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return results, int(errCount.Load()), nil
}

// functionCall is an extracted function call from a response.
type functionCall struct {
	CallID    string
	Name      string
	Arguments string
}

// extractFunctionCalls finds all FunctionCallContent in a response's messages.
func extractFunctionCalls(resp *ChatResponse) []functionCall {
	var calls []functionCall
	for _, msg := range resp.Messages {
		for _, c := range msg.Contents {
			if fc, ok := c.(*FunctionCallContent); ok {
				calls = append(calls, functionCall{
					CallID:    fc.CallID,
					Name:      fc.Name,
					Arguments: fc.Arguments,
				})
			}
		}
	}
	return calls
}

// invokeToolWithMiddleware runs the tool through the function middleware chain.
func invokeToolWithMiddleware(ctx context.Context, tool Tool, args json.RawMessage, mws []FunctionMiddleware) (any, error) {
	handler := func(ctx context.Context, t Tool, a json.RawMessage) (any, error) {
		return t.Invoke(ctx, a)
	}
	final := chainFunctionMiddleware(handler, mws...)
	return final(ctx, tool, args)
}
