// Copyright (c) Microsoft. All rights reserved.

package a2a_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/agentkit/a2a"
	ak "github.com/microsoft/agentkit/agentkit"
)

func testCard(url string) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:               "Recipe Agent",
		Description:        "Helps with recipes and cooking.",
		URL:                url,
		Version:            "1.0.0",
		Capabilities:       a2a.AgentCapabilities{Streaming: false},
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Skills: []a2a.AgentSkill{{
			ID:          "find-recipe",
			Name:        "Find recipe",
			Description: "Finds a recipe for a dish.",
			Tags:        []string{"cooking"},
		}},
	}
}

func TestResolveAgentCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, a2a.WellKnownCardPath, r.URL.Path)
		_ = json.NewEncoder(w).Encode(testCard("http://example.com/a2a"))
	}))
	defer srv.Close()

	card, err := a2a.ResolveAgentCard(context.Background(), srv.URL, srv.Client())
	require.NoError(t, err)
	assert.Equal(t, "Recipe Agent", card.Name)
	assert.Equal(t, "http://example.com/a2a", card.URL)
	assert.Len(t, card.Skills, 1)
}

func TestResolveAgentCard_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := a2a.ResolveAgentCard(context.Background(), srv.URL, srv.Client())
	assert.ErrorIs(t, err, ak.ErrNotFound)
}

func TestResolveAgentCard_InvalidCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"description":"no name or url"}`))
	}))
	defer srv.Close()

	_, err := a2a.ResolveAgentCard(context.Background(), srv.URL, srv.Client())
	assert.ErrorIs(t, err, ak.ErrInvalidResponse)
}

func TestCard_Endpoint_PrefersJSONRPCInterface(t *testing.T) {
	card := testCard("grpc://example.com")
	card.AdditionalInterfaces = []a2a.AgentInterface{
		{URL: "grpc://example.com", Transport: a2a.TransportGRPC},
		{URL: "http://example.com/rpc", Transport: a2a.TransportJSONRPC},
	}
	assert.Equal(t, "http://example.com/rpc", card.Endpoint())
}

func TestClient_Response_MessageResult(t *testing.T) {
	var rpcReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rpcReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      rpcReq["id"],
			"result": map[string]any{
				"kind":      "message",
				"role":      "agent",
				"messageId": "m-42",
				"contextId": "ctx-7",
				"parts": []map[string]any{
					{"kind": "text", "text": "Use fresh basil."},
				},
			},
		})
	}))
	defer srv.Close()

	client, err := a2a.NewClient(srv.URL, a2a.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	resp, err := client.Response(context.Background(), []ak.Message{ak.NewUserMessage("Pesto tips?")}, nil)
	require.NoError(t, err)

	assert.Equal(t, "message/send", rpcReq["method"])
	params := rpcReq["params"].(map[string]any)
	msg := params["message"].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.NotEmpty(t, msg["messageId"])

	assert.Equal(t, "Use fresh basil.", resp.Text())
	assert.Equal(t, "m-42", resp.ResponseID)
	assert.Equal(t, "ctx-7", resp.ConversationID)
}

func TestClient_Response_TaskResultWithArtifacts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      "1",
			"result": map[string]any{
				"kind":      "task",
				"id":        "task-9",
				"contextId": "ctx-9",
				"status":    map[string]any{"state": "completed"},
				"artifacts": []map[string]any{{
					"artifactId": "a-1",
					"parts": []map[string]any{
						{"kind": "text", "text": "Recipe: "},
						{"kind": "text", "text": "pesto alla genovese"},
					},
				}},
			},
		})
	}))
	defer srv.Close()

	client, err := a2a.NewClient(srv.URL, a2a.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	resp, err := client.Response(context.Background(), []ak.Message{ak.NewUserMessage("Pesto recipe")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Recipe: pesto alla genovese", resp.Text())
	assert.Equal(t, "task-9", resp.ResponseID)
	assert.Equal(t, "ctx-9", resp.ConversationID)
}

func TestClient_Response_ContextIDForwarded(t *testing.T) {
	var rpcReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rpcReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      rpcReq["id"],
			"result": map[string]any{
				"kind": "message", "role": "agent", "messageId": "m-2",
				"contextId": "ctx-7",
				"parts":     []map[string]any{{"kind": "text", "text": "More tips."}},
			},
		})
	}))
	defer srv.Close()

	client, err := a2a.NewClient(srv.URL, a2a.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	opts := &ak.ChatOptions{ConversationID: "ctx-7"}
	_, err = client.Response(context.Background(), []ak.Message{ak.NewUserMessage("And?")}, opts)
	require.NoError(t, err)

	msg := rpcReq["params"].(map[string]any)["message"].(map[string]any)
	assert.Equal(t, "ctx-7", msg["contextId"])
}

func TestClient_Response_RPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      "1",
			"error":   map[string]any{"code": -32600, "message": "invalid request"},
		})
	}))
	defer srv.Close()

	client, err := a2a.NewClient(srv.URL, a2a.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = client.Response(context.Background(), []ak.Message{ak.NewUserMessage("Hi")}, nil)
	assert.ErrorIs(t, err, ak.ErrService)
	assert.ErrorContains(t, err, "invalid request")
}

func TestClient_Response_FailedTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      "1",
			"result": map[string]any{
				"kind": "task", "id": "task-1", "contextId": "ctx-1",
				"status": map[string]any{"state": "failed"},
			},
		})
	}))
	defer srv.Close()

	client, err := a2a.NewClient(srv.URL, a2a.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = client.Response(context.Background(), []ak.Message{ak.NewUserMessage("Hi")}, nil)
	assert.ErrorIs(t, err, ak.ErrService)
}

func TestClient_Response_EmptyInput(t *testing.T) {
	client, err := a2a.NewClient("http://example.com/rpc")
	require.NoError(t, err)

	_, err = client.Response(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ak.ErrInvalidRequest)
}

func TestNewClientFromCard(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc(a2a.WellKnownCardPath, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(testCard(srv.URL + "/rpc"))
	})
	mux.HandleFunc("/rpc", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      "1",
			"result": map[string]any{
				"kind": "message", "role": "agent", "messageId": "m-1",
				"contextId": "ctx-1",
				"parts":     []map[string]any{{"kind": "text", "text": "Hello from afar."}},
			},
		})
	})

	client, err := a2a.NewClientFromCard(context.Background(), srv.URL, a2a.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	require.NotNil(t, client.Card())
	assert.Equal(t, "Recipe Agent", client.Card().Name)

	resp, err := client.Response(context.Background(), []ak.Message{ak.NewUserMessage("Hi")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello from afar.", resp.Text())
}

func TestClient_StreamResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      "1",
			"result": map[string]any{
				"kind": "message", "role": "agent", "messageId": "m-3",
				"contextId": "ctx-3",
				"parts":     []map[string]any{{"kind": "text", "text": "Streamed reply."}},
			},
		})
	}))
	defer srv.Close()

	client, err := a2a.NewClient(srv.URL, a2a.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	stream, err := client.StreamResponse(context.Background(), []ak.Message{ak.NewUserMessage("Hi")}, nil)
	require.NoError(t, err)

	updates, err := stream.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "Streamed reply.", updates[0].Text())
	assert.Equal(t, "ctx-3", updates[0].ConversationID)
}
