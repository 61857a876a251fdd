// Copyright (c) Microsoft. All rights reserved.

package a2a

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	ak "github.com/microsoft/agentkit/agentkit"
)

// WellKnownCardPath is the standard location of an agent's card.
const WellKnownCardPath = "/.well-known/agent-card.json"

// TransportProtocol identifies a transport a remote agent supports.
// Custom protocols are allowed; do not treat this as a closed enum.
type TransportProtocol string

const (
	TransportJSONRPC  TransportProtocol = "JSONRPC"
	TransportGRPC     TransportProtocol = "GRPC"
	TransportHTTPJSON TransportProtocol = "HTTP+JSON"
)

// AgentCard is the self-describing manifest a remote A2A agent publishes.
type AgentCard struct {
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	URL                  string            `json:"url"`
	Version              string            `json:"version"`
	DocumentationURL     string            `json:"documentationUrl,omitempty"`
	IconURL              string            `json:"iconUrl,omitempty"`
	Provider             *AgentProvider    `json:"provider,omitempty"`
	Capabilities         AgentCapabilities `json:"capabilities"`
	DefaultInputModes    []string          `json:"defaultInputModes"`
	DefaultOutputModes   []string          `json:"defaultOutputModes"`
	Skills               []AgentSkill      `json:"skills"`
	PreferredTransport   TransportProtocol `json:"preferredTransport,omitempty"`
	AdditionalInterfaces []AgentInterface  `json:"additionalInterfaces,omitempty"`
}

// AgentProvider names the organization behind a remote agent.
type AgentProvider struct {
	Organization string `json:"organization"`
	URL          string `json:"url"`
}

// AgentCapabilities declares the optional protocol features an agent supports.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming,omitempty"`
	PushNotifications bool `json:"pushNotifications,omitempty"`
}

// AgentSkill is a distinct capability the remote agent advertises.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// AgentInterface combines a URL with the transport available at it.
type AgentInterface struct {
	URL       string            `json:"url"`
	Transport TransportProtocol `json:"transport"`
}

// ResolveAgentCard fetches the agent card published at the base URL's
// well-known path.
func ResolveAgentCard(ctx context.Context, baseURL string, httpClient *http.Client) (*AgentCard, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ak.ErrInitialization)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	url := strings.TrimSuffix(baseURL, "/") + WellKnownCardPath
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: no agent card at %s", ak.ErrNotFound, url)
	}
	if resp.StatusCode >= 400 {
		return nil, &ak.ServiceError{
			StatusCode: resp.StatusCode,
			Message:    "fetch agent card",
			Err:        ak.ErrService,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read agent card: %v", ak.ErrService, err)
	}

	var card AgentCard
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, fmt.Errorf("%w: parse agent card: %v", ak.ErrInvalidResponse, err)
	}
	if card.Name == "" || card.URL == "" {
		return nil, fmt.Errorf("%w: agent card missing name or url", ak.ErrInvalidResponse)
	}
	return &card, nil
}

// Endpoint returns the JSON-RPC endpoint declared by the card, preferring
// an additional interface that explicitly offers JSONRPC.
func (c *AgentCard) Endpoint() string {
	for _, iface := range c.AdditionalInterfaces {
		if iface.Transport == TransportJSONRPC {
			return iface.URL
		}
	}
	return c.URL
}
