// Copyright (c) Microsoft. All rights reserved.

package azureagents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	ak "github.com/microsoft/agentkit/agentkit"
)

const (
	defaultAPIVersion = "2025-05-01"

	// aiScope is the Azure AD scope for Foundry project requests.
	aiScope = "https://ai.azure.com/.default"
)

// Client is a REST client for the Azure AI Foundry Agents service.
// Use [NewClient] to create one.
type Client struct {
	tp         transport
	endpoint   string
	apiVersion string
	credential azcore.TokenCredential
}

// ClientOption configures a [Client].
type ClientOption func(*clientConfig)

type clientConfig struct {
	apiVersion string
	httpClient *http.Client
}

// WithAPIVersion overrides the service API version.
func WithAPIVersion(v string) ClientOption {
	return func(c *clientConfig) { c.apiVersion = v }
}

// WithClientHTTPClient provides a custom http.Client for requests.
func WithClientHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) { c.httpClient = hc }
}

// NewClient creates a Foundry Agents [Client] for the given project endpoint,
// e.g. "https://myresource.services.ai.azure.com/api/projects/myproject".
func NewClient(endpoint string, cred azcore.TokenCredential, opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ak.ErrInitialization)
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: credential is required", ak.ErrInitialization)
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.apiVersion == "" {
		cfg.apiVersion = defaultAPIVersion
	}
	if cfg.httpClient == nil {
		cfg.httpClient = http.DefaultClient
	}

	return &Client{
		tp: &httpTransport{
			client:     cfg.httpClient,
			endpoint:   strings.TrimSuffix(endpoint, "/"),
			credential: cred,
		},
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		apiVersion: cfg.apiVersion,
		credential: cred,
	}, nil
}

// Endpoint returns the project endpoint this client talks to.
func (c *Client) Endpoint() string { return c.endpoint }

// CreateAgentDefinition creates a server-side agent definition.
func (c *Client) CreateAgentDefinition(ctx context.Context, def *AgentDefinition) (*AgentDefinition, error) {
	if def == nil || def.Model == "" {
		return nil, fmt.Errorf("%w: definition model is required", ak.ErrInvalidRequest)
	}
	var created AgentDefinition
	if err := c.call(ctx, "POST", "/assistants", def, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetAgentDefinition fetches a definition by ID.
func (c *Client) GetAgentDefinition(ctx context.Context, id string) (*AgentDefinition, error) {
	var def AgentDefinition
	if err := c.call(ctx, "GET", "/assistants/"+url.PathEscape(id), nil, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// GetAgentDefinitionByName resolves a definition by its display name.
// Returns [agentkit.ErrNotFound] if no definition carries the name.
func (c *Client) GetAgentDefinitionByName(ctx context.Context, name string) (*AgentDefinition, error) {
	defs, err := c.ListAgentDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range defs {
		if defs[i].Name == name {
			return &defs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: agent %q", ak.ErrNotFound, name)
}

// ListAgentDefinitions lists all definitions in the project, following
// pagination.
func (c *Client) ListAgentDefinitions(ctx context.Context) ([]AgentDefinition, error) {
	var all []AgentDefinition
	after := ""
	for {
		path := "/assistants"
		if after != "" {
			path += "?after=" + url.QueryEscape(after)
		}
		var page agentList
		if err := c.call(ctx, "GET", path, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasMore || page.LastID == "" {
			return all, nil
		}
		after = page.LastID
	}
}

// DeleteAgentDefinition removes a server-side definition.
func (c *Client) DeleteAgentDefinition(ctx context.Context, id string) error {
	var res deleteResult
	if err := c.call(ctx, "DELETE", "/assistants/"+url.PathEscape(id), nil, &res); err != nil {
		return err
	}
	if !res.Deleted {
		return fmt.Errorf("%w: agent %q was not deleted", ak.ErrService, id)
	}
	return nil
}

// CreateThread creates a service-managed conversation thread. Attach it to a
// framework thread with [agentkit.WithThreadConversationID].
func (c *Client) CreateThread(ctx context.Context, metadata map[string]string) (*AgentThread, error) {
	body := map[string]any{}
	if len(metadata) > 0 {
		body["metadata"] = metadata
	}
	var thread AgentThread
	if err := c.call(ctx, "POST", "/threads", body, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// DeleteThread removes a service-managed thread.
func (c *Client) DeleteThread(ctx context.Context, id string) error {
	var res deleteResult
	return c.call(ctx, "DELETE", "/threads/"+url.PathEscape(id), nil, &res)
}

// call issues a request and decodes the JSON response into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	resp, err := c.tp.do(ctx, method, path+sep+"api-version="+c.apiVersion, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response body: %v", ak.ErrService, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: parse response: %v", ak.ErrInvalidResponse, err)
	}
	return nil
}

// transport is an unexported interface for HTTP communication.
// The default implementation uses net/http; tests inject a mock.
type transport interface {
	do(ctx context.Context, method, path string, body any) (*http.Response, error)
}

type httpTransport struct {
	client     *http.Client
	endpoint   string
	credential azcore.TokenCredential
}

func (t *httpTransport) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.endpoint+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := t.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{aiScope},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get token: %v", ak.ErrAuth, err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, parseServiceError(resp)
	}
	return resp, nil
}

// parseServiceError maps an error response onto the sentinel tree.
func parseServiceError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(data, &apiErr)

	msg := apiErr.Error.Message
	if msg == "" {
		msg = string(data)
	}

	svcErr := &ak.ServiceError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Code:       apiErr.Error.Code,
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		svcErr.Err = ak.ErrAuth
	case http.StatusNotFound:
		svcErr.Err = ak.ErrNotFound
	case http.StatusBadRequest:
		svcErr.Err = ak.ErrInvalidRequest
	default:
		svcErr.Err = ak.ErrService
	}
	return svcErr
}
