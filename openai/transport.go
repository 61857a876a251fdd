// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	ak "github.com/microsoft/agentkit/agentkit"
)

const defaultBaseURL = "https://api.openai.com/v1"

// cognitiveServicesScope is the Azure AD scope for Azure OpenAI requests.
const cognitiveServicesScope = "https://cognitiveservices.azure.com/.default"

// transport is an unexported interface for HTTP communication.
// The default implementation uses net/http; tests inject a mock.
type transport interface {
	do(ctx context.Context, method, path string, body any) (*http.Response, error)
}

// httpTransport is the default transport using net/http.
type httpTransport struct {
	client          *http.Client
	baseURL         string
	apiKey          string
	org             string
	headers         map[string]string
	azureCredential azcore.TokenCredential
}

func newHTTPTransport(apiKey string, cfg *clientConfig) *httpTransport {
	t := &httpTransport{
		client:          cfg.httpClient,
		baseURL:         cfg.baseURL,
		apiKey:          apiKey,
		org:             cfg.organization,
		headers:         cfg.headers,
		azureCredential: cfg.azureCredential,
	}
	if t.client == nil {
		t.client = http.DefaultClient
	}
	if t.baseURL == "" {
		t.baseURL = defaultBaseURL
	}
	return t
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

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if err := t.authorize(ctx, req); err != nil {
		return nil, err
	}
	if t.org != "" {
		req.Header.Set("OpenAI-Organization", t.org)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, parseErrorResponse(resp)
	}

	return resp, nil
}

// authorize sets the request's auth header. Azure AD credentials take
// precedence over the API key; an explicit "api-key" header suppresses both.
func (t *httpTransport) authorize(ctx context.Context, req *http.Request) error {
	if t.azureCredential != nil {
		token, err := t.azureCredential.GetToken(ctx, policy.TokenRequestOptions{
			Scopes: []string{cognitiveServicesScope},
		})
		if err != nil {
			return fmt.Errorf("get azure token: %w", err)
		}
		slog.DebugContext(ctx, "using Azure AD token authentication", "token_expires_on", token.ExpiresOn)
		req.Header.Set("Authorization", "Bearer "+token.Token)
		return nil
	}
	if _, ok := t.headers["api-key"]; !ok {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	return nil
}

// parseErrorResponse reads an error response body and returns a typed error.
func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)

	msg := apiErr.Error.Message
	if msg == "" {
		msg = string(body)
	}

	svcErr := &ak.ServiceError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Code:       apiErr.Error.Code,
	}

	switch {
	case apiErr.Error.Code == "content_filter":
		svcErr.Err = ak.ErrContentFilter
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		svcErr.Err = ak.ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		svcErr.Err = ak.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		svcErr.Err = ak.ErrInvalidRequest
	default:
		svcErr.Err = ak.ErrService
	}

	return svcErr
}
