// Package apiclient provides CLI access to a running easeld instance over
// its HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"easel/internal/api"
	"easel/internal/config"
	"easel/internal/daemon"
	"easel/internal/provider"
)

// Client talks to the easeld HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New constructs a client for the daemon at bind (host:port or full URL).
// Refresh calls can run for minutes, so the transport carries no overall
// timeout; per-call contexts bound everything else.
func New(bind, token string) *Client {
	base := strings.TrimRight(strings.TrimSpace(bind), "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: base,
		token:   token,
		http:    &http.Client{},
	}
}

// APIError carries a non-2xx response in structured form.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []config.FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, field.Error())
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, "; "))
}

// GetConfig fetches the effective settings snapshot.
func (c *Client) GetConfig(ctx context.Context) (*api.SettingsResponse, error) {
	var out api.SettingsResponse
	if err := c.call(ctx, http.MethodGet, "/config", nil, &out, 10*time.Second); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateConfig applies a partial settings patch.
func (c *Client) UpdateConfig(ctx context.Context, patch map[string]string) (*api.SettingsResponse, error) {
	var out api.SettingsResponse
	if err := c.call(ctx, http.MethodPost, "/config", patch, &out, 10*time.Second); err != nil {
		return nil, err
	}
	return &out, nil
}

// SyncConfig forces a file-to-store resolution.
func (c *Client) SyncConfig(ctx context.Context) (*api.SettingsResponse, error) {
	var out api.SettingsResponse
	if err := c.call(ctx, http.MethodPost, "/config/sync", map[string]string{}, &out, 10*time.Second); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProviders returns the registered provider descriptors.
func (c *Client) ListProviders(ctx context.Context) ([]provider.Descriptor, error) {
	var out api.ProviderList
	if err := c.call(ctx, http.MethodGet, "/providers", nil, &out, 10*time.Second); err != nil {
		return nil, err
	}
	return out.Providers, nil
}

// GetProviderConfig returns a provider's stored (masked) configuration.
func (c *Client) GetProviderConfig(ctx context.Context, name string) (*api.ProviderConfigResponse, error) {
	var out api.ProviderConfigResponse
	if err := c.call(ctx, http.MethodGet, "/providers/"+name+"/config", nil, &out, 10*time.Second); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetProviderConfig stores provider configuration fields.
func (c *Client) SetProviderConfig(ctx context.Context, name string, values map[string]string) (*api.ProviderConfigResponse, error) {
	var out api.ProviderConfigResponse
	if err := c.call(ctx, http.MethodPost, "/providers/"+name+"/config", values, &out, 10*time.Second); err != nil {
		return nil, err
	}
	return &out, nil
}

// TestProvider runs the provider's connectivity check.
func (c *Client) TestProvider(ctx context.Context, name string) (*api.TestResult, error) {
	var out api.TestResult
	if err := c.call(ctx, http.MethodPost, "/providers/"+name+"/test", map[string]string{}, &out, 30*time.Second); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshProvider downloads the provider's images; this can take minutes.
func (c *Client) RefreshProvider(ctx context.Context, name string) (*provider.Outcome, error) {
	var out provider.Outcome
	if err := c.call(ctx, http.MethodPost, "/providers/"+name+"/refresh", map[string]string{}, &out, 0); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (*daemon.Status, error) {
	var out daemon.Status
	if err := c.call(ctx, http.MethodGet, "/api/status", nil, &out, 5*time.Second); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, method, path string, body any, out any, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("easeld unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		var payload struct {
			Error  string              `json:"error"`
			Fields []config.FieldError `json:"fields"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Fields = payload.Fields
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
