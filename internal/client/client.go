// Package client is the HTTP client for the dictmatch API, used by the
// CLI when a base URL is configured.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mkravets/dictmatch/internal/engine"
	"github.com/mkravets/dictmatch/internal/rules"
)

// Client talks to a running dictmatch server.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates an API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Match queries the server with a dictionary.
func (c *Client) Match(ctx context.Context, dict map[string]any, first bool) ([]engine.Match, error) {
	body, err := json.Marshal(map[string]any{"dictionary": dict, "first": first})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp struct {
		Matches []engine.Match `json:"matches"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/match", body, &resp); err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

// ListRules fetches every rule definition from the server.
func (c *Client) ListRules(ctx context.Context) ([]rules.Rule, error) {
	var resp struct {
		Rules []rules.Rule `json:"rules"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/rules", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rules, nil
}

// UpsertRule creates or replaces a rule on the server. The `when` map
// uses the wire format: scalar, list, or "*".
func (c *Client) UpsertRule(ctx context.Context, id string, payload any, when map[string]any) error {
	body, err := json.Marshal(map[string]any{"id": id, "payload": payload, "when": when})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/v1/rules", body, nil)
}

// DeleteRule removes a rule by ID.
func (c *Client) DeleteRule(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/rules/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
