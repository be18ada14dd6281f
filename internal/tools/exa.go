package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const DefaultExaBaseURL = "https://api.exa.ai"

// ExaClient is a minimal client for the Exa search API.
type ExaClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewExaClient(apiKey, baseURL string, client *http.Client) *ExaClient {
	if baseURL == "" {
		baseURL = DefaultExaBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ExaClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Configured reports whether an API key is set.
func (c *ExaClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

type ExaResult struct {
	Title string  `json:"title"`
	URL   string  `json:"url"`
	Text  string  `json:"text"`
	Score float64 `json:"score,omitempty"`
}

type exaResponse struct {
	Results []ExaResult `json:"results"`
}

// SearchAndContents runs a neural search and returns page text with each hit.
func (c *ExaClient) SearchAndContents(ctx context.Context, query string, numResults int) ([]ExaResult, error) {
	payload := map[string]any{
		"query":         query,
		"type":          "neural",
		"useAutoprompt": true,
		"numResults":    numResults,
		"contents":      map[string]any{"text": true},
	}

	var resp exaResponse
	if err := c.post(ctx, "/search", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetContents retrieves the text of the given URLs.
func (c *ExaClient) GetContents(ctx context.Context, urls []string) ([]ExaResult, error) {
	payload := map[string]any{
		"urls": urls,
		"text": true,
	}

	var resp exaResponse
	if err := c.post(ctx, "/contents", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *ExaClient) post(ctx context.Context, path string, payload, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal exa request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create exa request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("exa request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("exa returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode exa response: %w", err)
	}
	return nil
}
