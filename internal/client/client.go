// Package client talks to a running relay: it posts chat requests, consumes
// the chunk stream and executes approved tool calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mihaisavezi/chatrelay/internal/chat"
	"github.com/mihaisavezi/chatrelay/internal/stream"
)

// TransportError is a relay rejection (Status set) or a connection failure
// (Status zero).
type TransportError struct {
	Status  int
	Message string
	Details string
	Err     error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("relay")
	if e.Status != 0 {
		fmt.Fprintf(&b, " status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Details != "" {
		b.WriteString(" (")
		b.WriteString(e.Details)
		b.WriteString(")")
	}
	if e.Message == "" && e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// Chat posts req to /chat and feeds the response stream to h. A rejected
// request or dropped connection reaches h.OnError as a *TransportError.
func (c *Client) Chat(ctx context.Context, req chat.Request, h stream.Handlers) {
	if h.Logger == nil {
		h.Logger = c.logger
	}

	resp, err := c.post(ctx, "/chat", req)
	if err != nil {
		if h.OnError != nil {
			h.OnError(err)
		}
		return
	}
	defer resp.Body.Close()

	onError := h.OnError
	h.OnError = func(err error) {
		if onError != nil {
			onError(&TransportError{Message: "stream interrupted", Err: err})
		}
	}

	stream.Consume(ctx, resp.Body, h)
}

type toolRequest struct {
	ToolName string          `json:"toolName"`
	Args     json.RawMessage `json:"args"`
}

type toolResponse struct {
	Result json.RawMessage `json:"result"`
}

// ExecuteTool runs a tool on the relay and returns its JSON result.
func (c *Client) ExecuteTool(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	resp, err := c.post(ctx, "/tool", toolRequest{ToolName: name, Args: args})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out toolResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode tool response: %w", err)
	}
	return out.Result, nil
}

// post returns the response only for 2xx statuses.
func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Message: "request failed", Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	return nil, decodeRejection(resp)
}

func decodeRejection(resp *http.Response) *TransportError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &TransportError{Status: resp.StatusCode, Message: msg}
	}

	return &TransportError{Status: resp.StatusCode, Message: body.Error, Details: body.Details}
}

// IsRejection reports whether err is a relay refusal with the given status.
func IsRejection(err error, status int) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Status == status
}
