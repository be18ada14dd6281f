package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihaisavezi/chatrelay/internal/catalog"
	"github.com/mihaisavezi/chatrelay/internal/chat"
	"github.com/mihaisavezi/chatrelay/internal/providers"
	"github.com/mihaisavezi/chatrelay/internal/stream"
	"github.com/mihaisavezi/chatrelay/internal/tools"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type streamerFunc func(ctx context.Context, w http.ResponseWriter, req chat.Request) error

func (f streamerFunc) Stream(ctx context.Context, w http.ResponseWriter, req chat.Request) error {
	return f(ctx, w, req)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestChatHandler_StreamsBody(t *testing.T) {
	var got chat.Request
	h := NewChatHandler(streamerFunc(func(_ context.Context, w http.ResponseWriter, req chat.Request) error {
		got = req
		out := stream.NewWriter(w)
		require.NoError(t, out.Write(stream.Text("Hi")))
		return out.Write(stream.Done())
	}), testLogger())

	body := `{"providerId":"opencode","modelId":"big-pickle","apiKey":"public","messages":[{"role":"user","content":"Hello"}]}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{\"type\":\"text\",\"content\":\"Hi\"}\n{\"type\":\"done\"}\n", rec.Body.String())
	assert.Equal(t, "big-pickle", got.ModelID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "Hello", got.Messages[0].Content.String())
}

func TestChatHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantError   string
		wantDetails string
	}{
		{
			name:      "configuration",
			err:       &providers.ConfigurationError{Msg: "missing required fields: apiKey"},
			wantCode:  http.StatusBadRequest,
			wantError: "missing required fields: apiKey",
		},
		{
			name:      "unknown model",
			err:       &providers.ConfigurationError{Err: fmt.Errorf("%w: nope", catalog.ErrModelNotFound)},
			wantCode:  http.StatusBadRequest,
			wantError: "model not found: nope",
		},
		{
			name:        "upstream",
			err:         &providers.UpstreamError{Provider: "openai", Status: http.StatusUnauthorized, Message: "bad key"},
			wantCode:    http.StatusBadGateway,
			wantError:   "Upstream provider error",
			wantDetails: "bad key",
		},
		{
			name:      "other",
			err:       errors.New("boom"),
			wantCode:  http.StatusInternalServerError,
			wantError: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewChatHandler(streamerFunc(func(context.Context, http.ResponseWriter, chat.Request) error {
				return tt.err
			}), testLogger())

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{}`)))

			assert.Equal(t, tt.wantCode, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantError, body.Error)
			assert.Contains(t, body.Details, tt.wantDetails)
		})
	}
}

func TestChatHandler_InvalidJSON(t *testing.T) {
	called := false
	h := NewChatHandler(streamerFunc(func(context.Context, http.ResponseWriter, chat.Request) error {
		called = true
		return nil
	}), testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"messages":`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "Invalid request body", decodeError(t, rec).Error)
}

type echoTool struct{}

func (echoTool) Definition() providers.ToolDefinition {
	return providers.ToolDefinition{Name: "echo", Parameters: json.RawMessage(`{"type":"object"}`)}
}

func (echoTool) Execute(_ context.Context, args json.RawMessage) (any, error) {
	var in map[string]any
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", tools.ErrInvalidArgs, err)
	}
	if in["fail"] == true {
		return nil, errors.New("echo exploded")
	}
	return in, nil
}

func TestToolHandler(t *testing.T) {
	h := NewToolHandler(tools.NewRegistry(echoTool{}), testLogger())

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantBody string
	}{
		{name: "ok", body: `{"toolName":"echo","args":{"q":"go"}}`, wantCode: http.StatusOK, wantBody: `{"result":{"q":"go"}}`},
		{name: "missing name", body: `{"args":{}}`, wantCode: http.StatusBadRequest, wantBody: `{"error":"Missing toolName or args"}`},
		{name: "missing args", body: `{"toolName":"echo"}`, wantCode: http.StatusBadRequest, wantBody: `{"error":"Missing toolName or args"}`},
		{name: "unknown", body: `{"toolName":"nope","args":{}}`, wantCode: http.StatusNotFound, wantBody: `{"error":"Unknown tool: nope"}`},
		{name: "invalid args", body: `{"toolName":"echo","args":[1]}`, wantCode: http.StatusBadRequest},
		{name: "failure", body: `{"toolName":"echo","args":{"fail":true}}`, wantCode: http.StatusInternalServerError, wantBody: `{"error":"echo exploded"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tool", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestToolHandler_BodyTooLarge(t *testing.T) {
	h := NewToolHandler(tools.NewRegistry(echoTool{}), testLogger())

	body := `{"toolName":"echo","args":{"q":"` + strings.Repeat("a", maxToolBodyBytes) + `"}}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tool", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, rec).Error)
}

func TestModelsHandler(t *testing.T) {
	h := NewModelsHandler(catalog.Builtin(), testLogger())

	decode := func(target string) map[string]catalog.Provider {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var out map[string]catalog.Provider
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out
	}

	all := decode("/models")
	assert.Contains(t, all, "openai")
	assert.Contains(t, all["opencode"].Models, "big-pickle")

	free := decode("/models?free=true")
	assert.NotContains(t, free, "openai")
	assert.Contains(t, free["opencode"].Models, "big-pickle")
	for id, p := range free {
		for mid, m := range p.Models {
			assert.True(t, m.IsFree(), "%s/%s", id, mid)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/models?free=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
