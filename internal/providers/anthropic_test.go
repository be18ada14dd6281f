package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAnthropicSSE(w http.ResponseWriter, events ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, e := range events {
		var typed struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal([]byte(e), &typed)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", typed.Type, e)
	}
}

var anthropicToolStream = []string{
	`{"type":"message_start","message":{"id":"m1","role":"assistant"}}`,
	`{"type":"ping"}`,
	`{"type":"content_block_start","index":0,"content_block":{"type":"thinking","thinking":""}}`,
	`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"hmm"}}`,
	`{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"sig"}}`,
	`{"type":"content_block_stop","index":0}`,
	`{"type":"content_block_start","index":1,"content_block":{"type":"text","text":""}}`,
	`{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"Let me look"}}`,
	`{"type":"content_block_stop","index":1}`,
	`{"type":"content_block_start","index":2,"content_block":{"type":"tool_use","id":"toolu_1","name":"search","input":{}}}`,
	`{"type":"content_block_delta","index":2,"delta":{"type":"input_json_delta","partial_json":"{\"query\":"}}`,
	`{"type":"content_block_delta","index":2,"delta":{"type":"input_json_delta","partial_json":"\"x\"}"}}`,
	`{"type":"content_block_stop","index":2}`,
	`{"type":"message_delta","delta":{"stop_reason":"tool_use"},"usage":{"output_tokens":12}}`,
	`{"type":"message_stop"}`,
}

func TestAnthropicHandle_Stream(t *testing.T) {
	var captured anthropicRequest
	var headers http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		headers = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		writeAnthropicSSE(w, anthropicToolStream...)
	}))
	defer srv.Close()

	f := NewFactory(testRegistry(srv.URL), srv.Client(), testLogger())
	handle, err := f.NewClient("stub", "native", Credentials{APIKey: "ak"})
	require.NoError(t, err)

	temp := 0.7
	stream, err := handle.Stream(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Parts: []Part{{Kind: PartText, Text: "be brief"}}},
			userMessage("hi"),
		},
		Temperature:     &temp,
		ReasoningEffort: "medium",
	})
	require.NoError(t, err)
	defer stream.Close()

	events := collect(t, stream)

	assert.Equal(t, "ak", headers.Get("x-api-key"))
	assert.Equal(t, anthropicVersion, headers.Get("anthropic-version"))
	assert.Equal(t, "be brief", captured.System)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	require.NotNil(t, captured.Thinking)
	assert.Equal(t, 8192, captured.Thinking.BudgetTokens)
	assert.Nil(t, captured.Temperature, "temperature is dropped with thinking enabled")
	assert.Equal(t, 8192+anthropicDefaultMaxTokens, captured.MaxTokens, "max tokens leaves room past the budget")

	assert.Equal(t, []EventType{
		EventStart,
		EventReasoningDelta,
		EventTextDelta,
		EventToolInputStart,
		EventToolInputDelta,
		EventToolInputDelta,
		EventToolCall,
		EventFinish,
	}, eventTypes(events))

	call := events[6]
	assert.Equal(t, "toolu_1", call.ToolCallID)
	assert.Equal(t, "search", call.ToolName)
	assert.JSONEq(t, `{"query":"x"}`, string(call.Input))
	assert.Equal(t, "tool_use", events[7].FinishReason)
}

func TestAnthropicHandle_BrotliAndError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		fmt.Fprint(bw, "event: message_start\ndata: {\"type\":\"message_start\"}\n\n")
		fmt.Fprint(bw, "event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
		assert.NoError(t, bw.Close())

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	f := NewFactory(testRegistry(srv.URL), srv.Client(), testLogger())
	handle, err := f.NewClient("stub", "native", Credentials{APIKey: "ak"})
	require.NoError(t, err)

	stream, err := handle.Stream(context.Background(), Request{Messages: []Message{userMessage("hi")}})
	require.NoError(t, err)

	events := collect(t, stream)
	require.Len(t, events, 2)
	assert.Equal(t, EventError, events[1].Type)
	assert.EqualError(t, events[1].Err, "Overloaded")
}

func TestAnthropicHandle_MaxTokens(t *testing.T) {
	h := &anthropicHandle{}
	assert.Equal(t, anthropicDefaultMaxTokens, h.maxTokens(nil))

	requested := 512
	assert.Equal(t, 512, h.maxTokens(&requested))

	f := NewFactory(testRegistry("http://example.invalid"), nil, testLogger())
	handle, err := f.NewClient("stub", "native", Credentials{})
	require.NoError(t, err)
	assert.Equal(t, anthropicMaxTokensCap, handle.(*anthropicHandle).maxTokens(nil))
}

func TestToAnthropicMessages(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Parts: []Part{{Kind: PartText, Text: "one"}}},
		{Role: RoleSystem, Parts: []Part{{Kind: PartText, Text: "two"}}},
		userMessage("find both"),
		{Role: RoleAssistant, Parts: []Part{
			{Kind: PartText, Text: ""},
			{Kind: PartToolCall, ToolCallID: "a", ToolName: "search", Input: json.RawMessage(`{"query":"a"}`)},
			{Kind: PartToolCall, ToolCallID: "b", ToolName: "search", Input: json.RawMessage(`"bad"`)},
		}},
		{Role: RoleTool, Parts: []Part{{Kind: PartToolResult, ToolCallID: "a", Output: &ToolOutput{Kind: OutputText, Text: "A"}}}},
		{Role: RoleTool, Parts: []Part{{Kind: PartToolResult, ToolCallID: "b", Output: &ToolOutput{Kind: OutputText, Text: "B"}}}},
	}

	system, out := toAnthropicMessages(messages)

	assert.Equal(t, "one\n\ntwo", system)
	require.Len(t, out, 3)

	assistant := out[1]
	assert.Equal(t, "assistant", assistant.Role)
	require.Len(t, assistant.Content, 2, "empty text parts are skipped")
	assert.Equal(t, "tool_use", assistant.Content[0].Type)
	assert.JSONEq(t, `{}`, string(assistant.Content[1].Input))

	results := out[2]
	assert.Equal(t, "user", results.Role)
	require.Len(t, results.Content, 2, "consecutive tool results share one turn")
	assert.Equal(t, "a", results.Content[0].ToolUseID)
	assert.Equal(t, "B", results.Content[1].Content)
}
