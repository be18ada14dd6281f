package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihaisavezi/chatrelay/internal/catalog"
	"github.com/mihaisavezi/chatrelay/internal/chat"
	"github.com/mihaisavezi/chatrelay/internal/stream"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRelay answers /chat with one scripted turn per request and /tool with
// a fixed result.
type fakeRelay struct {
	t     *testing.T
	mu    sync.Mutex
	turns [][]stream.Chunk
	seen  []chat.Request
	tools []string
}

func (f *fakeRelay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/chat":
		var req chat.Request
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		f.seen = append(f.seen, req)

		if len(f.turns) == 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"missing required fields: messages","details":"none"}`)
			return
		}
		turn := f.turns[0]
		f.turns = f.turns[1:]

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		out := stream.NewWriter(w)
		for _, c := range turn {
			assert.NoError(f.t, out.Write(c))
		}

	case "/tool":
		var req toolRequest
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		f.tools = append(f.tools, req.ToolName)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"result":{"results":[{"title":"Go","url":"https://go.dev"}],"query":%s}}`, req.Args)

	default:
		http.NotFound(w, r)
	}
}

func newSession(t *testing.T, turns ...[]stream.Chunk) (*Session, *fakeRelay, *[]string) {
	t.Helper()

	relay := &fakeRelay{t: t, turns: turns}
	srv := httptest.NewServer(relay)
	t.Cleanup(srv.Close)

	var notices []string
	s := NewSession(New(srv.URL, srv.Client(), quietLogger()), chat.Request{
		ProviderID: "opencode",
		ModelID:    "big-pickle",
		APIKey:     catalog.PublicAPIKey,
	}, quietLogger(), WithNotice(func(msg string) { notices = append(notices, msg) }))

	return s, relay, &notices
}

func TestSession_BigPickleHello(t *testing.T) {
	s, relay, notices := newSession(t, []stream.Chunk{
		stream.Reasoning("thinking"),
		stream.Text("Hi"),
		stream.Text(" there!"),
		stream.Done(),
	})

	var seen []stream.ChunkType
	entry, err := s.Send(context.Background(), "Hello", func(c stream.Chunk) { seen = append(seen, c.Type) })
	require.NoError(t, err)

	assert.Equal(t, stream.RoleAssistant, entry.Role)
	assert.Equal(t, "Hi there!", entry.Content)
	assert.Equal(t, "thinking", entry.Reasoning)
	assert.True(t, entry.Frozen)
	assert.Len(t, entry.Raw, 4)
	assert.Equal(t, []stream.ChunkType{stream.TypeReasoning, stream.TypeText, stream.TypeText, stream.TypeDone}, seen)
	assert.Empty(t, *notices)

	require.Len(t, relay.seen, 1)
	req := relay.seen[0]
	assert.Equal(t, "opencode", req.ProviderID)
	assert.Equal(t, "big-pickle", req.ModelID)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, chat.RoleUser, req.Messages[0].Role)
	assert.Equal(t, "Hello", req.Messages[0].Content.String())
}

func TestSession_RateLimitedMidStream(t *testing.T) {
	s, relay, notices := newSession(t,
		[]stream.Chunk{stream.Text("partial"), stream.Error("rate limited")},
		[]stream.Chunk{stream.Text("ok"), stream.Done()},
	)

	entry, err := s.Send(context.Background(), "Hello", nil)
	require.NoError(t, err)

	assert.Equal(t, stream.RoleError, entry.Role)
	assert.Equal(t, "rate limited", entry.Content)
	assert.True(t, entry.Frozen)
	assert.Equal(t, []string{"rate limited"}, *notices)

	_, err = s.Send(context.Background(), "again", nil)
	require.NoError(t, err)

	// The failed turn is not replayed.
	require.Len(t, relay.seen, 2)
	msgs := relay.seen[1].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hello", msgs[0].Content.String())
	assert.Equal(t, "again", msgs[1].Content.String())
}

func TestSession_ToolCallPendingThenExecuted(t *testing.T) {
	args := json.RawMessage(`{"query":"golang"}`)
	s, relay, _ := newSession(t,
		[]stream.Chunk{stream.ToolCall("t1", "search", args), stream.Done()},
		[]stream.Chunk{stream.Text("Go is a language."), stream.Done()},
	)

	entry, err := s.Send(context.Background(), "search golang", nil)
	require.NoError(t, err)

	require.Len(t, entry.ToolCalls, 1)
	assert.Equal(t, stream.ToolCallPending, entry.ToolCalls[0].State)

	pending := s.PendingToolCalls()
	require.Len(t, pending, 1)
	assert.Equal(t, "t1", pending[0].ID)

	toolEntry, err := s.ExecuteTool(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, stream.RoleTool, toolEntry.Role)
	assert.Equal(t, "t1", toolEntry.ToolCallID)

	assert.Equal(t, stream.ToolCallExecuted, entry.ToolCall("t1").State)
	assert.Empty(t, s.PendingToolCalls())

	_, err = s.ExecuteTool(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrToolCallNotPending)
	assert.Equal(t, []string{"search"}, relay.tools)

	reply, err := s.Continue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Go is a language.", reply.Content)

	msgs := relay.seen[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, chat.RoleAssistant, msgs[1].Role)
	require.Len(t, msgs[1].ToolCalls, 1)
	assert.Equal(t, "t1", msgs[1].ToolCalls[0].ID)
	assert.JSONEq(t, string(args), string(msgs[1].ToolCalls[0].Arguments))
	assert.Equal(t, chat.RoleTool, msgs[2].Role)
	assert.Equal(t, "t1", msgs[2].ToolCallID)
	assert.Equal(t, chat.ContentValue, msgs[2].Content.Kind())
}

func TestClient_Rejection(t *testing.T) {
	s, _, notices := newSession(t)

	entry, err := s.Send(context.Background(), "Hello", nil)
	require.Error(t, err)
	assert.True(t, IsRejection(err, http.StatusBadRequest))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "missing required fields: messages", te.Message)
	assert.Equal(t, "none", te.Details)

	assert.Equal(t, stream.RoleError, entry.Role)
	assert.Len(t, *notices, 1)
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, nil, quietLogger())

	var got error
	completed := false
	c.Chat(context.Background(), chat.Request{}, stream.Handlers{
		OnComplete: func() { completed = true },
		OnError:    func(err error) { got = err },
	})

	assert.False(t, completed)
	var te *TransportError
	require.ErrorAs(t, got, &te)
	assert.Equal(t, 0, te.Status)
}

func TestClient_ExecuteToolNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"Unknown tool: nope"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client(), quietLogger()).ExecuteTool(context.Background(), "nope", nil)
	assert.True(t, IsRejection(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "Unknown tool: nope")
}
