package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
)

// openAIHandle speaks the OpenAI-compatible chat completions protocol, which
// is the default for every catalog provider.
type openAIHandle struct {
	endpointConfig
}

type openAIRequest struct {
	Model           string               `json:"model"`
	Messages        []openAIMessage      `json:"messages"`
	Stream          bool                 `json:"stream"`
	StreamOptions   *openAIStreamOptions `json:"stream_options,omitempty"`
	Temperature     *float64             `json:"temperature,omitempty"`
	MaxTokens       *int                 `json:"max_tokens,omitempty"`
	Tools           []openAITool         `json:"tools,omitempty"`
	ReasoningEffort string               `json:"reasoning_effort,omitempty"`
}

type openAIStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Name       string           `json:"name,omitempty"`
}

type openAIToolCall struct {
	Index    *int               `json:"index,omitempty"`
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type openAIChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index int `json:"index"`
		Delta struct {
			Role             string           `json:"role"`
			Content          string           `json:"content"`
			ReasoningContent string           `json:"reasoning_content"`
			Reasoning        string           `json:"reasoning"`
			ToolCalls        []openAIToolCall `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error json.RawMessage `json:"error"`
}

func (h *openAIHandle) Stream(ctx context.Context, req Request) (EventStream, error) {
	if len(req.Messages) == 0 {
		return nil, &ConfigurationError{Err: errEmptyMessages}
	}

	payload := openAIRequest{
		Model:           h.model.ID,
		Messages:        toOpenAIMessages(req.Messages),
		Stream:          true,
		StreamOptions:   &openAIStreamOptions{IncludeUsage: true},
		Temperature:     req.Temperature,
		MaxTokens:       req.MaxOutputTokens,
		Tools:           toOpenAITools(req.Tools),
		ReasoningEffort: req.ReasoningEffort,
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+h.apiKey)

	h.logger.Debug("opening stream", "messages", len(payload.Messages), "tools", len(payload.Tools), "effort", payload.ReasoningEffort)

	resp, err := postJSON(ctx, h.client, h.provider, h.baseURL+"/chat/completions", headers, payload)
	if err != nil {
		return nil, err
	}

	body, err := decompressBody(resp)
	if err != nil {
		resp.Body.Close()
		return nil, &UpstreamError{Provider: h.provider, Status: resp.StatusCode, Err: err}
	}

	return &openAIStream{
		handle: h,
		body:   body,
		sse:    newSSEReader(body),
		calls:  make(map[int]*toolCallState),
	}, nil
}

func toOpenAIMessages(messages []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			msg := openAIMessage{Role: string(m.Role)}
			if text := m.Text(); text != "" {
				msg.Content = &text
			}
			for _, p := range m.Parts {
				if p.Kind != PartToolCall {
					continue
				}
				args := string(p.Input)
				if args == "" {
					args = "{}"
				}
				msg.ToolCalls = append(msg.ToolCalls, openAIToolCall{
					ID:       p.ToolCallID,
					Type:     "function",
					Function: openAIFunctionCall{Name: p.ToolName, Arguments: args},
				})
			}
			if msg.Content == nil && len(msg.ToolCalls) == 0 {
				empty := ""
				msg.Content = &empty
			}
			out = append(out, msg)

		case RoleTool:
			// One wire message per result; the protocol has no multi-result turn.
			for _, p := range m.Parts {
				if p.Kind != PartToolResult {
					continue
				}
				content := ""
				if p.Output != nil {
					content = p.Output.String()
				}
				out = append(out, openAIMessage{
					Role:       string(RoleTool),
					Content:    &content,
					ToolCallID: p.ToolCallID,
					Name:       p.ToolName,
				})
			}

		default:
			text := m.Text()
			out = append(out, openAIMessage{Role: string(m.Role), Content: &text})
		}
	}

	return out
}

func toOpenAITools(tools []ToolDefinition) []openAITool {
	if len(tools) == 0 {
		return nil
	}

	out := make([]openAITool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openAITool{
			Type: "function",
			Function: openAIFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// toolCallState accumulates one streamed tool call, keyed by the choice's
// tool call index.
type toolCallState struct {
	ID        string
	Name      string
	Arguments strings.Builder
	Started   bool
}

type openAIStream struct {
	handle  *openAIHandle
	body    io.ReadCloser
	sse     *sseReader
	pending []Event
	calls   map[int]*toolCallState

	started  bool
	finished bool
	done     bool
	closed   bool
}

func (s *openAIStream) Next() (Event, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}

		if s.done {
			return Event{}, io.EOF
		}

		raw, err := s.sse.Next()
		if errors.Is(err, io.EOF) {
			s.flushToolCalls()
			s.done = true
			continue
		}
		if err != nil {
			s.done = true
			return Event{}, &UpstreamError{Provider: s.handle.provider, Err: err}
		}

		data := strings.TrimSpace(raw.Data)
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			s.flushToolCalls()
			s.done = true
			continue
		}

		s.handleChunk([]byte(data))
	}
}

func (s *openAIStream) handleChunk(data []byte) {
	var chunk openAIChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		s.handle.logger.Warn("skipping malformed stream chunk", "error", err)
		return
	}

	if len(chunk.Error) > 0 && string(chunk.Error) != "null" {
		s.pending = append(s.pending, Event{
			Type: EventError,
			Err:  errors.New(extractErrorMessage(data)),
		})
		return
	}

	if !s.started {
		s.started = true
		s.pending = append(s.pending, Event{Type: EventStart})
	}

	for _, choice := range chunk.Choices {
		delta := choice.Delta

		if reasoning := delta.ReasoningContent + delta.Reasoning; reasoning != "" {
			s.pending = append(s.pending, Event{Type: EventReasoningDelta, Text: reasoning})
		}
		if delta.Content != "" {
			s.pending = append(s.pending, Event{Type: EventTextDelta, Text: delta.Content})
		}
		for i, tc := range delta.ToolCalls {
			s.handleToolCallDelta(i, tc)
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" && !s.finished {
			s.flushToolCalls()
			s.finished = true
			s.pending = append(s.pending, Event{Type: EventFinish, FinishReason: *choice.FinishReason})
		}
	}
}

func (s *openAIStream) handleToolCallDelta(position int, tc openAIToolCall) {
	index := position
	if tc.Index != nil {
		index = *tc.Index
	}

	state, ok := s.calls[index]
	if !ok {
		state = &toolCallState{}
		s.calls[index] = state
	}
	if tc.ID != "" {
		state.ID = tc.ID
	}
	if tc.Function.Name != "" {
		state.Name = tc.Function.Name
	}

	if !state.Started && state.ID != "" && state.Name != "" {
		state.Started = true
		s.pending = append(s.pending, Event{Type: EventToolInputStart, ToolCallID: state.ID, ToolName: state.Name})
	}

	if tc.Function.Arguments != "" {
		state.Arguments.WriteString(tc.Function.Arguments)
		s.pending = append(s.pending, Event{Type: EventToolInputDelta, ToolCallID: state.ID, Text: tc.Function.Arguments})
	}
}

// flushToolCalls materializes every accumulated call in index order.
func (s *openAIStream) flushToolCalls() {
	if len(s.calls) == 0 {
		return
	}

	indexes := make([]int, 0, len(s.calls))
	for i := range s.calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	for _, i := range indexes {
		state := s.calls[i]
		if state.Name == "" {
			continue
		}
		s.pending = append(s.pending, Event{
			Type:       EventToolCall,
			ToolCallID: state.ID,
			ToolName:   state.Name,
			Input:      normalizeToolInput(state.Arguments.String()),
		})
	}

	s.calls = make(map[int]*toolCallState)
}

func (s *openAIStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// normalizeToolInput returns args as JSON. Empty input becomes {} and input
// that is not valid JSON is carried as a JSON string.
func normalizeToolInput(args string) json.RawMessage {
	args = strings.TrimSpace(args)
	if args == "" {
		return json.RawMessage("{}")
	}
	if json.Valid([]byte(args)) {
		return json.RawMessage(args)
	}
	quoted, err := json.Marshal(args)
	if err != nil {
		return json.RawMessage("{}")
	}
	return quoted
}

var (
	_ ModelHandle = (*openAIHandle)(nil)
	_ EventStream = (*openAIStream)(nil)
)
