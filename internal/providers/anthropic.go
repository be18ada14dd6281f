package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

const (
	anthropicVersion          = "2023-06-01"
	anthropicDefaultMaxTokens = 4096
	anthropicMaxTokensCap     = 8192
)

// anthropicThinkingBudgets maps effort levels onto extended thinking budgets.
// "none" and unknown levels disable thinking.
var anthropicThinkingBudgets = map[string]int{
	"minimal": 1024,
	"low":     2048,
	"medium":  8192,
	"high":    16384,
}

// anthropicHandle speaks the native Anthropic Messages protocol.
type anthropicHandle struct {
	endpointConfig
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Stream      bool               `json:"stream"`
	Temperature *float64           `json:"temperature,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	Thinking    *anthropicThinking `json:"thinking,omitempty"`
}

type anthropicThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicStreamEvent struct {
	Type         string `json:"type"`
	Index        int    `json:"index"`
	ContentBlock struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
		Text string `json:"text"`
	} `json:"content_block"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		Thinking    string `json:"thinking"`
		PartialJSON string `json:"partial_json"`
		StopReason  string `json:"stop_reason"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (h *anthropicHandle) Stream(ctx context.Context, req Request) (EventStream, error) {
	if len(req.Messages) == 0 {
		return nil, &ConfigurationError{Err: errEmptyMessages}
	}

	system, messages := toAnthropicMessages(req.Messages)

	payload := anthropicRequest{
		Model:       h.model.ID,
		System:      system,
		Messages:    messages,
		MaxTokens:   h.maxTokens(req.MaxOutputTokens),
		Stream:      true,
		Temperature: req.Temperature,
		Tools:       toAnthropicTools(req.Tools),
	}

	if budget, ok := anthropicThinkingBudgets[req.ReasoningEffort]; ok {
		payload.Thinking = &anthropicThinking{Type: "enabled", BudgetTokens: budget}
		// Extended thinking rejects custom temperature and needs room past
		// the budget for the answer itself.
		payload.Temperature = nil
		if payload.MaxTokens <= budget {
			payload.MaxTokens = budget + anthropicDefaultMaxTokens
		}
	}

	headers := http.Header{}
	headers.Set("x-api-key", h.apiKey)
	headers.Set("anthropic-version", anthropicVersion)

	h.logger.Debug("opening stream", "messages", len(payload.Messages), "tools", len(payload.Tools), "thinking", payload.Thinking != nil)

	resp, err := postJSON(ctx, h.client, h.provider, h.baseURL+"/messages", headers, payload)
	if err != nil {
		return nil, err
	}

	body, err := decompressBody(resp)
	if err != nil {
		resp.Body.Close()
		return nil, &UpstreamError{Provider: h.provider, Status: resp.StatusCode, Err: err}
	}

	return &anthropicStream{
		handle: h,
		body:   body,
		sse:    newSSEReader(body),
		blocks: make(map[int]*toolCallState),
	}, nil
}

func (h *anthropicHandle) maxTokens(requested *int) int {
	if requested != nil && *requested > 0 {
		return *requested
	}
	if limit := h.model.OutputLimit(); limit > 0 {
		return min(limit, anthropicMaxTokensCap)
	}
	return anthropicDefaultMaxTokens
}

// toAnthropicMessages hoists system text out of the history and turns tool
// results into user turns. Consecutive tool result turns are merged since
// the protocol requires alternating roles.
func toAnthropicMessages(messages []Message) (string, []anthropicMessage) {
	var system []string
	out := make([]anthropicMessage, 0, len(messages))

	appendTurn := func(role string, blocks []anthropicBlock, mergeable bool) {
		if len(blocks) == 0 {
			return
		}
		if mergeable && len(out) > 0 {
			last := &out[len(out)-1]
			if last.Role == role && isToolResultTurn(*last) {
				last.Content = append(last.Content, blocks...)
				return
			}
		}
		out = append(out, anthropicMessage{Role: role, Content: blocks})
	}

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if text := m.Text(); text != "" {
				system = append(system, text)
			}

		case RoleAssistant:
			var blocks []anthropicBlock
			for _, p := range m.Parts {
				switch p.Kind {
				case PartText:
					if p.Text != "" {
						blocks = append(blocks, anthropicBlock{Type: "text", Text: p.Text})
					}
				case PartToolCall:
					blocks = append(blocks, anthropicBlock{
						Type:  "tool_use",
						ID:    p.ToolCallID,
						Name:  p.ToolName,
						Input: toolUseInput(p.Input),
					})
				}
			}
			appendTurn("assistant", blocks, false)

		case RoleTool:
			var blocks []anthropicBlock
			for _, p := range m.Parts {
				if p.Kind != PartToolResult {
					continue
				}
				content := ""
				if p.Output != nil {
					content = p.Output.String()
				}
				blocks = append(blocks, anthropicBlock{Type: "tool_result", ToolUseID: p.ToolCallID, Content: content})
			}
			appendTurn("user", blocks, true)

		default:
			if text := m.Text(); text != "" {
				appendTurn("user", []anthropicBlock{{Type: "text", Text: text}}, false)
			}
		}
	}

	return strings.Join(system, "\n\n"), out
}

func isToolResultTurn(m anthropicMessage) bool {
	for _, b := range m.Content {
		if b.Type != "tool_result" {
			return false
		}
	}
	return len(m.Content) > 0
}

// toolUseInput returns input as a JSON object, which is all tool_use accepts.
func toolUseInput(input json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(input))
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	return json.RawMessage("{}")
}

func toAnthropicTools(tools []ToolDefinition) []anthropicTool {
	if len(tools) == 0 {
		return nil
	}

	out := make([]anthropicTool, 0, len(tools))
	for _, t := range tools {
		schema := t.Parameters
		if len(schema) == 0 {
			schema = json.RawMessage(`{"type":"object"}`)
		}
		out = append(out, anthropicTool{Name: t.Name, Description: t.Description, InputSchema: schema})
	}
	return out
}

type anthropicStream struct {
	handle  *anthropicHandle
	body    io.ReadCloser
	sse     *sseReader
	pending []Event

	// blocks tracks open tool_use content blocks by index.
	blocks map[int]*toolCallState

	stopReason string
	done       bool
	closed     bool
}

func (s *anthropicStream) Next() (Event, error) {
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
			s.done = true
			continue
		}
		if err != nil {
			s.done = true
			return Event{}, &UpstreamError{Provider: s.handle.provider, Err: err}
		}

		if strings.TrimSpace(raw.Data) == "" {
			continue
		}

		s.handleEvent([]byte(raw.Data))
	}
}

func (s *anthropicStream) handleEvent(data []byte) {
	var ev anthropicStreamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		s.handle.logger.Warn("skipping malformed stream event", "error", err)
		return
	}

	switch ev.Type {
	case "message_start":
		s.pending = append(s.pending, Event{Type: EventStart})

	case "content_block_start":
		switch ev.ContentBlock.Type {
		case "tool_use":
			s.blocks[ev.Index] = &toolCallState{ID: ev.ContentBlock.ID, Name: ev.ContentBlock.Name, Started: true}
			s.pending = append(s.pending, Event{Type: EventToolInputStart, ToolCallID: ev.ContentBlock.ID, ToolName: ev.ContentBlock.Name})
		case "text":
			if ev.ContentBlock.Text != "" {
				s.pending = append(s.pending, Event{Type: EventTextDelta, Text: ev.ContentBlock.Text})
			}
		}

	case "content_block_delta":
		switch ev.Delta.Type {
		case "text_delta":
			if ev.Delta.Text != "" {
				s.pending = append(s.pending, Event{Type: EventTextDelta, Text: ev.Delta.Text})
			}
		case "thinking_delta":
			if ev.Delta.Thinking != "" {
				s.pending = append(s.pending, Event{Type: EventReasoningDelta, Text: ev.Delta.Thinking})
			}
		case "input_json_delta":
			if block, ok := s.blocks[ev.Index]; ok && ev.Delta.PartialJSON != "" {
				block.Arguments.WriteString(ev.Delta.PartialJSON)
				s.pending = append(s.pending, Event{Type: EventToolInputDelta, ToolCallID: block.ID, Text: ev.Delta.PartialJSON})
			}
		}

	case "content_block_stop":
		if block, ok := s.blocks[ev.Index]; ok {
			delete(s.blocks, ev.Index)
			s.pending = append(s.pending, Event{
				Type:       EventToolCall,
				ToolCallID: block.ID,
				ToolName:   block.Name,
				Input:      normalizeToolInput(block.Arguments.String()),
			})
		}

	case "message_delta":
		if ev.Delta.StopReason != "" {
			s.stopReason = ev.Delta.StopReason
		}

	case "message_stop":
		s.pending = append(s.pending, Event{Type: EventFinish, FinishReason: s.stopReason})
		s.done = true

	case "error":
		msg := ""
		if ev.Error != nil {
			msg = ev.Error.Message
		}
		if msg == "" {
			msg = extractErrorMessage(data)
		}
		s.pending = append(s.pending, Event{Type: EventError, Err: errors.New(msg)})

	case "ping":
	default:
		s.handle.logger.Debug("ignoring stream event", "type", ev.Type)
	}
}

func (s *anthropicStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

var (
	_ ModelHandle = (*anthropicHandle)(nil)
	_ EventStream = (*anthropicStream)(nil)
)
