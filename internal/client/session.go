package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mihaisavezi/chatrelay/internal/chat"
	"github.com/mihaisavezi/chatrelay/internal/stream"
)

var ErrToolCallNotPending = errors.New("tool call is not pending")

// Session is one conversation with a fixed model. It owns the transcript and
// replays it on every turn.
type Session struct {
	client     *Client
	template   chat.Request
	transcript *stream.Transcript
	notice     func(string)
	logger     *slog.Logger
}

type SessionOption func(*Session)

// WithNotice receives every error surfaced during a turn, in-band or
// transport.
func WithNotice(fn func(string)) SessionOption {
	return func(s *Session) { s.notice = fn }
}

// NewSession starts a conversation. Messages in template are ignored; the
// transcript supplies them.
func NewSession(c *Client, template chat.Request, logger *slog.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	template.Messages = nil

	s := &Session{
		client:     c,
		template:   template,
		transcript: &stream.Transcript{},
		notice:     func(string) {},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Transcript() *stream.Transcript {
	return s.transcript
}

// Send appends a user message and streams the reply. onChunk, if set, sees
// every chunk as it arrives. The returned entry is frozen once the turn ends.
func (s *Session) Send(ctx context.Context, text string, onChunk func(stream.Chunk)) (*stream.Entry, error) {
	s.transcript.AddUser(text)
	return s.turn(ctx, onChunk)
}

// Continue streams a reply to the transcript as it stands, typically after
// tool results were appended.
func (s *Session) Continue(ctx context.Context, onChunk func(stream.Chunk)) (*stream.Entry, error) {
	return s.turn(ctx, onChunk)
}

func (s *Session) turn(ctx context.Context, onChunk func(stream.Chunk)) (*stream.Entry, error) {
	req := s.template
	req.Messages = s.transcript.Messages()

	entry := s.transcript.Begin()

	var turnErr error
	s.client.Chat(ctx, req, stream.Handlers{
		OnData: func(c stream.Chunk) {
			entry.Apply(c)
			if c.Type == stream.TypeError {
				s.notice(c.Message)
			}
			if onChunk != nil {
				onChunk(c)
			}
		},
		OnComplete: entry.Freeze,
		OnError: func(err error) {
			turnErr = err
			entry.Apply(stream.Error(err.Error()))
			entry.Freeze()
			s.notice(err.Error())
		},
		Logger: s.logger,
	})

	return entry, turnErr
}

// PendingToolCalls lists calls awaiting approval.
func (s *Session) PendingToolCalls() []stream.ToolCallEntry {
	return s.transcript.PendingToolCalls()
}

// ExecuteTool runs an approved pending call through the relay and records
// the result. Executed calls are never run twice.
func (s *Session) ExecuteTool(ctx context.Context, toolCallID string) (*stream.Entry, error) {
	var call *stream.ToolCallEntry
	for _, c := range s.transcript.PendingToolCalls() {
		if c.ID == toolCallID {
			c := c
			call = &c
			break
		}
	}
	if call == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolCallNotPending, toolCallID)
	}

	s.logger.Info("Executing tool call", "tool", call.Name, "tool_call_id", call.ID)

	result, err := s.client.ExecuteTool(ctx, call.Name, call.Args)
	if err != nil {
		s.notice(err.Error())
		return nil, fmt.Errorf("execute %s: %w", call.Name, err)
	}

	entry, ok := s.transcript.AddToolResult(call.ID, result)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolCallNotPending, toolCallID)
	}
	return entry, nil
}
