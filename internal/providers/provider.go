// Package providers turns a catalog entry and a credential into a callable
// model handle. Each handle speaks one wire protocol (OpenAI-compatible or the
// native Anthropic Messages API) and exposes the provider's streaming output as
// a sequence of protocol-neutral events.
package providers

import (
	"context"
	"encoding/json"
	"errors"
)

// Role of a provider message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartKind discriminates the content parts of a Message.
type PartKind string

const (
	PartText       PartKind = "text"
	PartToolCall   PartKind = "tool-call"
	PartToolResult PartKind = "tool-result"
)

// OutputKind tells adapters how a tool result payload should be sent.
type OutputKind string

const (
	OutputText OutputKind = "text"
	OutputJSON OutputKind = "json"
)

// ToolOutput is the payload of a tool result part.
type ToolOutput struct {
	Kind OutputKind      `json:"type"`
	Text string          `json:"text,omitempty"`
	JSON json.RawMessage `json:"json,omitempty"`
}

// String renders the output the way text-only protocols expect it.
func (o ToolOutput) String() string {
	if o.Kind == OutputJSON {
		return string(o.JSON)
	}
	return o.Text
}

// Part is one element of a message's content.
type Part struct {
	Kind       PartKind        `json:"type"`
	Text       string          `json:"text,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     *ToolOutput     `json:"output,omitempty"`
}

// Message is the protocol-neutral shape adapters encode for their provider.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"content"`
}

// Text concatenates the text parts of the message.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Kind == PartText {
			out += p.Text
		}
	}
	return out
}

// ToolDefinition advertises a callable tool to the model.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Request carries everything a handle needs to start a streamed call.
type Request struct {
	Messages        []Message
	Temperature     *float64
	MaxOutputTokens *int
	Tools           []ToolDefinition
	// ReasoningEffort is an opaque provider effort level; empty means no
	// override is sent.
	ReasoningEffort string
}

// EventType classifies provider stream events.
type EventType string

const (
	EventStart          EventType = "stream-start"
	EventTextDelta      EventType = "text-delta"
	EventReasoningDelta EventType = "reasoning-delta"
	EventToolInputStart EventType = "tool-input-start"
	EventToolInputDelta EventType = "tool-input-delta"
	EventToolCall       EventType = "tool-call"
	EventToolResult     EventType = "tool-result"
	EventError          EventType = "error"
	EventFinish         EventType = "finish"
)

// EventTypes lists every event type a handle may produce.
var EventTypes = []EventType{
	EventStart,
	EventTextDelta,
	EventReasoningDelta,
	EventToolInputStart,
	EventToolInputDelta,
	EventToolCall,
	EventToolResult,
	EventError,
	EventFinish,
}

// Event is one item of a provider stream.
type Event struct {
	Type EventType

	// Text holds the delta for text, reasoning and tool input events.
	Text string

	ToolCallID string
	ToolName   string
	Input      json.RawMessage
	Result     json.RawMessage

	// Err is set on EventError.
	Err error

	FinishReason string
}

// EventStream yields events until Next returns io.EOF. Close releases the
// underlying connection and is safe to call more than once.
type EventStream interface {
	Next() (Event, error)
	Close() error
}

// ModelHandle is a model bound to a provider endpoint and credential.
type ModelHandle interface {
	Provider() string
	Model() string
	Stream(ctx context.Context, req Request) (EventStream, error)
}

// Credentials are supplied per call and never cached.
type Credentials struct {
	APIKey string
}

var errEmptyMessages = errors.New("request has no messages")
