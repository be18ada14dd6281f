// Package chat defines the chat request accepted by the relay and normalizes
// its UI-level message history into provider messages.
package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Role of a UI-level message. Values outside the known set are carried
// through unchanged.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartType discriminates content parts.
type PartType string

const (
	PartText       PartType = "text"
	PartToolCall   PartType = "tool-call"
	PartToolResult PartType = "tool-result"
)

// ToolOutput is the payload of a tool-result part. Type is "text" or "json".
type ToolOutput struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Part is one typed element of a content list.
type Part struct {
	Type       PartType        `json:"type"`
	Text       string          `json:"text,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     *ToolOutput     `json:"output,omitempty"`
}

// ToolCall is a call recorded on an assistant message.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Message is one turn of the conversation as the UI sends it.
type Message struct {
	Role       Role       `json:"role"`
	Content    Content    `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ContentKind tags the variant held by Content.
type ContentKind int

const (
	// ContentEmpty is an absent or null content.
	ContentEmpty ContentKind = iota
	// ContentText is a plain string.
	ContentText
	// ContentParts is a list of typed parts.
	ContentParts
	// ContentValue is any other JSON payload, typically a tool result.
	ContentValue
)

// Content is the tagged union carried by Message.Content.
type Content struct {
	kind  ContentKind
	text  string
	parts []Part
	value json.RawMessage
}

func Text(s string) Content {
	return Content{kind: ContentText, text: s}
}

func Parts(parts ...Part) Content {
	return Content{kind: ContentParts, parts: parts}
}

// Value wraps an arbitrary JSON payload.
func Value(raw json.RawMessage) Content {
	return Content{kind: ContentValue, value: raw}
}

func (c Content) Kind() ContentKind {
	return c.kind
}

// String returns the text variant, or "" for other variants.
func (c Content) String() string {
	return c.text
}

// PartList returns the parts variant, or nil.
func (c Content) PartList() []Part {
	return c.parts
}

// Raw returns the JSON payload of the value variant, or nil.
func (c Content) Raw() json.RawMessage {
	return c.value
}

// JoinedText returns the text of the content: the string itself, the
// concatenated text parts, or the raw JSON of a value.
func (c Content) JoinedText() string {
	switch c.kind {
	case ContentText:
		return c.text
	case ContentParts:
		var b strings.Builder
		for _, p := range c.parts {
			if p.Type == PartText {
				b.WriteString(p.Text)
			}
		}
		return b.String()
	case ContentValue:
		return string(c.value)
	default:
		return ""
	}
}

func (c Content) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case ContentText:
		return json.Marshal(c.text)
	case ContentParts:
		if c.parts == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.parts)
	case ContentValue:
		return c.value, nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON picks the variant from the JSON shape: string → Text, array
// of typed objects → Parts, null → Empty, anything else → Value.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)

	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*c = Content{}
		return nil

	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode text content: %w", err)
		}
		*c = Text(s)
		return nil

	case trimmed[0] == '[':
		var parts []Part
		if err := json.Unmarshal(trimmed, &parts); err == nil && typedParts(parts) {
			*c = Parts(parts...)
			return nil
		}
	}

	*c = Value(append(json.RawMessage(nil), trimmed...))
	return nil
}

func typedParts(parts []Part) bool {
	for _, p := range parts {
		if p.Type == "" {
			return false
		}
	}
	return true
}
