package chat

import (
	"encoding/json"
	"strings"

	"github.com/mihaisavezi/chatrelay/internal/providers"
)

// Normalize reshapes the UI history into provider messages. It performs no
// I/O and never fails; unknown roles are carried through with their content.
func Normalize(messages []Message) []providers.Message {
	out := make([]providers.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, normalizeMessage(m))
	}
	return out
}

func normalizeMessage(m Message) providers.Message {
	switch m.Role {
	case RoleSystem, RoleUser:
		return providers.Message{Role: providers.Role(m.Role), Parts: textParts(m.Content, m.Content.Kind() != ContentText)}
	case RoleAssistant:
		return normalizeAssistant(m)
	case RoleTool:
		return normalizeTool(m)
	default:
		return providers.Message{Role: providers.Role(m.Role), Parts: passthroughParts(m.Content)}
	}
}

// textParts turns content into text parts. Plain strings always become one
// part; with skipEmpty, empty texts of a part list are dropped.
func textParts(c Content, skipEmpty bool) []providers.Part {
	switch c.Kind() {
	case ContentText:
		return []providers.Part{{Kind: providers.PartText, Text: c.String()}}
	case ContentParts:
		var parts []providers.Part
		for _, p := range c.PartList() {
			if p.Type != PartText || (skipEmpty && p.Text == "") {
				continue
			}
			parts = append(parts, providers.Part{Kind: providers.PartText, Text: p.Text})
		}
		return parts
	case ContentValue:
		return []providers.Part{{Kind: providers.PartText, Text: string(c.Raw())}}
	default:
		return nil
	}
}

func normalizeAssistant(m Message) providers.Message {
	var text []providers.Part
	if m.Content.Kind() == ContentText {
		if s := m.Content.String(); s != "" {
			text = append(text, providers.Part{Kind: providers.PartText, Text: s})
		}
	} else {
		text = textParts(m.Content, true)
	}

	var calls []providers.Part
	seen := make(map[string]bool)
	addCall := func(id, name string, args json.RawMessage) {
		if id != "" {
			if seen[id] {
				return
			}
			seen[id] = true
		}
		calls = append(calls, providers.Part{
			Kind:       providers.PartToolCall,
			ToolCallID: id,
			ToolName:   name,
			Input:      argumentsJSON(args),
		})
	}

	for _, p := range m.Content.PartList() {
		if p.Type == PartToolCall {
			addCall(p.ToolCallID, p.ToolName, p.Input)
		}
	}
	for _, tc := range m.ToolCalls {
		addCall(tc.ID, tc.Name, tc.Arguments)
	}

	return providers.Message{Role: providers.RoleAssistant, Parts: append(text, calls...)}
}

func normalizeTool(m Message) providers.Message {
	part := providers.Part{
		Kind:       providers.PartToolResult,
		ToolCallID: m.ToolCallID,
		ToolName:   m.Name,
	}

	switch m.Content.Kind() {
	case ContentText:
		part.Output = &providers.ToolOutput{Kind: providers.OutputText, Text: m.Content.String()}

	case ContentParts:
		for _, p := range m.Content.PartList() {
			if p.Type != PartToolResult {
				continue
			}
			if part.ToolCallID == "" {
				part.ToolCallID = p.ToolCallID
			}
			if part.ToolName == "" {
				part.ToolName = p.ToolName
			}
			part.Output = toolOutput(p.Output)
			break
		}
		if part.Output == nil {
			part.Output = &providers.ToolOutput{Kind: providers.OutputText, Text: m.Content.JoinedText()}
		}

	case ContentValue:
		part.Output = valueOutput(m.Content.Raw())

	default:
		part.Output = &providers.ToolOutput{Kind: providers.OutputText}
	}

	return providers.Message{Role: providers.RoleTool, Parts: []providers.Part{part}}
}

func passthroughParts(c Content) []providers.Part {
	if c.Kind() != ContentParts {
		return textParts(c, false)
	}

	parts := make([]providers.Part, 0, len(c.PartList()))
	for _, p := range c.PartList() {
		parts = append(parts, providers.Part{
			Kind:       providers.PartKind(p.Type),
			Text:       p.Text,
			ToolCallID: p.ToolCallID,
			ToolName:   p.ToolName,
			Input:      p.Input,
			Output:     toolOutput(p.Output),
		})
	}
	return parts
}

// toolOutput converts a part output. Text outputs carry a JSON string value.
func toolOutput(o *ToolOutput) *providers.ToolOutput {
	if o == nil {
		return nil
	}
	if o.Type == string(providers.OutputText) {
		var s string
		if err := json.Unmarshal(o.Value, &s); err == nil {
			return &providers.ToolOutput{Kind: providers.OutputText, Text: s}
		}
		return &providers.ToolOutput{Kind: providers.OutputText, Text: string(o.Value)}
	}
	return valueOutput(o.Value)
}

// valueOutput marks textual payloads as text and everything else as JSON.
func valueOutput(raw json.RawMessage) *providers.ToolOutput {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &providers.ToolOutput{Kind: providers.OutputText, Text: s}
	}
	return &providers.ToolOutput{Kind: providers.OutputJSON, JSON: raw}
}

// argumentsJSON accepts arguments as a JSON object or as a string holding
// JSON, and returns the object form. Missing arguments become {}.
func argumentsJSON(raw json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return json.RawMessage("{}")
	}

	var s string
	if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
		inner := strings.TrimSpace(s)
		if inner == "" {
			return json.RawMessage("{}")
		}
		if json.Valid([]byte(inner)) {
			return json.RawMessage(inner)
		}
	}

	return json.RawMessage(trimmed)
}
