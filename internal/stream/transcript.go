package stream

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/mihaisavezi/chatrelay/internal/chat"
)

// EntryRole is the role of a transcript entry. RoleError replaces the role
// of an assistant entry whose stream reported an error.
type EntryRole string

const (
	RoleUser      EntryRole = "user"
	RoleAssistant EntryRole = "assistant"
	RoleTool      EntryRole = "tool"
	RoleError     EntryRole = "error"
)

// ToolCallState tracks whether a surfaced tool call has been run.
type ToolCallState string

const (
	ToolCallPending  ToolCallState = "pending"
	ToolCallExecuted ToolCallState = "executed"
)

type ToolCallEntry struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Args   json.RawMessage `json:"args,omitempty"`
	State  ToolCallState   `json:"state"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Entry is one record of a transcript. Assistant entries grow as chunks
// arrive and are frozen when their stream ends.
type Entry struct {
	ID         string          `json:"id"`
	Role       EntryRole       `json:"role"`
	Content    string          `json:"content"`
	Reasoning  string          `json:"reasoning,omitempty"`
	ToolCalls  []ToolCallEntry `json:"toolCalls,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Raw        []Chunk         `json:"raw,omitempty"`
	Frozen     bool            `json:"frozen,omitempty"`
}

// Apply folds one chunk into the entry. Chunks applied to a frozen entry
// are ignored.
func (e *Entry) Apply(c Chunk) {
	if e.Frozen {
		return
	}
	e.Raw = append(e.Raw, c)

	switch c.Type {
	case TypeText:
		e.Content += c.Content
	case TypeReasoning:
		e.Reasoning += c.Content
	case TypeToolCall:
		id := c.ToolCallID
		if id == "" {
			id = uuid.NewString()
		}
		e.ToolCalls = append(e.ToolCalls, ToolCallEntry{
			ID:    id,
			Name:  c.ToolName,
			Args:  c.Arguments(),
			State: ToolCallPending,
		})
	case TypeToolResult:
		if call := e.ToolCall(c.ToolCallID); call != nil {
			call.State = ToolCallExecuted
			call.Result = c.Result
		}
	case TypeError:
		e.Role = RoleError
		e.Content = c.Message
		if e.Content == "" {
			e.Content = UnknownErrorMessage
		}
	case TypeDone:
		e.Frozen = true
	}
}

// Freeze stops the entry from accepting further chunks.
func (e *Entry) Freeze() {
	e.Frozen = true
}

// ToolCall returns the call with the given id, or nil.
func (e *Entry) ToolCall(id string) *ToolCallEntry {
	for i := range e.ToolCalls {
		if e.ToolCalls[i].ID == id {
			return &e.ToolCalls[i]
		}
	}
	return nil
}

// Transcript is the ordered conversation of one client session. It is not
// safe for concurrent use.
type Transcript struct {
	Entries []*Entry `json:"entries"`
}

func (t *Transcript) append(e *Entry) *Entry {
	e.ID = uuid.NewString()
	t.Entries = append(t.Entries, e)
	return e
}

// AddUser appends a frozen user entry.
func (t *Transcript) AddUser(content string) *Entry {
	return t.append(&Entry{Role: RoleUser, Content: content, Frozen: true})
}

// Begin appends the empty assistant entry a model call streams into.
func (t *Transcript) Begin() *Entry {
	return t.append(&Entry{Role: RoleAssistant})
}

// AddToolResult records the outcome of an executed call: the call is marked
// executed on its assistant entry and a tool entry carrying the result is
// appended. It reports false if no pending call has that id.
func (t *Transcript) AddToolResult(toolCallID string, result json.RawMessage) (*Entry, bool) {
	call := t.findCall(toolCallID)
	if call == nil || call.State == ToolCallExecuted {
		return nil, false
	}

	call.State = ToolCallExecuted
	call.Result = result

	return t.append(&Entry{
		Role:       RoleTool,
		Content:    resultText(result),
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Raw:        []Chunk{ToolResult(call.ID, call.Name, result)},
		Frozen:     true,
	}), true
}

// Last returns the most recent entry, or nil.
func (t *Transcript) Last() *Entry {
	if len(t.Entries) == 0 {
		return nil
	}
	return t.Entries[len(t.Entries)-1]
}

// PendingToolCalls lists calls that still await execution, oldest first.
// Calls on an entry whose stream errored are never offered, since that
// entry is not replayed to the provider.
func (t *Transcript) PendingToolCalls() []ToolCallEntry {
	var out []ToolCallEntry
	for _, e := range t.Entries {
		if e.Role == RoleError {
			continue
		}
		for _, c := range e.ToolCalls {
			if c.State == ToolCallPending {
				out = append(out, c)
			}
		}
	}
	return out
}

func (t *Transcript) findCall(id string) *ToolCallEntry {
	for _, e := range t.Entries {
		if e.Role == RoleError {
			continue
		}
		if call := e.ToolCall(id); call != nil {
			return call
		}
	}
	return nil
}

// Messages rebuilds the chat history to send with the next request. Error
// entries are local only and are left out, as are assistant entries that
// produced nothing.
func (t *Transcript) Messages() []chat.Message {
	var out []chat.Message

	for _, e := range t.Entries {
		switch e.Role {
		case RoleUser:
			out = append(out, chat.Message{Role: chat.RoleUser, Content: chat.Text(e.Content)})

		case RoleAssistant:
			if e.Content == "" && len(e.ToolCalls) == 0 {
				continue
			}
			m := chat.Message{Role: chat.RoleAssistant, Content: chat.Text(e.Content)}
			for _, c := range e.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, chat.ToolCall{ID: c.ID, Name: c.Name, Arguments: c.Args})
			}
			out = append(out, m)

		case RoleTool:
			content := chat.Text(e.Content)
			if len(e.Raw) > 0 && len(e.Raw[0].Result) > 0 {
				content = chat.Value(e.Raw[0].Result)
			}
			out = append(out, chat.Message{
				Role:       chat.RoleTool,
				Content:    content,
				ToolCallID: e.ToolCallID,
				Name:       e.ToolName,
			})
		}
	}

	return out
}

func resultText(result json.RawMessage) string {
	var s string
	if err := json.Unmarshal(result, &s); err == nil {
		return s
	}
	return string(result)
}
