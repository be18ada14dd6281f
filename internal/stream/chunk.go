// Package stream holds the newline-delimited JSON wire contract between the
// relay and its clients: the chunk union, its encoder, the incremental
// consumer and the transcript the consumer folds chunks into.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ChunkType discriminates chunks on the wire.
type ChunkType string

const (
	TypeText       ChunkType = "text"
	TypeReasoning  ChunkType = "reasoning"
	TypeToolCall   ChunkType = "tool-call"
	TypeToolResult ChunkType = "tool-result"
	TypeError      ChunkType = "error"
	TypeDone       ChunkType = "done"
)

// UnknownErrorMessage is sent when an error carries no message.
const UnknownErrorMessage = "Unknown error"

// Chunk is one record of the stream. Which fields are set depends on Type.
// Tool calls carry their arguments under both "input" and "args".
type Chunk struct {
	Type       ChunkType       `json:"type"`
	Content    string          `json:"content,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Message    string          `json:"message,omitempty"`
}

func Text(content string) Chunk {
	return Chunk{Type: TypeText, Content: content}
}

func Reasoning(content string) Chunk {
	return Chunk{Type: TypeReasoning, Content: content}
}

func ToolCall(id, name string, input json.RawMessage) Chunk {
	return Chunk{Type: TypeToolCall, ToolCallID: id, ToolName: name, Input: input, Args: input}
}

func ToolResult(id, name string, result json.RawMessage) Chunk {
	return Chunk{Type: TypeToolResult, ToolCallID: id, ToolName: name, Result: result}
}

// Error builds an error chunk; an empty message becomes UnknownErrorMessage.
func Error(message string) Chunk {
	if message == "" {
		message = UnknownErrorMessage
	}
	return Chunk{Type: TypeError, Message: message}
}

func Done() Chunk {
	return Chunk{Type: TypeDone}
}

// Arguments returns the tool call arguments from whichever key carried them.
func (c Chunk) Arguments() json.RawMessage {
	if len(c.Input) > 0 {
		return c.Input
	}
	return c.Args
}

func (c *Chunk) UnmarshalJSON(data []byte) error {
	type plain Chunk
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Type == "" {
		return fmt.Errorf("chunk has no type")
	}

	*c = Chunk(p)
	if c.Type == TypeToolCall {
		args := c.Arguments()
		c.Input, c.Args = args, args
	}
	return nil
}

// Encode serializes a chunk as one JSON object terminated by a newline.
func Encode(c Chunk) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s chunk: %w", c.Type, err)
	}
	return append(data, '\n'), nil
}

// Writer writes chunks to a response, one Write and one flush per chunk.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
	count   int
}

// NewWriter flushes after every chunk when w implements http.Flusher.
func NewWriter(w io.Writer) *Writer {
	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: flusher}
}

func (w *Writer) Write(c Chunk) error {
	record, err := Encode(c)
	if err != nil {
		return err
	}

	if _, err := w.w.Write(record); err != nil {
		return fmt.Errorf("write %s chunk: %w", c.Type, err)
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}

	w.count++
	return nil
}

// Count returns the number of chunks written.
func (w *Writer) Count() int {
	return w.count
}
