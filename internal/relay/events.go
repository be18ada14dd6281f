package relay

import (
	"github.com/mihaisavezi/chatrelay/internal/providers"
	"github.com/mihaisavezi/chatrelay/internal/stream"
)

type decision int

const (
	drop decision = iota
	forward
)

// eventPolicy is the allow-list of provider events. Every provider event
// type must appear here; types missing from it are dropped.
var eventPolicy = map[providers.EventType]decision{
	providers.EventStart:          drop,
	providers.EventTextDelta:      forward,
	providers.EventReasoningDelta: forward,
	// Partial tool input is not valid JSON until the call is complete.
	providers.EventToolInputStart: drop,
	providers.EventToolInputDelta: drop,
	providers.EventToolCall:       forward,
	providers.EventToolResult:     forward,
	providers.EventError:          forward,
	providers.EventFinish:         forward,
}

// translate maps a provider event onto a wire chunk. ok is false for events
// that are not forwarded.
func translate(ev providers.Event) (stream.Chunk, bool) {
	if eventPolicy[ev.Type] != forward {
		return stream.Chunk{}, false
	}

	switch ev.Type {
	case providers.EventTextDelta:
		return stream.Text(ev.Text), true
	case providers.EventReasoningDelta:
		return stream.Reasoning(ev.Text), true
	case providers.EventToolCall:
		return stream.ToolCall(ev.ToolCallID, ev.ToolName, ev.Input), true
	case providers.EventToolResult:
		return stream.ToolResult(ev.ToolCallID, ev.ToolName, ev.Result), true
	case providers.EventError:
		return stream.Error(errorMessage(ev.Err)), true
	case providers.EventFinish:
		return stream.Done(), true
	default:
		return stream.Chunk{}, false
	}
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
