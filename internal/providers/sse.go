package providers

import (
	"bufio"
	"io"
	"strings"
)

// sseEvent is one server-sent event: the "event:" type and the joined
// "data:" lines.
type sseEvent struct {
	Type string
	Data string
}

// sseReader parses server-sent events from an upstream body. A blank line
// terminates an event; comment lines (":") are skipped; "retry" and "id" are
// ignored since they have no meaning for a relayed call.
type sseReader struct {
	scanner *bufio.Scanner
	current sseEvent
	hasData bool
}

func newSSEReader(r io.Reader) *sseReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	return &sseReader{scanner: scanner}
}

// Next returns the next complete event, or io.EOF once the source is
// exhausted. A trailing event without a final blank line is still returned.
func (r *sseReader) Next() (sseEvent, error) {
	for r.scanner.Scan() {
		line := strings.TrimRight(r.scanner.Text(), "\r")

		if line == "" {
			if r.hasData {
				return r.take(), nil
			}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			if r.hasData && r.current.Data != "" {
				r.current.Data += "\n"
			}
			r.current.Data += value
			r.hasData = true
		case "event":
			r.current.Type = value
			r.hasData = true
		}
	}

	if err := r.scanner.Err(); err != nil {
		return sseEvent{}, err
	}

	if r.hasData {
		return r.take(), nil
	}
	return sseEvent{}, io.EOF
}

func (r *sseReader) take() sseEvent {
	ev := r.current
	r.current = sseEvent{}
	r.hasData = false
	return ev
}
