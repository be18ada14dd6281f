package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Handlers receive the outcome of Consume. OnComplete and OnError are
// mutually exclusive and each is called at most once.
type Handlers struct {
	OnData     func(Chunk)
	OnComplete func()
	OnError    func(error)

	// Logger reports skipped lines; nil uses slog.Default().
	Logger *slog.Logger
}

// Consume reads newline-delimited chunks from body until it ends. Reads may
// split records anywhere; the trailing partial line is kept until the next
// read completes it. A line that does not parse is logged and skipped.
func Consume(ctx context.Context, body io.Reader, h Handlers) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reader := bufio.NewReader(body)

	for {
		if err := ctx.Err(); err != nil {
			fail(h, err)
			return
		}

		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			dispatchLine(line, h, logger)
		}

		if errors.Is(err, io.EOF) {
			if h.OnComplete != nil {
				h.OnComplete()
			}
			return
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			fail(h, fmt.Errorf("read stream: %w", err))
			return
		}
	}
}

func dispatchLine(line []byte, h Handlers, logger *slog.Logger) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	var c Chunk
	if err := json.Unmarshal(line, &c); err != nil {
		logger.Warn("skipping malformed chunk", "error", err, "line", string(line))
		return
	}

	if h.OnData != nil {
		h.OnData(c)
	}
}

func fail(h Handlers, err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}
