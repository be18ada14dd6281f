package relay

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/mihaisavezi/chatrelay/internal/providers"
)

// TokenCounter estimates the prompt size of a request.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with a tiktoken encoding. The encoding is
// loaded on first use; if it cannot be loaded every count is 0.
type TiktokenCounter struct {
	encoding string
	logger   *slog.Logger

	once sync.Once
	tke  *tiktoken.Tiktoken
}

func NewTiktokenCounter(encoding string, logger *slog.Logger) *TiktokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &TiktokenCounter{encoding: encoding, logger: logger}
}

func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		tke, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.logger.Error("Failed to get tiktoken encoding", "encoding", c.encoding, "error", err)
			return
		}
		c.tke = tke
	})

	if c.tke == nil {
		return 0
	}
	return len(c.tke.Encode(text, nil, nil))
}

// promptText flattens the text of a provider request for counting.
func promptText(messages []providers.Message) string {
	var b strings.Builder
	for _, m := range messages {
		for _, p := range m.Parts {
			switch p.Kind {
			case providers.PartText:
				b.WriteString(p.Text)
			case providers.PartToolCall:
				b.Write(p.Input)
			case providers.PartToolResult:
				if p.Output != nil {
					b.WriteString(p.Output.String())
				}
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}
