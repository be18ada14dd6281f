package chat

import (
	"strings"

	"github.com/mihaisavezi/chatrelay/internal/providers"
)

// ThinkingType switches extended reasoning on or off.
type ThinkingType string

const (
	ThinkingEnabled  ThinkingType = "enabled"
	ThinkingDisabled ThinkingType = "disabled"
)

// ThinkingSpeed selects how much reasoning an enabled model should spend.
type ThinkingSpeed string

const (
	SpeedFast ThinkingSpeed = "fast"
	SpeedSlow ThinkingSpeed = "slow"
)

type ThinkingConfig struct {
	Type  ThinkingType  `json:"type"`
	Speed ThinkingSpeed `json:"speed,omitempty"`
}

// Request is the body of POST /chat.
type Request struct {
	ProviderID      string          `json:"providerId"`
	ModelID         string          `json:"modelId"`
	APIKey          string          `json:"apiKey"`
	Messages        []Message       `json:"messages"`
	Thinking        *ThinkingConfig `json:"thinking,omitempty"`
	Temperature     *float64        `json:"temperature,omitempty"`
	MaxOutputTokens *int            `json:"maxOutputTokens,omitempty"`
}

// Validate checks the fields required before any provider is resolved.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.ProviderID) == "" {
		missing = append(missing, "providerId")
	}
	if strings.TrimSpace(r.ModelID) == "" {
		missing = append(missing, "modelId")
	}
	if strings.TrimSpace(r.APIKey) == "" {
		missing = append(missing, "apiKey")
	}
	if len(r.Messages) == 0 {
		missing = append(missing, "messages")
	}

	if len(missing) > 0 {
		return &providers.ConfigurationError{Msg: "missing required fields: " + strings.Join(missing, ", ")}
	}
	return nil
}
