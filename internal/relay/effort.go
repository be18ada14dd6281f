package relay

import "github.com/mihaisavezi/chatrelay/internal/chat"

// EffortTable maps thinking options onto the reasoning effort sent to
// providers. Values are passed through to adapters without interpretation.
type EffortTable struct {
	Disabled string `json:"disabled" yaml:"disabled"`
	Fast     string `json:"fast" yaml:"fast"`
	Slow     string `json:"slow" yaml:"slow"`
}

// DefaultEfforts is used when no table is configured.
var DefaultEfforts = EffortTable{
	Disabled: "none",
	Fast:     "minimal",
	Slow:     "high",
}

// Resolve returns the effort for a thinking config. An empty result means no
// override is sent and the provider default applies.
func (t EffortTable) Resolve(thinking *chat.ThinkingConfig) string {
	if thinking == nil {
		return ""
	}

	if thinking.Type == chat.ThinkingDisabled {
		return t.Disabled
	}

	switch thinking.Speed {
	case chat.SpeedFast:
		return t.Fast
	case chat.SpeedSlow:
		return t.Slow
	default:
		return ""
	}
}

// WithDefaults fills empty entries from DefaultEfforts.
func (t EffortTable) WithDefaults() EffortTable {
	if t.Disabled == "" {
		t.Disabled = DefaultEfforts.Disabled
	}
	if t.Fast == "" {
		t.Fast = DefaultEfforts.Fast
	}
	if t.Slow == "" {
		t.Slow = DefaultEfforts.Slow
	}
	return t
}
