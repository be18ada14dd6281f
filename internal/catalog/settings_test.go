package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	reg := Builtin()
	s := DefaultSettings(reg)

	assert.Len(t, s, reg.Len())
	assert.Equal(t, ProviderSetting{APIKey: PublicAPIKey, Enabled: true}, s.Get("opencode"))
	assert.False(t, s.Get("openai").Enabled)

	enabled := s.EnabledProviders(reg)
	if assert.Len(t, enabled, 1) {
		assert.Equal(t, "opencode", enabled[0].ID)
	}
}

func TestSettings_IsModelAvailable(t *testing.T) {
	reg := Builtin()
	s := DefaultSettings(reg)

	tests := []struct {
		name     string
		settings Settings
		provider string
		model    string
		expected bool
	}{
		{name: "free model on enabled provider", settings: s, provider: "opencode", model: "big-pickle", expected: true},
		{name: "disabled provider", settings: s, provider: "openai", model: "gpt-4o", expected: false},
		{name: "paid model without key", settings: s.With("openai", ProviderSetting{Enabled: true}), provider: "openai", model: "gpt-4o", expected: false},
		{name: "paid model with key", settings: s.With("openai", ProviderSetting{Enabled: true, APIKey: "sk-1"}), provider: "openai", model: "gpt-4o", expected: true},
		{name: "free model without key", settings: s.With("openrouter", ProviderSetting{Enabled: true}), provider: "openrouter", model: "deepseek/deepseek-r1", expected: true},
		{name: "unknown model", settings: s, provider: "opencode", model: "missing", expected: false},
		{name: "unknown provider", settings: s, provider: "missing", model: "x", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsModelAvailable(reg, tt.provider, tt.model))
		})
	}
}

func TestSettings_APIKeyFor(t *testing.T) {
	reg := Builtin()
	s := DefaultSettings(reg).With("openai", ProviderSetting{Enabled: true, APIKey: "sk-1"})

	assert.Equal(t, "sk-1", s.APIKeyFor(reg, "openai", "gpt-4o"))
	assert.Equal(t, PublicAPIKey, s.APIKeyFor(reg, "opencode", "big-pickle"))
	assert.Equal(t, PublicAPIKey, s.APIKeyFor(reg, "zhipuai", "glm-4.7-flash"))
	assert.Empty(t, s.APIKeyFor(reg, "deepseek", "deepseek-chat"))
}

func TestSettings_WithDoesNotMutate(t *testing.T) {
	s := Settings{"a": {Enabled: true}}
	s2 := s.With("a", ProviderSetting{})

	assert.True(t, s.Get("a").Enabled)
	assert.False(t, s2.Get("a").Enabled)
}
