// Package catalog holds the static provider registry: provider base URLs,
// per-model capability and cost metadata, and the per-user settings store that
// decides which providers and models a client may use.
//
// The JSON shape follows the models.dev catalog so exported catalogs can be
// loaded as overlays without conversion.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// PublicAPIKey is the shared credential accepted by providers that serve
// free-tier models without a personal key.
const PublicAPIKey = "public"

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrModelNotFound    = errors.New("model not found")
)

// WireAdapter selects the request/response protocol used to talk to a model.
type WireAdapter string

const (
	// AdapterGeneric is the OpenAI-compatible chat completions protocol.
	AdapterGeneric WireAdapter = "generic"
	// AdapterAnthropic is the native Anthropic Messages protocol.
	AdapterAnthropic WireAdapter = "anthropic"
)

// ParseWireAdapter maps a catalog string onto a known adapter. Empty values
// and unknown values fall back to AdapterGeneric.
func ParseWireAdapter(s string) WireAdapter {
	switch WireAdapter(strings.ToLower(strings.TrimSpace(s))) {
	case AdapterAnthropic, "@ai-sdk/anthropic":
		return AdapterAnthropic
	default:
		return AdapterGeneric
	}
}

// Cost is expressed in USD per million tokens.
type Cost struct {
	Input       float64 `json:"input" yaml:"input"`
	Output      float64 `json:"output" yaml:"output"`
	Reasoning   float64 `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	CacheRead   float64 `json:"cache_read,omitempty" yaml:"cache_read,omitempty"`
	CacheWrite  float64 `json:"cache_write,omitempty" yaml:"cache_write,omitempty"`
	InputAudio  float64 `json:"input_audio,omitempty" yaml:"input_audio,omitempty"`
	OutputAudio float64 `json:"output_audio,omitempty" yaml:"output_audio,omitempty"`
}

type Limit struct {
	Context int `json:"context" yaml:"context"`
	Input   int `json:"input,omitempty" yaml:"input,omitempty"`
	Output  int `json:"output" yaml:"output"`
}

type Modalities struct {
	Input  []string `json:"input" yaml:"input"`
	Output []string `json:"output" yaml:"output"`
}

// Model describes one model offered by a provider.
type Model struct {
	ID               string     `json:"id" yaml:"id"`
	Name             string     `json:"name" yaml:"name"`
	Family           string     `json:"family,omitempty" yaml:"family,omitempty"`
	Attachment       bool       `json:"attachment,omitempty" yaml:"attachment,omitempty"`
	Reasoning        bool       `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	ToolCall         bool       `json:"tool_call,omitempty" yaml:"tool_call,omitempty"`
	StructuredOutput bool       `json:"structured_output,omitempty" yaml:"structured_output,omitempty"`
	Temperature      bool       `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Knowledge        string     `json:"knowledge,omitempty" yaml:"knowledge,omitempty"`
	ReleaseDate      string     `json:"release_date,omitempty" yaml:"release_date,omitempty"`
	LastUpdated      string     `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
	Modalities       Modalities `json:"modalities" yaml:"modalities"`
	OpenWeights      bool       `json:"open_weights,omitempty" yaml:"open_weights,omitempty"`
	Cost             *Cost      `json:"cost,omitempty" yaml:"cost,omitempty"`
	Limit            *Limit     `json:"limit,omitempty" yaml:"limit,omitempty"`

	// WireAdapter overrides the protocol for this model. Empty means generic.
	WireAdapter WireAdapter `json:"wire_adapter,omitempty" yaml:"wire_adapter,omitempty"`

	// Package is the models.dev per-model SDK hint, consulted when
	// WireAdapter is unset.
	Package *PackageRef `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// PackageRef names the SDK package models.dev associates with a model.
type PackageRef struct {
	NPM string `json:"npm" yaml:"npm"`
}

// IsFree reports whether both input and output tokens cost nothing. A model
// without cost information is considered free.
func (m Model) IsFree() bool {
	if m.Cost == nil {
		return true
	}
	return m.Cost.Input == 0 && m.Cost.Output == 0
}

// Adapter returns the effective wire adapter of the model.
func (m Model) Adapter() WireAdapter {
	if m.WireAdapter != "" {
		return ParseWireAdapter(string(m.WireAdapter))
	}
	if m.Package != nil {
		return ParseWireAdapter(m.Package.NPM)
	}
	return AdapterGeneric
}

// ContextLimit returns the context window, or 0 when unknown.
func (m Model) ContextLimit() int {
	if m.Limit == nil {
		return 0
	}
	return m.Limit.Context
}

// OutputLimit returns the maximum output tokens, or 0 when unknown.
func (m Model) OutputLimit() int {
	if m.Limit == nil {
		return 0
	}
	return m.Limit.Output
}

// Provider describes an LLM vendor and the models it serves.
type Provider struct {
	ID     string           `json:"id" yaml:"id"`
	Name   string           `json:"name" yaml:"name"`
	API    string           `json:"api" yaml:"api"`
	Doc    string           `json:"doc,omitempty" yaml:"doc,omitempty"`
	Env    []string         `json:"env,omitempty" yaml:"env,omitempty"`
	Models map[string]Model `json:"models" yaml:"models"`
}

// Model looks up a model by id within the provider.
func (p Provider) Model(id string) (Model, error) {
	m, ok := p.Models[id]
	if !ok {
		return Model{}, fmt.Errorf("%w: %s in provider %s", ErrModelNotFound, id, p.ID)
	}
	return m, nil
}

// RequiresKey reports whether calls to the provider need a personal API key.
func (p Provider) RequiresKey() bool {
	return len(p.Env) > 0 && !p.AllModelsFree()
}

// AllModelsFree reports whether every model of the provider is free. A
// provider without models is not considered free.
func (p Provider) AllModelsFree() bool {
	if len(p.Models) == 0 {
		return false
	}
	for _, m := range p.Models {
		if !m.IsFree() {
			return false
		}
	}
	return true
}
