package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_IsFree(t *testing.T) {
	tests := []struct {
		name     string
		cost     *Cost
		expected bool
	}{
		{name: "zero input and output", cost: &Cost{}, expected: true},
		{name: "missing cost", cost: nil, expected: true},
		{name: "paid input", cost: &Cost{Input: 0.01}, expected: false},
		{name: "paid output", cost: &Cost{Output: 1.5}, expected: false},
		{name: "only cache is paid", cost: &Cost{CacheRead: 0.05}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Model{Cost: tt.cost}.IsFree())
		})
	}
}

func TestModel_Adapter(t *testing.T) {
	assert.Equal(t, AdapterGeneric, Model{}.Adapter())
	assert.Equal(t, AdapterAnthropic, Model{WireAdapter: AdapterAnthropic}.Adapter())
	assert.Equal(t, AdapterAnthropic, Model{Package: &PackageRef{NPM: "@ai-sdk/anthropic"}}.Adapter())
	assert.Equal(t, AdapterGeneric, Model{Package: &PackageRef{NPM: "@ai-sdk/openai-compatible"}}.Adapter())
	assert.Equal(t, AdapterGeneric, Model{WireAdapter: "something-new"}.Adapter())
}

func TestRegistry_Lookup(t *testing.T) {
	reg := Builtin()

	p, m, err := reg.Lookup("opencode", "big-pickle")
	require.NoError(t, err)
	assert.Equal(t, "https://opencode.ai/zen/v1", p.API)
	assert.Equal(t, "Big Pickle", m.Name)
	assert.True(t, m.IsFree())

	_, _, err = reg.Lookup("nope", "big-pickle")
	assert.ErrorIs(t, err, ErrProviderNotFound)

	_, _, err = reg.Lookup("opencode", "nope")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestRegistry_BuiltinAdapters(t *testing.T) {
	reg := Builtin()

	_, minimax, err := reg.Lookup("opencode", "minimax-m2.1-free")
	require.NoError(t, err)
	assert.Equal(t, AdapterAnthropic, minimax.Adapter())

	_, sonnet, err := reg.Lookup("anthropic", "claude-3-5-sonnet-20241022")
	require.NoError(t, err)
	assert.Equal(t, AdapterAnthropic, sonnet.Adapter())

	_, gpt, err := reg.Lookup("openai", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, AdapterGeneric, gpt.Adapter())
}

func TestRegistry_FreeOnly(t *testing.T) {
	free := Builtin().FreeOnly()

	_, err := free.Get("openai")
	assert.ErrorIs(t, err, ErrProviderNotFound, "openai has no free models")

	opencode, err := free.Get("opencode")
	require.NoError(t, err)
	assert.Len(t, opencode.Models, 5)

	for _, p := range free.List() {
		for id, m := range p.Models {
			assert.True(t, m.IsFree(), "model %s/%s should be free", p.ID, id)
		}
	}
}

func TestRegistry_ListIsSorted(t *testing.T) {
	list := Builtin().List()
	require.NotEmpty(t, list)

	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}
}

func TestProvider_AllModelsFree(t *testing.T) {
	reg := Builtin()

	opencode, _ := reg.Get("opencode")
	assert.True(t, opencode.AllModelsFree())
	assert.False(t, opencode.RequiresKey())

	openai, _ := reg.Get("openai")
	assert.False(t, openai.AllModelsFree())
	assert.True(t, openai.RequiresKey())

	assert.False(t, Provider{ID: "empty"}.AllModelsFree())
}

func TestRegistry_Merge(t *testing.T) {
	base := NewRegistry(Provider{
		ID:  "local",
		API: "http://localhost:1",
		Models: map[string]Model{
			"a": {Name: "A", Cost: &Cost{Input: 1, Output: 1}},
		},
	})

	merged := base.Merge(
		Provider{ID: "local", API: "http://localhost:2", Models: map[string]Model{"b": {Name: "B"}}},
		Provider{ID: "fresh", Name: "Fresh", Models: map[string]Model{}},
	)

	local, err := merged.Get("local")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:2", local.API)
	assert.Len(t, local.Models, 2)
	assert.Equal(t, "b", local.Models["b"].ID, "model id defaults to its key")

	_, err = merged.Get("fresh")
	assert.NoError(t, err)

	original, _ := base.Get("local")
	assert.Len(t, original.Models, 1, "merge must not mutate the base registry")
	assert.Equal(t, "http://localhost:1", original.API)
}

func TestDecode_ModelsDevJSON(t *testing.T) {
	doc := `{
		"acme": {
			"id": "acme",
			"name": "Acme",
			"api": "https://acme.example/v1",
			"models": {
				"rocket": {
					"id": "rocket",
					"name": "Rocket",
					"reasoning": true,
					"tool_call": true,
					"modalities": {"input": ["text"], "output": ["text"]},
					"cost": {"input": 0, "output": 0},
					"limit": {"context": 1000, "output": 100},
					"provider": {"npm": "@ai-sdk/anthropic"}
				}
			}
		}
	}`

	providers, err := Decode(strings.NewReader(doc), "json")
	require.NoError(t, err)
	require.Len(t, providers, 1)

	m := providers[0].Models["rocket"]
	assert.True(t, m.Reasoning)
	assert.True(t, m.IsFree())
	assert.Equal(t, 1000, m.ContextLimit())
	assert.Equal(t, AdapterAnthropic, m.Adapter())
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	overlay := `
opencode:
  api: "http://127.0.0.1:9999/v1"
  models:
    local-model:
      name: Local Model
      wire_adapter: anthropic
      cost:
        input: 0
        output: 0
`
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o644))

	reg, err := Load(path)
	require.NoError(t, err)

	p, m, err := reg.Lookup("opencode", "local-model")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999/v1", p.API)
	assert.Equal(t, "local-model", m.ID)
	assert.Equal(t, AdapterAnthropic, m.Adapter())

	_, _, err = reg.Lookup("opencode", "big-pickle")
	assert.NoError(t, err, "builtin models survive the overlay")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
