package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithWriter(&buf))

	l.Info("hello", "key", "value")
	l.Debug("hidden")

	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "key=value")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_Debug(t *testing.T) {
	var buf bytes.Buffer
	New(WithWriter(&buf), WithDebug(true)).Debug("debug msg")

	assert.Contains(t, buf.String(), "debug msg")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(WithWriter(&buf), WithJSON(true), WithPretty(true)).Info("structured", "count", 42)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "structured", parsed["msg"])
	assert.EqualValues(t, 42, parsed["count"])
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	New(WithWriter(&buf), WithPretty(true)).Info("pretty output", "provider", "opencode")

	assert.Contains(t, buf.String(), "pretty output")
	assert.Contains(t, buf.String(), "opencode")
}

func TestNew_Writers(t *testing.T) {
	var a, b bytes.Buffer
	New(WithWriters(&a, &b)).Info("multi")

	assert.Contains(t, a.String(), "multi")
	assert.Contains(t, b.String(), "multi")
}

func TestNop(t *testing.T) {
	l := Nop()
	assert.False(t, l.Handler().Enabled(context.Background(), slog.LevelError))
	assert.NotPanics(t, func() { l.With("k", "v").WithGroup("g").Error("msg") })
}

func TestMulti(t *testing.T) {
	var text, js bytes.Buffer
	l := Multi(
		New(WithWriter(&text)),
		New(WithWriter(&js), WithJSON(true), WithDebug(true)),
	).With("component", "relay")

	l.Debug("only json")
	l.Info("both")

	assert.NotContains(t, text.String(), "only json")
	assert.Contains(t, text.String(), "component=relay")
	assert.Contains(t, js.String(), "only json")
	assert.Contains(t, js.String(), `"component":"relay"`)
}
