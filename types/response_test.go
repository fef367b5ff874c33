package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIResponse_StringField(t *testing.T) {
	t.Parallel()

	resp := &AIResponse{JSON: map[string]any{"topic": "Store Info", "n": 3.0}}

	s, ok := resp.StringField("topic")
	assert.True(t, ok)
	assert.Equal(t, "Store Info", s)

	_, ok = resp.StringField("n")
	assert.False(t, ok)

	_, ok = resp.StringField("missing")
	assert.False(t, ok)
}

func TestAIResponse_IntField(t *testing.T) {
	t.Parallel()

	resp := &AIResponse{JSON: map[string]any{
		"question": 2.0,
		"frac":     2.5,
		"str":      "2",
	}}

	n, ok := resp.IntField("question")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = resp.IntField("frac")
	assert.False(t, ok, "fractional numbers are not integers")

	_, ok = resp.IntField("str")
	assert.False(t, ok)
}

func TestAIResponse_NullField(t *testing.T) {
	t.Parallel()

	resp := &AIResponse{JSON: map[string]any{"question": nil}}

	assert.True(t, resp.NullField("question"))
	assert.False(t, resp.NullField("missing"))
}

func TestAIResponse_StringSliceField(t *testing.T) {
	t.Parallel()

	resp := &AIResponse{JSON: map[string]any{
		"documents": []any{"a", "b"},
		"mixed":     []any{"a", 1.0},
		"empty":     []any{},
	}}

	docs, ok := resp.StringSliceField("documents")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, docs)

	_, ok = resp.StringSliceField("mixed")
	assert.False(t, ok)

	empty, ok := resp.StringSliceField("empty")
	assert.True(t, ok)
	assert.Empty(t, empty)
}

func TestAIResponse_Model(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", (&AIResponse{}).Model())
	assert.Equal(t, "gpt-4o-mini", (&AIResponse{Usage: &TokenUsage{Model: "gpt-4o-mini"}}).Model())
}
