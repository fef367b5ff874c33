package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewTransportError("ollama", 0, "connection refused", cause)

	assert.Contains(t, err.Error(), "ollama")
	assert.True(t, IsTransport(err))
	assert.False(t, IsStructuredOutput(err))
	assert.ErrorIs(t, err, cause)
}

func TestTransportError_WithStatus(t *testing.T) {
	t.Parallel()

	err := NewTransportError("openai", 429, "rate limited", nil)
	assert.Contains(t, err.Error(), "429")
}

func TestStructuredOutputError(t *testing.T) {
	t.Parallel()

	cause := errors.New("unexpected end of JSON input")
	err := NewStructuredOutputError("ollama", `{"topic": "Bro`, cause)

	assert.True(t, IsStructuredOutput(err))
	assert.False(t, IsTransport(err))
	assert.ErrorIs(t, err, cause)
}

func TestIsStructuredOutput_Wrapped(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("stage classify: %w", NewStructuredOutputError("groq", "", nil))
	assert.True(t, IsStructuredOutput(err))
}
