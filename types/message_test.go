package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithSystemMessage_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	original := []Message{
		NewUserMessage("hello"),
		NewAssistantMessage("hi"),
	}

	out := WithSystemMessage(original, "instruction")

	require.Len(t, out, 3)
	assert.Equal(t, RoleSystem, out[2].Role)
	assert.Equal(t, "instruction", out[2].Content)

	// Input slice stays untouched.
	require.Len(t, original, 2)
	assert.Equal(t, RoleUser, original[0].Role)
}

func TestMessageConstructors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Message{Role: RoleSystem, Content: "s"}, NewSystemMessage("s"))
	assert.Equal(t, Message{Role: RoleUser, Content: "u"}, NewUserMessage("u"))
	assert.Equal(t, Message{Role: RoleAssistant, Content: "a"}, NewAssistantMessage("a"))
}
