// Package types provides the core conversation types shared across the
// assistbot packages. This package has no dependencies on other assistbot
// packages to avoid circular imports.
package types

// Role represents the role of a message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single conversation message. A conversation is an
// ordered slice of messages. Pipeline stages append new system messages
// rather than mutating history; the only sanctioned mutation is rewriting
// the latest user question text.
type Message struct {
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // base64-encoded
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// WithSystemMessage returns a new slice with a system message appended.
// The input slice is not modified.
func WithSystemMessage(messages []Message, content string) []Message {
	out := make([]Message, 0, len(messages)+1)
	out = append(out, messages...)
	out = append(out, NewSystemMessage(content))
	return out
}
