// Package providers defines the uniform chat-completion contract that hides
// backend-specific token accounting, JSON-mode support and recovery quirks.
// Concrete backends live in subpackages; the prefix-keyed constructor lives
// in providers/factory.
package providers

import (
	"context"

	"github.com/saninsteinn/assistbot/types"
)

// DefaultMaxTokens is applied when a request does not set a completion
// budget.
const DefaultMaxTokens = 1024

// Request describes one chat-completion call.
type Request struct {
	Messages   []types.Message
	MaxTokens  int  // 0 means DefaultMaxTokens
	JSONFormat bool // constrain the model to a JSON object response
}

// AIProvider is the uniform contract over heterogeneous LLM backends.
//
// GetResponse returns a *types.StructuredOutputError when a JSON-mode
// response cannot be repaired by the backend's internal recovery heuristics;
// transport-level failures surface as *types.TransportError without any
// internal retry.
type AIProvider interface {
	GetResponse(ctx context.Context, req *Request) (*types.AIResponse, error)
	// CalculateTokens approximates the token count of text for this backend's
	// model.
	CalculateTokens(text string) int
	// ContextSize is the model's maximum combined input+output token window.
	ContextSize() int
	// Model returns the configured model identifier.
	Model() string
}

// AttemptRecorder is an optional interface for providers that run internal
// JSON repair loops. The debug telemetry layer reads per-call attempt counts
// through it.
type AttemptRecorder interface {
	// CallAttempts returns the attempt count of each GetResponse call since
	// the last reset.
	CallAttempts() []int
	// ResetCallAttempts clears the recorded counts.
	ResetCallAttempts()
}

// EffectiveMaxTokens returns the completion budget of the request.
func (r *Request) EffectiveMaxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return DefaultMaxTokens
}
