package types

import (
	"errors"
	"fmt"
)

// TransportError represents a network-level failure talking to an AI or
// embedding backend: connection errors, auth failures, rate limiting, 5xx.
// Transport errors are never retried by this core; they propagate to the
// caller immediately.
type TransportError struct {
	Provider   string
	HTTPStatus int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s: transport error (status %d): %s", e.Provider, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: transport error: %s", e.Provider, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// NewTransportError creates a TransportError for the given provider.
func NewTransportError(provider string, status int, message string, cause error) *TransportError {
	return &TransportError{Provider: provider, HTTPStatus: status, Message: message, Cause: cause}
}

// StructuredOutputError is raised by a provider when the model output could
// not be coerced into the requested JSON shape even after the provider's
// internal recovery heuristics. The enclosing RepeatUntil call counts it as
// a failed attempt.
type StructuredOutputError struct {
	Provider string
	Raw      string
	Cause    error
}

func (e *StructuredOutputError) Error() string {
	return fmt.Sprintf("%s: structured output could not be parsed: %v", e.Provider, e.Cause)
}

func (e *StructuredOutputError) Unwrap() error { return e.Cause }

// NewStructuredOutputError creates a StructuredOutputError for the given
// provider, keeping the raw model output for diagnostics.
func NewStructuredOutputError(provider, raw string, cause error) *StructuredOutputError {
	return &StructuredOutputError{Provider: provider, Raw: raw, Cause: cause}
}

// IsStructuredOutput reports whether err is a StructuredOutputError.
func IsStructuredOutput(err error) bool {
	var soErr *StructuredOutputError
	return errors.As(err, &soErr)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}
