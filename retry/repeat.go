// Package retry implements the bounded-retry protocol used for every AI call
// whose output must conform to a structural contract. The model's first
// answer is never trusted: the call is repeated until a caller-supplied
// condition accepts the result, or the attempt budget runs out.
package retry

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DefaultMaxAttempts is the attempt budget applied when none is configured.
const DefaultMaxAttempts = 5

// MaxAttemptsError is returned when no attempt satisfied the condition.
// It is fatal for the enclosing pipeline stage.
type MaxAttemptsError struct {
	Attempts int
	LastErr  error
}

func (e *MaxAttemptsError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("condition not met after %d attempts, last error: %v", e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("condition not met after %d attempts", e.Attempts)
}

func (e *MaxAttemptsError) Unwrap() error { return e.LastErr }

// Outcome is the explicit result of a RepeatUntil call: the accepted value
// and how many attempts it took to obtain it.
type Outcome[T any] struct {
	Value    T
	Attempts int
	Accepted bool
}

type options struct {
	maxAttempts int
	retryOn     func(error) bool
	logger      *zap.Logger
}

// Option configures a RepeatUntil call.
type Option func(*options)

// WithMaxAttempts overrides the attempt budget.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithRetryOn makes errors matching pred count as failed attempts instead of
// aborting the call. Errors not matching pred always propagate immediately.
func WithRetryOn(pred func(error) bool) Option {
	return func(o *options) { o.retryOn = pred }
}

// WithLogger sets the logger used for per-attempt warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// RepeatUntil calls fn until condition accepts its result.
//
// Each call counts as one attempt. A result rejected by condition triggers
// another attempt. An error from fn propagates immediately unless a
// WithRetryOn predicate matches it, in which case the attempt is counted as
// failed. When the budget is exhausted a *MaxAttemptsError is returned and
// Outcome.Accepted is false; Outcome.Attempts is always populated.
func RepeatUntil[T any](
	ctx context.Context,
	fn func(context.Context) (T, error),
	condition func(T) bool,
	opts ...Option,
) (Outcome[T], error) {
	o := options{maxAttempts: DefaultMaxAttempts, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Outcome[T]{Attempts: attempt - 1}, err
		}

		value, err := fn(ctx)
		if err != nil {
			if o.retryOn != nil && o.retryOn(err) {
				lastErr = err
				o.logger.Warn("attempt failed with retryable error",
					zap.Int("attempt", attempt),
					zap.Error(err))
				continue
			}
			return Outcome[T]{Attempts: attempt}, err
		}

		if condition(value) {
			return Outcome[T]{Value: value, Attempts: attempt, Accepted: true}, nil
		}

		lastErr = nil
		o.logger.Warn("attempt result rejected by condition",
			zap.Int("attempt", attempt))
	}

	return Outcome[T]{Attempts: o.maxAttempts}, &MaxAttemptsError{Attempts: o.maxAttempts, LastErr: lastErr}
}

// Call retries fn on any error, without a condition check. It is the
// error-driven sibling of RepeatUntil for calls that either succeed or fail
// outright (e.g. embedding requests).
func Call[T any](
	ctx context.Context,
	fn func(context.Context) (T, error),
	opts ...Option,
) (T, error) {
	o := options{maxAttempts: DefaultMaxAttempts, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err
		o.logger.Warn("call attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return zero, &MaxAttemptsError{Attempts: o.maxAttempts, LastErr: lastErr}
}
