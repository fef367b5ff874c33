package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRepeatUntil_ConditionNeverMet(t *testing.T) {
	t.Parallel()

	calls := 0
	outcome, err := RepeatUntil(context.Background(),
		func(ctx context.Context) (int, error) {
			calls++
			return calls, nil
		},
		func(int) bool { return false },
		WithMaxAttempts(3),
	)

	var maxErr *MaxAttemptsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 3, maxErr.Attempts)
	assert.Equal(t, 3, calls, "the wrapped function must be invoked exactly max_attempts times")
	assert.False(t, outcome.Accepted)
	assert.Equal(t, 3, outcome.Attempts)
}

func TestRepeatUntil_ConditionMetOnSecondCall(t *testing.T) {
	t.Parallel()

	calls := 0
	outcome, err := RepeatUntil(context.Background(),
		func(ctx context.Context) (int, error) {
			calls++
			return calls, nil
		},
		func(v int) bool { return v == 2 },
	)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, outcome.Accepted)
	assert.Equal(t, 2, outcome.Value)
	assert.Equal(t, 2, outcome.Attempts)
}

func TestRepeatUntil_ErrorPropagatesImmediately(t *testing.T) {
	t.Parallel()

	boom := errors.New("rate limited")
	calls := 0
	_, err := RepeatUntil(context.Background(),
		func(ctx context.Context) (int, error) {
			calls++
			return 0, boom
		},
		func(int) bool { return true },
	)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "errors without a RetryOn predicate must not be retried")
}

func TestRepeatUntil_RetryOnMatchingError(t *testing.T) {
	t.Parallel()

	retryable := errors.New("malformed JSON")
	calls := 0
	outcome, err := RepeatUntil(context.Background(),
		func(ctx context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, retryable
			}
			return 42, nil
		},
		func(v int) bool { return v == 42 },
		WithRetryOn(func(err error) bool { return errors.Is(err, retryable) }),
	)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 42, outcome.Value)
	assert.Equal(t, 3, outcome.Attempts)
}

func TestRepeatUntil_RetryOnExhausted(t *testing.T) {
	t.Parallel()

	retryable := errors.New("malformed JSON")
	_, err := RepeatUntil(context.Background(),
		func(ctx context.Context) (int, error) { return 0, retryable },
		func(int) bool { return true },
		WithMaxAttempts(2),
		WithRetryOn(func(err error) bool { return errors.Is(err, retryable) }),
	)

	var maxErr *MaxAttemptsError
	require.ErrorAs(t, err, &maxErr)
	assert.ErrorIs(t, err, retryable, "the last retryable error must be preserved as the cause")
}

func TestRepeatUntil_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := RepeatUntil(ctx,
		func(ctx context.Context) (int, error) {
			calls++
			return 0, nil
		},
		func(int) bool { return false },
	)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestRepeatUntil_AttemptsBounded(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		maxAttempts := rapid.IntRange(1, 10).Draw(t, "maxAttempts")
		acceptAt := rapid.IntRange(1, 15).Draw(t, "acceptAt")

		calls := 0
		outcome, err := RepeatUntil(context.Background(),
			func(ctx context.Context) (int, error) {
				calls++
				return calls, nil
			},
			func(v int) bool { return v >= acceptAt },
			WithMaxAttempts(maxAttempts),
		)

		if acceptAt <= maxAttempts {
			if err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if outcome.Attempts != acceptAt || calls != acceptAt {
				t.Fatalf("expected exactly %d attempts, got outcome=%d calls=%d", acceptAt, outcome.Attempts, calls)
			}
		} else {
			var maxErr *MaxAttemptsError
			if !errors.As(err, &maxErr) {
				t.Fatalf("expected MaxAttemptsError, got %v", err)
			}
			if calls != maxAttempts {
				t.Fatalf("expected exactly %d calls, got %d", maxAttempts, calls)
			}
		}
	})
}

func TestCall_RetriesOnError(t *testing.T) {
	t.Parallel()

	calls := 0
	v, err := Call(context.Background(),
		func(ctx context.Context) (string, error) {
			calls++
			if calls < 2 {
				return "", errors.New("transient")
			}
			return "ok", nil
		},
	)

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)
}

func TestCall_Exhausted(t *testing.T) {
	t.Parallel()

	boom := errors.New("down")
	_, err := Call(context.Background(),
		func(ctx context.Context) (string, error) { return "", boom },
		WithMaxAttempts(3),
	)

	var maxErr *MaxAttemptsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 3, maxErr.Attempts)
	assert.ErrorIs(t, err, boom)
}
