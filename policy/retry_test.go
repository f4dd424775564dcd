package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/unidb/types"
)

var (
	errTransient = errors.New("transient")
	errFatal     = errors.New("fatal")
)

func classify(err error) types.ErrorClass {
	if errors.Is(err, errTransient) {
		return types.Retryable
	}

	return types.Terminal
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  2 * time.Millisecond,
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	attempts, err := Do(context.Background(), fastPolicy(3), classify, nil, func(_ context.Context, _ int) error {
		calls++
		if calls < 3 {
			return errTransient
		}

		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, attempts)
	require.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	attempts, err := Do(context.Background(), fastPolicy(3), classify, nil, func(_ context.Context, _ int) error {
		calls++
		return errTransient
	})

	require.ErrorIs(t, err, errTransient)
	require.Equal(t, 3, attempts)
	require.Equal(t, 3, calls)
}

func TestDoTerminalNotRetried(t *testing.T) {
	calls := 0
	attempts, err := Do(context.Background(), fastPolicy(5), classify, nil, func(_ context.Context, _ int) error {
		calls++
		return errFatal
	})

	require.ErrorIs(t, err, errFatal)
	require.Equal(t, 1, attempts)
	require.Equal(t, 1, calls)
}

func TestDoOnBackoffPerRetry(t *testing.T) {
	backoffs := 0
	_, err := Do(context.Background(), fastPolicy(3), classify, func() { backoffs++ }, func(_ context.Context, _ int) error {
		return errTransient
	})

	require.ErrorIs(t, err, errTransient)
	require.Equal(t, 2, backoffs) // no backoff after the final attempt
}

func TestDoCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Hour, MaxBackoff: time.Hour}
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, p, classify, nil, func(_ context.Context, _ int) error {
			return errTransient
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDoAttemptNumbers(t *testing.T) {
	var seen []int
	_, _ = Do(context.Background(), fastPolicy(3), classify, nil, func(_ context.Context, attempt int) error {
		seen = append(seen, attempt)
		return errTransient
	})

	require.Equal(t, []int{1, 2, 3}, seen)
}

func TestBackoffBounds(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts: 5,
		BaseBackoff: 10 * time.Millisecond,
		MaxBackoff:  80 * time.Millisecond,
	}

	for attempt := 1; attempt <= 10; attempt++ {
		d := p.Backoff(attempt)
		require.GreaterOrEqual(t, d, 10*time.Millisecond)
		// Cap plus maximum 50% jitter.
		require.LessOrEqual(t, d, 120*time.Millisecond)
	}
}

func TestZeroPolicyBehavesLikeSingleAttempt(t *testing.T) {
	calls := 0
	attempts, err := Do(context.Background(), RetryPolicy{}, classify, nil, func(_ context.Context, _ int) error {
		calls++
		return errTransient
	})

	require.ErrorIs(t, err, errTransient)
	require.Equal(t, 1, attempts)
	require.Equal(t, 1, calls)
}
