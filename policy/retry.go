package policy

import (
	"context"
	"math/rand"
	"time"

	"github.com/arloliu/unidb/types"
)

// RetryPolicy bounds retry behavior for one logical operation.
//
// The policy is immutable and attached per operation, not global; a zero
// value makes a single attempt with default backoff bounds.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 are treated as 1 (no retries).
	MaxAttempts int

	// BaseBackoff is the delay before the first retry; each subsequent
	// delay doubles. Default: 50ms.
	BaseBackoff time.Duration

	// MaxBackoff caps the per-retry delay. Default: 2s.
	MaxBackoff time.Duration
}

// Default returns the default retry policy: 3 attempts, 50ms base backoff,
// 2s ceiling.
func Default() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: 50 * time.Millisecond,
		MaxBackoff:  2 * time.Second,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = 50 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 2 * time.Second
	}

	return p
}

// Backoff returns the jittered delay before the given retry.
//
// Parameters:
//   - attempt: The 1-based attempt that just failed
//
// Returns:
//   - time.Duration: Exponential delay capped at MaxBackoff, with up to
//     50% additive jitter to avoid thundering herds
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	p = p.withDefaults()

	d := p.BaseBackoff << (attempt - 1)
	if d > p.MaxBackoff || d <= 0 {
		d = p.MaxBackoff
	}

	jitter := time.Duration(rand.Int63n(int64(d)/2 + 1))

	return d + jitter
}

// Classifier determines the retry class of a backend failure.
type Classifier func(err error) types.ErrorClass

// Attempt executes one attempt of a retried operation.
//
// The attempt number is 1-based so instrumentation can count attempts
// separately.
type Attempt func(ctx context.Context, attempt int) error

// Do runs op under the policy, re-issuing Retryable failures with backoff
// until the attempt budget is exhausted.
//
// Parameters:
//   - ctx: Context for cancellation; backoff sleeps are cancellation-aware
//   - p: The retry policy for this logical operation
//   - classify: The backend's failure classifier
//   - onBackoff: Called before each backoff delay (may be nil)
//   - op: The operation attempt
//
// Returns:
//   - int: Number of attempts made
//   - error: nil on success; the last failure once Terminal or exhausted;
//     the context error if cancelled during backoff
func Do(ctx context.Context, p RetryPolicy, classify Classifier, onBackoff func(), op Attempt) (int, error) {
	p = p.withDefaults()

	var err error
	for attempt := 1; ; attempt++ {
		err = op(ctx, attempt)
		if err == nil {
			return attempt, nil
		}

		if classify(err) != types.Retryable || attempt >= p.MaxAttempts {
			return attempt, err
		}

		// A cancelled caller gets the failure back, not another attempt.
		if ctx.Err() != nil {
			return attempt, err
		}

		if onBackoff != nil {
			onBackoff()
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		}
	}
}
