// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand"
	"time"

	"github.com/jllopis/metacrew/pkg/errors"
)

// RetryPolicy controls how often a task handler is attempted.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (values < 1 mean 1).
	MaxAttempts int

	// InitialDelay is the backoff before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the exponential backoff delay.
	MaxDelay time.Duration

	// Multiplier for exponential backoff (default 2.0).
	Multiplier float64

	// Jitter adds randomness to backoff; 0.1 means ±10%.
	Jitter float64
}

// DefaultRetryPolicy runs each task once.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  1,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// do runs fn until it succeeds, fails with a non-recoverable error, or the
// attempts are exhausted. It returns the attempts made and the last error.
func (p RetryPolicy) do(ctx context.Context, fn func() error) (int, error) {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return attempt, errors.New(errors.CodeContextLost, "context canceled during retry", ctx.Err()).
					WithContext("attempt", attempt).
					WithContext("max_attempts", p.MaxAttempts)
			case <-time.After(p.backoff(attempt)):
			}
		}

		err := fn()
		if err == nil {
			return attempt + 1, nil
		}
		lastErr = err
		if !recoverable(err) {
			return attempt + 1, err
		}
	}
	return p.MaxAttempts, lastErr
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	mult := p.Multiplier
	if mult == 0 {
		mult = 2.0
	}
	delay := time.Duration(float64(p.InitialDelay) * math.Pow(mult, float64(attempt-1)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter > 0 {
		spread := float64(delay) * p.Jitter
		delay = time.Duration(float64(delay) + 2*spread*(rand.Float64()-0.5))
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

// recoverable trusts the flag on a CrewError; any other error is retried.
func recoverable(err error) bool {
	if err == nil {
		return false
	}
	var ce *errors.CrewError
	if stderrors.As(err, &ce) {
		return ce.Recoverable
	}
	return true
}

// withTimeout runs fn under a deadline. A zero duration disables it.
func withTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) (any, error)) (any, error) {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		out any
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := fn(ctx)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.New(errors.CodeTimeout, "task exceeded timeout", ctx.Err()).
			WithContext("timeout", d.String()).
			WithRecoverable(true)
	case r := <-done:
		return r.out, r.err
	}
}
