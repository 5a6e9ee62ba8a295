package retry

import (
	"context"
	"errors"
	"time"
)

// Policy bounds how many times an operation is attempted and how long to wait
// between attempts. The wait before retry i (0-based) is BaseDelay * 2^i.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration // 0 = uncapped
}

// Attempts returns the effective attempt count (at least 1).
func (p Policy) Attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the wait before the retry that follows the given 0-based attempt.
func (p Policy) Delay(attemptIndex int) time.Duration {
	if p.BaseDelay <= 0 || attemptIndex < 0 {
		return 0
	}
	delay := p.BaseDelay
	for i := 0; i < attemptIndex; i++ {
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
		// guard against overflow for very large attempt counts
		if delay > time.Duration(1<<62)/2 {
			return delay
		}
		delay *= 2
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type options struct {
	sleep   SleepFunc
	retryIf func(error) bool
	onRetry func(attempt int, delay time.Duration, err error)
}

// Option customizes a single Do call.
type Option func(*options)

// WithSleep overrides how waits are performed (useful for tests).
func WithSleep(fn SleepFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.sleep = fn
		}
	}
}

// WithRetryIf stops retrying as soon as fn reports false for an error.
func WithRetryIf(fn func(error) bool) Option {
	return func(o *options) {
		o.retryIf = fn
	}
}

// WithOnRetry registers a callback invoked before each wait. attempt is 1-based.
func WithOnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(o *options) {
		o.onRetry = fn
	}
}

// Do runs fn until it succeeds, the policy is exhausted, the error is not
// retryable, or ctx is done. The last failure is returned unchanged.
func Do[T any](ctx context.Context, policy Policy, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	o := options{sleep: Sleep}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	attempts := policy.Attempts()
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if i == attempts-1 || IsPermanent(err) {
			break
		}
		if o.retryIf != nil && !o.retryIf(err) {
			break
		}

		delay := policy.Delay(i)
		if o.onRetry != nil {
			o.onRetry(i+1, delay, err)
		}
		if err := o.sleep(ctx, delay); err != nil {
			return zero, lastErr
		}
	}
	return zero, lastErr
}

// Sleep waits for d, returning early with ctx.Err() if ctx is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// permanentError marks an error as not eligible for retries.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do stops retrying immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err (or anything it wraps) was marked Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
