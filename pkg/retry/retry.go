// Package retry runs an operation again after transient failures, with
// exponential backoff and optional jitter. Its main consumer is the set of
// event handlers that lose optimistic-lock races on shared aggregates.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryableError marks an error as safe to retry.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so the default policy retries it. Returns nil for nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err carries the retryable marker.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// PermanentError marks an error as not worth retrying.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so no further attempts are made. Returns nil for nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err carries the permanent marker.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// settings is the resolved retry policy for one Retrier.
type settings struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitterFactor float64

	// retryIf overrides the default policy of retrying only RetryableError.
	retryIf func(error) bool

	// onRetry is invoked before each sleep, for logging or metrics.
	onRetry func(attempt int, err error, delay time.Duration)
}

func defaultSettings() settings {
	return settings{
		maxAttempts:  3,
		initialDelay: 100 * time.Millisecond,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		jitterFactor: 0.1,
	}
}

// Option adjusts the retry policy.
type Option func(*settings)

// WithMaxAttempts sets the total number of attempts, first try included.
func WithMaxAttempts(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithInitialDelay sets the sleep before the second attempt.
func WithInitialDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.initialDelay = d
		}
	}
}

// WithMaxDelay caps the backoff.
func WithMaxDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.maxDelay = d
		}
	}
}

// WithMultiplier sets the backoff growth factor. Values below 1 are ignored.
func WithMultiplier(m float64) Option {
	return func(s *settings) {
		if m >= 1.0 {
			s.multiplier = m
		}
	}
}

// WithJitter sets the jitter factor in [0, 1]. Zero disables jitter,
// which the unit tests rely on for deterministic delays.
func WithJitter(j float64) Option {
	return func(s *settings) {
		if j >= 0 && j <= 1.0 {
			s.jitterFactor = j
		}
	}
}

// WithRetryIf replaces the default classifier. When set, the RetryableError
// marker is no longer consulted; fn alone decides.
func WithRetryIf(fn func(error) bool) Option {
	return func(s *settings) { s.retryIf = fn }
}

// WithOnRetry registers a callback invoked before each retry sleep.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(s *settings) { s.onRetry = fn }
}

// Retrier executes operations under a fixed retry policy.
type Retrier struct {
	cfg settings
}

// New builds a Retrier from the defaults plus opts.
func New(opts ...Option) *Retrier {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Retrier{cfg: cfg}
}

// Do runs operation until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. The Retryable and Permanent wrappers are stripped
// before returning so callers can match their own sentinel errors.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsPermanent(err) {
			return errors.Unwrap(err)
		}
		if !r.shouldRetry(err) {
			return err
		}
		if attempt == r.cfg.maxAttempts {
			if IsRetryable(err) {
				return errors.Unwrap(err)
			}
			return err
		}

		delay := r.calculateDelay(attempt)
		if r.cfg.onRetry != nil {
			r.cfg.onRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
	}

	return lastErr
}

func (r *Retrier) shouldRetry(err error) bool {
	if r.cfg.retryIf != nil {
		return r.cfg.retryIf(err)
	}
	return IsRetryable(err)
}

// calculateDelay returns initialDelay * multiplier^(attempt-1), capped at
// maxDelay, with +/- jitterFactor of randomness applied.
func (r *Retrier) calculateDelay(attempt int) time.Duration {
	delay := float64(r.cfg.initialDelay) * math.Pow(r.cfg.multiplier, float64(attempt-1))
	delay = math.Min(delay, float64(r.cfg.maxDelay))

	if r.cfg.jitterFactor > 0 {
		delay += delay * r.cfg.jitterFactor * (rand.Float64()*2 - 1)
	}

	return time.Duration(math.Max(delay, 0))
}

// DoWithData is Do for operations that produce a value alongside the error.
func DoWithData[T any](ctx context.Context, operation func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var result T
	err := New(opts...).Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = operation(ctx)
		return opErr
	})
	return result, err
}

// OptimisticLockRetrier returns a Retrier tuned for version conflicts between
// concurrent writers. Delays stay short: the competing write has usually
// committed by the time the loser reloads.
func OptimisticLockRetrier() *Retrier {
	return New(
		WithMaxAttempts(5),
		WithInitialDelay(10*time.Millisecond),
		WithMaxDelay(500*time.Millisecond),
		WithMultiplier(2.0),
		WithJitter(0.1),
	)
}
