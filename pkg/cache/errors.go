package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork is returned when a remote cache backend cannot be reached.
var ErrNetwork = errors.New("cache backend unreachable")

// RetryableError marks a transient backend failure, such as a dropped Redis
// connection or a MongoDB primary election, that may succeed when tried again.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff spaces out attempts at a run store or cache operation. Only errors
// wrapped with [Retryable] are tried again.
type Backoff struct {
	Attempts int           // total tries, including the first
	Delay    time.Duration // wait after the first failure, doubled after each retry
	Max      time.Duration // upper bound on a single wait; zero means none

	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// RunBackoff is used for saving and loading runs. Its five tries span about
// two and a half seconds, the length of a MongoDB replica set election.
var RunBackoff = Backoff{Attempts: 5, Delay: 200 * time.Millisecond, Max: time.Second}

// Retry calls fn until it succeeds, fails with a non-retryable error, the
// attempts are used up, or ctx is done.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var lastErr error

	for i := 1; i <= attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}
		if i == attempts {
			break
		}

		wait := delay
		if b.Max > 0 && wait > b.Max {
			wait = b.Max
		}
		if b.OnRetry != nil {
			b.OnRetry(i, wait, lastErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			delay *= 2
		}
	}
	return lastErr
}
