// Package retry provides a generic exponential-backoff wrapper.
package retry

import "time"

// Options configures Do.
type Options struct {
	// MaxRetries is the number of retries after the first attempt, so the
	// function runs at most MaxRetries+1 times.
	MaxRetries int
	// BaseDelay is the first backoff delay; attempt n waits
	// BaseDelay * 2^(n-1).
	BaseDelay time.Duration
	// ShouldRetry decides whether a failure is worth retrying. A nil
	// predicate never retries.
	ShouldRetry func(err error) bool
	// OnRetry reports progress; it is invoked before each backoff delay
	// with the attempt number (counted from 1) and MaxRetries.
	OnRetry func(attempt, maxRetries int)
	// Sleep is the delay function, injectable for tests. Defaults to
	// time.Sleep.
	Sleep func(d time.Duration)
}

// Do runs fn, retrying with pure exponential backoff. On failure it
// rethrows immediately (no delay) once attempts are exhausted or
// ShouldRetry declines; otherwise it reports progress, sleeps, and runs
// fn again.
func Do[T any](fn func() (T, error), opts Options) (T, error) {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var zero T
	for attempt := 1; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt > opts.MaxRetries || opts.ShouldRetry == nil || !opts.ShouldRetry(err) {
			return zero, err
		}
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, opts.MaxRetries)
		}
		sleep(opts.BaseDelay * (1 << (attempt - 1)))
	}
}
