// Package retry repeats an operation with exponential backoff.  The
// connect mode uses it to retry a refused or unreachable dial.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// PermanentError stops [Backoff.Do] immediately; the wrapped error is
// returned as is.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as not worth retrying.  Permanent(nil) is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked with [Permanent].
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Backoff describes a retry schedule.  The zero value makes a single
// attempt.
type Backoff struct {
	// Retries is how many extra attempts follow the first one.
	Retries int
	// InitialDelay is the wait before the first retry (default 500ms).
	InitialDelay time.Duration
	// MaxDelay caps the wait between attempts (default 10s).
	MaxDelay time.Duration
	// Multiplier grows the wait after each retry (default 2).
	Multiplier float64
	// Jitter randomises each wait by ±25%.
	Jitter bool
	// OnRetry, if set, is called before sleeping with the failed
	// attempt number (1-based), its error and the upcoming wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultBackoff returns the schedule used for dial retries.
func DefaultBackoff(retries int) *Backoff {
	return &Backoff{
		Retries:      retries,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Jitter:       true,
	}
}

// Do calls fn until it returns nil, returns a [Permanent] error, the
// retries are used up, or ctx is done.  attempt is 1-based.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	delay := b.InitialDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}
	multiplier := b.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return errors.Unwrap(err)
		}
		if attempt > b.Retries {
			if b.Retries == 0 {
				return err
			}
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}

		wait := delay
		if b.Jitter {
			wait = jitter(delay)
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}

		delay = time.Duration(math.Min(float64(delay)*multiplier, float64(maxDelay)))
	}
}

// jitter returns d ±25%, never below a millisecond.
func jitter(d time.Duration) time.Duration {
	spread := float64(d) / 4
	v := float64(d) + (rand.Float64()*2-1)*spread
	return time.Duration(math.Max(v, float64(time.Millisecond)))
}
