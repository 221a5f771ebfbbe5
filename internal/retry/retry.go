// Package retry runs a unit of work under a fixed attempt budget with a
// constant pause between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted every attempt failed
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy retry configuration applied around one unit of work
type Policy struct {
	MaxAttempts int
	Delay       time.Duration

	// IsFinal marks errors that must not be retried. Nil means retry everything.
	IsFinal func(error) bool

	// OnFailure is called after each failed attempt, final ones included.
	OnFailure func(attempt int, err error)
}

// ExhaustedError last failure seen once the attempt budget is gone
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%v after %d attempts: %v", ErrExhausted, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrExhausted, e.Last}
}

// Do calls fn until it succeeds, returns a final error, or the budget is used up.
// It returns the value of the successful attempt and the number of attempts made.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, int, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return value, attempt, nil
		}
		lastErr = err

		if p.OnFailure != nil {
			p.OnFailure(attempt, err)
		}
		if p.IsFinal != nil && p.IsFinal(err) {
			return zero, attempt, err
		}
		if attempt == attempts {
			break
		}

		if err := sleep(ctx, p.Delay); err != nil {
			return zero, attempt, fmt.Errorf("retry interrupted: %w", err)
		}
	}

	return zero, attempts, &ExhaustedError{Attempts: attempts, Last: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
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
