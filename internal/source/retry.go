// Package source holds the outbound data collectors: the mailbox
// gateway, the schedule feed and the weather service. Each collector
// wraps a plain HTTP API, retries transient failures and degrades
// without aborting the run.
package source

import (
	"context"
	"fmt"
	"time"
)

// Retry is a fixed-attempt, fixed-delay retry policy. The zero value
// performs a single attempt with no delay.
type Retry struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetry matches the collectors' usual posture: three attempts,
// five seconds apart.
var DefaultRetry = Retry{Attempts: 3, Delay: 5 * time.Second}

// Do runs fn until it succeeds or the attempts are exhausted, sleeping
// Delay between attempts. Cancelled contexts abort the wait.
func (r Retry) Do(ctx context.Context, fn func() error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(r.Delay):
			case <-ctx.Done():
				return fmt.Errorf("source: retry: %w", ctx.Err())
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("source: %d attempts: %w", attempts, err)
}
