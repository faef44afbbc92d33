// Package retry runs fallible operations under a fixed-delay attempt budget.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/spachava753/benchbuild/internal/models"
)

// Policy bounds how often an operation is attempted. It is immutable after construction.
type Policy struct {
	MaxAttempts int           // total attempts, including the first
	Delay       time.Duration // pause between consecutive attempts
}

// FromConfig builds a policy from configuration values.
func FromConfig(cfg models.RetryConfig) Policy {
	return Policy{MaxAttempts: cfg.MaxAttempts, Delay: cfg.Delay()}
}

// Validate ensures invariants; returns error if the policy is impossible to apply.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.Delay < 0 {
		return fmt.Errorf("delay cannot be negative, got %v", p.Delay)
	}
	return nil
}

// Func is one attempt of an operation. attempt is 1-based.
type Func func(ctx context.Context, attempt int) error

// Do calls fn until it succeeds or MaxAttempts is reached, sleeping Delay in
// between. It returns the number of attempts made and the last error.
// Cancellation of ctx stops the loop during a delay.
func (p Policy) Do(ctx context.Context, fn Func) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if attempt == p.MaxAttempts {
			return attempt, lastErr
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return attempt, lastErr
		}
	}
	return p.MaxAttempts, lastErr
}

// Sleep pauses for d, returning early with ctx.Err() if ctx is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
