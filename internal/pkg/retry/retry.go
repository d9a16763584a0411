// Package retry runs an operation under an explicit retry policy with a
// fixed wait between attempts. The operation reports a tagged outcome
// (done, retry again, or fatal) so the policy drives the loop instead of
// errors controlling flow.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/vnbi/hco-tools/internal/pkg/logger"
)

// Outcome tells the policy loop what to do after an attempt.
type Outcome int

const (
	// Done stops the loop; the operation finished.
	Done Outcome = iota
	// Again waits and re-runs the operation.
	Again
	// Fatal stops the loop; the operation cannot succeed.
	Fatal
)

// Policy describes how an operation is retried.
// MaxAttempts 0 means unbounded (retried while the operation reports Again).
type Policy struct {
	MaxAttempts int
	Wait        time.Duration
}

// Do runs fn under the policy. The error returned by the final attempt is
// wrapped with the operation name; fn is responsible for capturing any
// result values.
func Do(ctx context.Context, op string, p Policy, fn func() (Outcome, error)) error {
	var lastErr error

	for attempt := 1; p.MaxAttempts == 0 || attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		outcome, err := fn()
		switch outcome {
		case Done:
			return nil
		case Fatal:
			return fmt.Errorf("%s: %w", op, err)
		}
		lastErr = err

		if p.MaxAttempts != 0 && attempt == p.MaxAttempts {
			break
		}

		logger.Debug("retrying", "op", op, "attempt", attempt, "wait", p.Wait.String())
		timer := time.NewTimer(p.Wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("gave up after %d attempts", p.MaxAttempts)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}
