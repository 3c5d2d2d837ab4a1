package booking

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/cinepass/boxoffice/internal/fault"
)

// Retry wraps a transactional block with exponential backoff. Only failures
// the fault package classifies as retryable (store conflicts, lost
// connectivity) are attempted again; everything else propagates on the
// first occurrence.
type Retry struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor int
	MaxDelay      time.Duration
}

// Do runs op up to MaxAttempts times. Each backoff sleeps at least half the
// current delay plus random jitter up to the full delay, so contending
// retriers spread out instead of colliding again in lockstep.
func (r Retry) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := r.InitialDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	var err error
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil || !fault.IsRetryable(err) || attempt == attempts {
			return err
		}
		sleep := delay/2 + time.Duration(rand.Int64N(int64(delay/2)+1))
		select {
		case <-ctx.Done():
			return fault.Wrap(fault.KindTimeout, ctx.Err(), "retry aborted")
		case <-time.After(sleep):
		}
		factor := r.BackoffFactor
		if factor < 1 {
			factor = 1
		}
		delay *= time.Duration(factor)
		if r.MaxDelay > 0 && delay > r.MaxDelay {
			delay = r.MaxDelay
		}
	}
}
