package tracer

import (
	"context"
	"fmt"
	"time"
)

// WaitPolicy controls how Wait polls an asynchronous tracer.
type WaitPolicy struct {
	// Delay before the first re-poll; doubled after every poll up to MaxInterval.
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Give up after this long. A zero value disables the timeout.
	Timeout time.Duration
}

// The default polling policy. It does not enforce a timeout.
func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{
		InitialInterval: 10 * time.Microsecond,
		MaxInterval:     time.Millisecond,
	}
}

// Block until tr reports completion, the policy timeout expires or ctx is
// cancelled.
func Wait(ctx context.Context, tr Tracer, policy WaitPolicy) error {
	if tr.IsDone() {
		return nil
	}

	if policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.Timeout)
		defer cancel()
	}

	interval := policy.InitialInterval
	if interval <= 0 {
		interval = time.Microsecond
	}
	maxInterval := policy.MaxInterval
	if maxInterval < interval {
		maxInterval = interval
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			if tr.IsDone() {
				return nil
			}
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("%w (tracer %s, timeout %s)", ErrTimeout, tr.Id(), policy.Timeout)
			}
			return ctx.Err()
		case <-timer.C:
		}

		if tr.IsDone() {
			return nil
		}

		interval *= 2
		if interval > maxInterval {
			interval = maxInterval
		}
		timer.Reset(interval)
	}
}

// Compute a batch on tr, wait for it to complete and fetch its results.
func Run(ctx context.Context, tr Tracer, batch *Batch, policy WaitPolicy) (*Result, error) {
	if err := tr.Compute(batch); err != nil {
		return nil, err
	}
	if err := Wait(ctx, tr, policy); err != nil {
		return nil, err
	}

	res, err := tr.Results()
	if err != nil {
		return nil, err
	}
	if res.Len() != batch.NumRays() {
		return nil, fmt.Errorf("%w (tracer %s: %d results for %d rays)", ErrResultLength, tr.Id(), res.Len(), batch.NumRays())
	}
	return res, nil
}
