// Package poll provides a bounded condition wait that does not depend on any
// particular browser API.
package poll

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// ErrInvalidInterval is returned when the poll interval is not positive.
var ErrInvalidInterval = errors.New("poll: interval must be positive")

// Condition reports whether the awaited state has been reached. A non-nil
// error aborts the wait immediately.
type Condition func(ctx context.Context) (bool, error)

// maxLastCheck bounds the check made once the deadline has passed.
const maxLastCheck = time.Second

// Until evaluates cond immediately and then at most once per interval until
// it returns true, returns an error, or ctx is done. The deadline is carried
// by ctx. Until never gives up before it: when the next interval would end
// past the deadline it sleeps out the remainder and evaluates cond one last
// time before returning ctx.Err().
func Until(ctx context.Context, interval time.Duration, cond Condition) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	// Burst 1 lets the first check run without delay.
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() == nil {
				if _, ok := ctx.Deadline(); !ok {
					return err
				}
				// Wait refuses tokens that land after the deadline.
				<-ctx.Done()
			}
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ctx.Err()
			}
			return lastCheck(ctx, interval, cond)
		}

		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
}

// lastCheck runs cond once after ctx's deadline, under a short context of
// its own. It returns nil on success and ctx.Err() otherwise.
func lastCheck(ctx context.Context, interval time.Duration, cond Condition) error {
	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), min(interval, maxLastCheck))
	defer cancel()
	if ok, err := cond(checkCtx); err == nil && ok {
		return nil
	}
	return ctx.Err()
}

// UntilTimeout is Until bounded by timeout in addition to ctx.
func UntilTimeout(ctx context.Context, timeout, interval time.Duration, cond Condition) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return Until(ctx, interval, cond)
}
