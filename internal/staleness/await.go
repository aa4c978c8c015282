package staleness

import (
	"context"
	"time"

	"github.com/turtacn/Perennis/pkg/errors"
)

// Await runs fn on its own goroutine and waits for its single result on a
// one-slot channel. The wait ends early when ctx is done or timeout elapses
// (timeout <= 0 waits without bound); fn's context is cancelled in both cases
// and its late result is dropped into the buffered slot.
func Await[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) T) (T, error) {
	var (
		workCtx context.Context
		cancel  context.CancelFunc
	)
	if timeout > 0 {
		workCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		workCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	ch := make(chan T, 1)
	go func() {
		ch <- fn(workCtx)
	}()

	var zero T
	select {
	case res := <-ch:
		return res, nil
	case <-workCtx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, errors.New(errors.ErrCodeOracleTimeout, "Await", "no result within "+timeout.String(), workCtx.Err())
	}
}

// Personal.AI order the ending
