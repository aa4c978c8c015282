package orchestrator

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/Perennis/pkg/logger"
)

// Start runs the controller until an operator interrupt (SIGINT/SIGTERM) has been
// handled or the host reboot was issued.
func (c *Controller) Start(ctx context.Context) error {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return c.Run(ctx, sigCh)
}

// Run cold-starts the server and drives the scheduler from a single control
// goroutine. The first interrupt cancels whatever that goroutine is doing and,
// once it has let go, runs the shutdown sequence. A second interrupt abandons
// everything and returns ErrForcedShutdown immediately.
func (c *Controller) Run(ctx context.Context, interrupts <-chan os.Signal) error {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.loop(loopCtx) }()

	select {
	case err := <-done:
		return err
	case sig := <-interrupts:
		logger.Log.Info("Signal: Stop received. Shutting down gracefully; repeat to force.", "signal", sig)
	}

	cancel()
	select {
	case <-done:
	case <-interrupts:
		logger.Log.Warn("Signal: Second stop received. Forcing immediate exit.")
		return ErrForcedShutdown
	}

	finished := make(chan error, 1)
	go func() { finished <- c.Shutdown(ctx) }()

	select {
	case err := <-finished:
		return err
	case <-interrupts:
		logger.Log.Warn("Signal: Second stop received. Forcing immediate exit.")
		return ErrForcedShutdown
	}
}

func (c *Controller) loop(ctx context.Context) error {
	if err := c.ColdStart(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.sched.Tick(ctx, c.opts.Now())
			if c.halt != nil {
				return c.halt
			}
		}
	}
}

// Personal.AI order the ending
