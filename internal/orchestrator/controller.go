package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/turtacn/Perennis/internal/monitor"
	"github.com/turtacn/Perennis/internal/rcon"
	"github.com/turtacn/Perennis/internal/scheduler"
	"github.com/turtacn/Perennis/internal/staleness"
	"github.com/turtacn/Perennis/pkg/consts"
	"github.com/turtacn/Perennis/pkg/fsm"
	"github.com/turtacn/Perennis/pkg/logger"
	"github.com/turtacn/Perennis/pkg/protocol"
)

var (
	// ErrHostRebooting is returned once the host reboot command has been issued.
	ErrHostRebooting = errors.New("host reboot issued")
	// ErrForcedShutdown is returned when a second interrupt cut the shutdown short.
	ErrForcedShutdown = errors.New("forced shutdown")
)

// CommandChannel delivers one command to the running server.
type CommandChannel interface {
	Send(ctx context.Context, command string) error
}

// Supervisor controls the server process and its data on the host.
type Supervisor interface {
	KillManaged(ctx context.Context) error
	Launch(ctx context.Context) error
	Backup(ctx context.Context, tag consts.BackupTag) (string, error)
	RebootHost(ctx context.Context) error
}

// ContentOracle answers whether workshop content changed since the baseline.
type ContentOracle interface {
	SnapshotExists() bool
	Check(ctx context.Context) staleness.Verdict
	Write(ctx context.Context) error
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// LifecycleState is owned by the control goroutine.
type LifecycleState struct {
	RebootCounter        uint
	OneHourWarningIssued bool
	RestartInProgress    bool
	JustStarted          bool
}

// Options tunes a Controller. Zero values fall back to production defaults.
type Options struct {
	RebootEnabled   bool
	RebootThreshold uint
	CheckTimeout    time.Duration
	TickInterval    time.Duration
	Now             func() time.Time
	Sleep           Sleeper
}

// OptionsFromConfig maps the daemon config onto controller options.
func OptionsFromConfig(cfg *protocol.Config) Options {
	return Options{
		RebootEnabled:   cfg.Reboot.Enabled,
		RebootThreshold: cfg.Reboot.Threshold,
		CheckTimeout:    cfg.CheckTimeout(),
	}
}

const (
	jobOneHourWarning = "one-hour-warning"
	jobRestart        = "restart"
	jobContentCheck   = "content-check"
)

// Controller sequences cold starts, warnings, restarts, content checks and
// shutdown for a single game server.
type Controller struct {
	opts    Options
	fsm     *fsm.StateMachine
	sched   *scheduler.Scheduler
	channel CommandChannel
	proc    Supervisor
	oracle  ContentOracle

	state LifecycleState
	// halt is set by a job whose outcome must end the control loop.
	halt error
}

func NewController(opts Options, channel CommandChannel, proc Supervisor, oracle ContentOracle) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = consts.TickInterval
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = consts.DefaultCheckTimeout
	}

	c := &Controller{
		opts:    opts,
		fsm:     fsm.New(fsm.State(consts.StateStopped)),
		sched:   scheduler.New(opts.Now),
		channel: channel,
		proc:    proc,
		oracle:  oracle,
	}
	c.setupFSM()
	return c
}

const (
	evStart    fsm.Event = "start"
	evReady    fsm.Event = "ready"
	evWarn     fsm.Event = "warn"
	evRestart  fsm.Event = "restart"
	evEscalate fsm.Event = "escalate"
	evAbort    fsm.Event = "abort"
	evShutdown fsm.Event = "shutdown"
	evStopped  fsm.Event = "stopped"
)

func (c *Controller) setupFSM() {
	st := func(s consts.LifecycleState) fsm.State { return fsm.State(s) }

	// Start and restart loop
	c.fsm.AddTransition(st(consts.StateStopped), st(consts.StateStarting), evStart, nil)
	c.fsm.AddTransition(st(consts.StateStarting), st(consts.StateRunning), evReady, nil)
	c.fsm.AddTransition(st(consts.StateRunning), st(consts.StateWarningPending), evWarn, nil)
	c.fsm.AddTransition(st(consts.StateWarningPending), st(consts.StateWarningPending), evWarn, nil)
	c.fsm.AddTransition(st(consts.StateRunning), st(consts.StateRestartSequence), evRestart, nil)
	c.fsm.AddTransition(st(consts.StateWarningPending), st(consts.StateRestartSequence), evRestart, nil)
	c.fsm.AddTransition(st(consts.StateRestartSequence), st(consts.StateStarting), evStart, nil)

	// Escalation and aborted cycles
	c.fsm.AddTransition(st(consts.StateRestartSequence), st(consts.StateRebootPending), evEscalate, nil)
	c.fsm.AddTransition(st(consts.StateRebootPending), st(consts.StateStarting), evStart, nil)
	c.fsm.AddTransition(st(consts.StateRestartSequence), st(consts.StateRunning), evAbort, nil)
	c.fsm.AddTransition(st(consts.StateRebootPending), st(consts.StateRunning), evAbort, nil)

	// Operator shutdown may land in any phase
	for _, s := range []consts.LifecycleState{
		consts.StateStopped, consts.StateStarting, consts.StateRunning, consts.StateWarningPending,
		consts.StateRestartSequence, consts.StateRebootPending,
	} {
		c.fsm.AddTransition(st(s), st(consts.StateShuttingDown), evShutdown, nil)
	}
	c.fsm.AddTransition(st(consts.StateShuttingDown), st(consts.StateStopped), evStopped, nil)
}

// State returns the current lifecycle phase.
func (c *Controller) State() consts.LifecycleState {
	return consts.LifecycleState(c.fsm.Current())
}

func (c *Controller) transition(ev fsm.Event) {
	if err := c.fsm.Fire(ev); err != nil {
		logger.Log.Warn("Controller: Unexpected transition", "event", ev, "err", err)
	}
}

// Handle dispatches one event on the calling (control) goroutine.
func (c *Controller) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case WarnEvent:
		return c.Warn(ctx, e.Hours)
	case RestartEvent:
		return c.Restart(ctx, e.Reason)
	case ContentCheckEvent:
		return c.CheckContent(ctx)
	case ShutdownEvent:
		return c.Shutdown(ctx)
	}
	return fmt.Errorf("unhandled event %v", ev)
}

// ColdStart kills leftovers, backs up the world, launches the server, records
// the content baseline, waits for the server to boot and registers the
// recurring jobs. Only cancellation is returned as an error; every other
// failure is logged and the start carries on.
func (c *Controller) ColdStart(ctx context.Context) error {
	logger.Log.Info("Phase: Cold Start")
	c.resetForStart()
	c.transition(evStart)

	if err := c.killManaged(ctx); err != nil {
		return err
	}
	if err := c.backup(ctx, consts.TagStart); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Nothing is running yet, so the world on disk cannot change under us.
		logger.Log.Error("Controller: Start backup failed, launching anyway", "err", err)
	}
	if err := c.proc.Launch(ctx); err != nil {
		logger.Log.Error("Controller: Launch failed", "err", err)
	}

	c.state.JustStarted = true
	if err := c.CheckContent(ctx); err != nil {
		return err
	}

	logger.Log.Info("Controller: Waiting for server boot", "wait", consts.BootWait)
	if err := c.opts.Sleep(ctx, consts.BootWait); err != nil {
		return err
	}
	c.send(ctx, warningMessage(int(consts.RestartPeriod/time.Hour)))

	c.scheduleJobs()
	c.transition(evReady)
	logger.Log.Info("Controller: Server running", "restarts", c.state.RebootCounter)
	return nil
}

func (c *Controller) resetForStart() {
	c.state.OneHourWarningIssued = false
	c.state.RestartInProgress = false
	c.state.JustStarted = false
	c.sched.CancelAll()
}

func (c *Controller) scheduleJobs() {
	c.sched.CancelAll()
	c.sched.Register(jobOneHourWarning, consts.OneHourWarningPeriod, c.job(WarnEvent{Hours: 1}))
	c.sched.Register(jobRestart, consts.RestartPeriod, c.job(RestartEvent{Reason: ReasonScheduled}))
	c.sched.Register(jobContentCheck, consts.ContentCheckPeriod, c.job(ContentCheckEvent{}))
}

// job wraps an event in the error boundary every recurring job runs inside.
func (c *Controller) job(ev Event) scheduler.Action {
	return func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error("Controller: Job panicked", "event", ev.String(), "panic", r)
			}
		}()

		err := c.Handle(ctx, ev)
		switch {
		case err == nil:
		case errors.Is(err, ErrHostRebooting):
			c.halt = err
		case ctx.Err() != nil:
			// the control loop sees the cancellation itself
		default:
			logger.Log.Error("Controller: Job failed", "event", ev.String(), "err", err)
		}
	}
}

// Warn broadcasts an N-hour restart warning. The one-hour warning also marks a
// restart as pending, which suppresses content checks until the restart ran.
func (c *Controller) Warn(ctx context.Context, hours int) error {
	logger.Log.Info("Controller: Restart warning", "hours", hours)
	c.send(ctx, warningMessage(hours))
	if hours == 1 {
		c.state.OneHourWarningIssued = true
		c.transition(evWarn)
	}
	return nil
}

// Restart runs the graceful restart sequence and starts the server again, or
// reboots the host once the configured number of restarts has been reached.
func (c *Controller) Restart(ctx context.Context, reason RestartReason) error {
	logger.Log.Info("Phase: Restart", "reason", reason, "restarts", c.state.RebootCounter)
	c.transition(evRestart)

	if c.opts.RebootEnabled && c.state.RebootCounter == c.opts.RebootThreshold {
		return c.rebootHost(ctx)
	}

	c.state.RestartInProgress = true
	for _, step := range restartSequence() {
		c.send(ctx, step.Command)
		if err := c.opts.Sleep(ctx, step.PostDelay); err != nil {
			return err
		}
	}

	if err := c.backup(ctx, consts.TagRestart); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.abortRestart()
		return fmt.Errorf("restart aborted: %w", err)
	}
	if err := c.opts.Sleep(ctx, consts.PreQuitDelay); err != nil {
		return err
	}
	c.send(ctx, rcon.CmdQuit)

	if err := c.opts.Sleep(ctx, consts.PostQuitDelay); err != nil {
		return err
	}
	if err := c.killManaged(ctx); err != nil {
		return err
	}
	if err := c.opts.Sleep(ctx, consts.PreRelaunchDelay); err != nil {
		return err
	}
	if err := c.ColdStart(ctx); err != nil {
		return err
	}

	monitor.RestartTotal.WithLabelValues(string(reason)).Inc()
	if c.opts.RebootEnabled {
		c.state.RebootCounter++
		monitor.RebootCounter.Set(float64(c.state.RebootCounter))
		logger.Log.Info("Controller: Restart complete",
			"restarts", c.state.RebootCounter, "reboot_at", c.opts.RebootThreshold)
	} else {
		logger.Log.Info("Controller: Restart complete; host reboot escalation disabled")
	}
	return nil
}

func (c *Controller) abortRestart() {
	c.state.RestartInProgress = false
	c.state.OneHourWarningIssued = false
	c.transition(evAbort)
}

func (c *Controller) rebootHost(ctx context.Context) error {
	logger.Log.Warn("Phase: Host Reboot", "restarts", c.state.RebootCounter, "threshold", c.opts.RebootThreshold)
	c.transition(evEscalate)

	if err := c.backup(ctx, consts.TagRestart); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.abortRestart()
		return fmt.Errorf("host reboot aborted: %w", err)
	}
	if err := c.killManaged(ctx); err != nil {
		return err
	}
	c.sched.CancelAll()

	if err := c.proc.RebootHost(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Log.Error("Controller: Host reboot failed, relaunching server", "err", err)
		return c.ColdStart(ctx)
	}
	return ErrHostRebooting
}

// CheckContent compares workshop content with the recorded baseline and
// restarts the server when it changed. It is skipped while a restart is pending.
// Right after a start, or when no baseline exists, it records one instead.
func (c *Controller) CheckContent(ctx context.Context) error {
	if c.state.OneHourWarningIssued || c.state.RestartInProgress {
		logger.Log.Info("Controller: Restart pending, skipping content check")
		monitor.ContentChecksTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	if c.oracle.SnapshotExists() && !c.state.JustStarted {
		v, err := staleness.Await(ctx, c.opts.CheckTimeout, c.oracle.Check)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			v = staleness.Undetermined(err)
		}
		monitor.ContentChecksTotal.WithLabelValues(v.Kind.String()).Inc()

		switch v.Kind {
		case staleness.InSync:
			logger.Log.Info("Controller: Content in sync")
		case staleness.OutOfSync:
			logger.Log.Warn("Controller: Content changed upstream, restarting", "changed", v.Changed)
			c.send(ctx, rcon.ServerMessage(msgContentUpdated))
			return c.Restart(ctx, ReasonContentUpdate)
		default:
			logger.Log.Warn("Controller: Content check inconclusive, skipping cycle", "reason", v.Reason)
		}
		return nil
	}

	logger.Log.Info("Controller: Recording content baseline", "just_started", c.state.JustStarted)
	werr, err := staleness.Await(ctx, c.opts.CheckTimeout, c.oracle.Write)
	c.state.JustStarted = false
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		werr = err
	}
	if werr != nil {
		logger.Log.Error("Controller: Content baseline not recorded", "err", werr)
		monitor.ContentChecksTotal.WithLabelValues("baseline_failed").Inc()
		return nil
	}
	monitor.ContentChecksTotal.WithLabelValues("baseline").Inc()
	return nil
}

// Shutdown warns players, saves, backs up and stops the server.
func (c *Controller) Shutdown(ctx context.Context) error {
	logger.Log.Info("Phase: Shutdown")
	c.transition(evShutdown)
	c.sched.CancelAll()

	c.send(ctx, rcon.ServerMessage(msgShuttingDown))
	c.send(ctx, rcon.CmdSave)
	if err := c.opts.Sleep(ctx, consts.ShutdownSaveDelay); err != nil {
		return err
	}
	if err := c.backup(ctx, consts.TagQuit); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Log.Error("Controller: Final backup failed, stopping anyway", "err", err)
	}
	c.send(ctx, rcon.CmdQuit)
	if err := c.opts.Sleep(ctx, consts.ShutdownQuitDelay); err != nil {
		return err
	}
	if err := c.killManaged(ctx); err != nil {
		return err
	}

	c.transition(evStopped)
	logger.Log.Info("Controller: Server stopped")
	return nil
}

// send delivers a command; failures are logged and never stop a sequence.
func (c *Controller) send(ctx context.Context, command string) {
	if err := c.channel.Send(ctx, command); err != nil {
		logger.Log.Warn("Controller: Command not delivered", "command", command, "err", err)
	}
}

// killManaged kills the server processes and waits for them to settle. Only
// cancellation of the settle wait is returned.
func (c *Controller) killManaged(ctx context.Context) error {
	if err := c.proc.KillManaged(ctx); err != nil {
		logger.Log.Warn("Controller: Kill incomplete", "err", err)
	}
	return c.opts.Sleep(ctx, consts.KillSettle)
}

// backup archives the world and then waits for the archive to reach storage.
func (c *Controller) backup(ctx context.Context, tag consts.BackupTag) error {
	start := c.opts.Now()
	path, err := c.proc.Backup(ctx, tag)
	monitor.BackupDuration.WithLabelValues(string(tag)).Observe(c.opts.Now().Sub(start).Seconds())
	if err == nil {
		logger.Log.Info("Controller: Backup written", "tag", tag, "path", path)
	}

	if serr := c.opts.Sleep(ctx, consts.BackupCooldown); serr != nil {
		return serr
	}
	return err
}

// Personal.AI order the ending
