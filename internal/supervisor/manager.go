package supervisor

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"mvdan.cc/sh/v3/shell"

	"github.com/turtacn/Perennis/pkg/errors"
	"github.com/turtacn/Perennis/pkg/logger"
	"github.com/turtacn/Perennis/pkg/protocol"
)

// Options describes the managed server process and its data.
type Options struct {
	StartCommand string
	ProcessNames []string // Exact names of the wrapper shell and the server binary
	WorldDir     string
	BackupDir    string
	Now          func() time.Time
}

// OptionsFromConfig maps the daemon config onto supervisor options.
func OptionsFromConfig(cfg *protocol.Config) Options {
	return Options{
		StartCommand: cfg.Server.StartCommand,
		ProcessNames: []string{cfg.Server.ShellProcessName, cfg.Server.BinaryProcessName},
		WorldDir:     cfg.Paths.WorldDir,
		BackupDir:    cfg.Paths.BackupDir,
	}
}

// ProcessManager handles the lifecycle of the managed game server process.
// Processes are identified by name only; no PID is tracked across restarts.
type ProcessManager struct {
	opts Options
}

// New creates a new ProcessManager instance.
func New(opts Options) *ProcessManager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ProcessManager{opts: opts}
}

// KillManaged sends SIGKILL to every process whose name exactly matches one of
// the configured names. It is best-effort: it does not wait for the processes to
// exit, and per-process failures are collected into the returned error.
func (pm *ProcessManager) KillManaged(ctx context.Context) error {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return errors.New(errors.ErrCodeProcessKill, "KillManaged", "cannot list processes", err)
	}

	self := int32(os.Getpid())
	var errs []error
	killed := 0
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		name, err := p.NameWithContext(ctx)
		if err != nil || !pm.manages(name) {
			continue
		}
		if err := p.KillWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pid %d (%s): %w", p.Pid, name, err))
			continue
		}
		killed++
		logger.Log.Info("Supervisor: Killed process", "pid", p.Pid, "name", name)
	}

	logger.Log.Info("Supervisor: Cleanup finished", "killed", killed, "failed", len(errs))
	if len(errs) > 0 {
		return errors.New(errors.ErrCodeProcessKill, "KillManaged", "some processes survived", stderrors.Join(errs...))
	}
	return nil
}

func (pm *ProcessManager) manages(name string) bool {
	for _, n := range pm.opts.ProcessNames {
		if n != "" && n == name {
			return true
		}
	}
	return false
}

// Launch starts the server with the configured start command and returns as
// soon as it is running. The child gets its own process group so an operator's
// Ctrl-C reaches the daemon only, leaving it time to save the world first.
func (pm *ProcessManager) Launch(ctx context.Context) error {
	args, err := shell.Fields(pm.opts.StartCommand, os.Getenv)
	if err != nil {
		return errors.New(errors.ErrCodeProcessLaunch, "Launch", "cannot parse start command", err)
	}
	if len(args) == 0 {
		return errors.New(errors.ErrCodeProcessLaunch, "Launch", "empty start command", nil)
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	logger.Log.Info("Supervisor: Launching server", "cmd", args)
	if err := cmd.Start(); err != nil {
		return errors.New(errors.ErrCodeProcessLaunch, "Launch", "cannot start "+args[0], err)
	}

	// Reap the child whenever it exits; nothing waits on it otherwise.
	go func() {
		err := cmd.Wait()
		logger.Log.Info("Supervisor: Launched command exited", "pid", cmd.Process.Pid, "err", err)
	}()
	return nil
}

// Personal.AI order the ending
