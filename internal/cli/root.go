package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/Perennis/internal/orchestrator"
	"github.com/turtacn/Perennis/internal/rcon"
	"github.com/turtacn/Perennis/internal/staleness"
	"github.com/turtacn/Perennis/pkg/logger"
)

// Exit codes of the mods command.
const (
	ExitOK    = 0
	ExitStale = 1
	ExitError = 2
)

// exitError carries a process exit code up to Execute.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "perennis",
	Short:         "Perennis: unattended game server lifecycle daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the server and keep it restarted, backed up and current",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		logger.Log.Info("Booting Perennis lifecycle daemon...",
			"start_command", cfg.Server.StartCommand, "reboot_enabled", cfg.Reboot.Enabled)

		err = newController(cfg).Start(cmd.Context())
		switch {
		case err == nil:
			logger.Log.Info("Daemon stopped")
			return nil
		case errors.Is(err, orchestrator.ErrHostRebooting):
			logger.Log.Warn("Daemon exiting for host reboot")
			return nil
		case errors.Is(err, orchestrator.ErrForcedShutdown):
			logger.Log.Warn("Daemon stopped without finishing shutdown")
			return nil
		}
		logger.Log.Error("Controller fatal error", "err", err)
		return err
	},
}

var (
	modsWrite bool
	modsCheck bool
)

var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: "Record or verify the workshop content baseline",
	Long: `Record or verify the workshop content baseline.

With --write the current last-updated markers become the new baseline.
With --check they are compared against the baseline; the exit status is
0 when in sync, 1 when content changed upstream and 2 when it could not
be determined.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if modsWrite == modsCheck {
			_ = cmd.Help()
			return &exitError{code: ExitStale}
		}
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return &exitError{code: ExitError, err: err}
		}
		return runMods(cmd.Context(), cmd, newReconciler(cfg), modsWrite)
	},
}

// baseline is the part of the reconciler the mods command drives.
type baseline interface {
	Check(ctx context.Context) staleness.Verdict
	Write(ctx context.Context) error
}

func runMods(ctx context.Context, cmd *cobra.Command, b baseline, write bool) error {
	out := cmd.OutOrStdout()
	if write {
		if err := b.Write(ctx); err != nil {
			return &exitError{code: ExitError, err: err}
		}
		fmt.Fprintln(out, "baseline written")
		return nil
	}

	v := b.Check(ctx)
	switch v.Kind {
	case staleness.InSync:
		fmt.Fprintln(out, "in sync")
		return nil
	case staleness.OutOfSync:
		fmt.Fprintf(out, "out of sync: %s\n", strings.Join(v.Changed, ", "))
		return &exitError{code: ExitStale}
	}
	return &exitError{code: ExitError, err: fmt.Errorf("undetermined: %w", v.Reason)}
}

var sayCmd = &cobra.Command{
	Use:   "say <text>",
	Short: "Broadcast a message to every connected player",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		return newChannel(cfg).Send(cmd.Context(), rcon.ServerMessage(strings.Join(args, " ")))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "perennis.yaml", "config file path")

	modsCmd.Flags().BoolVar(&modsWrite, "write", false, "record the current markers as the baseline")
	modsCmd.Flags().BoolVar(&modsCheck, "check", false, "compare the current markers with the baseline")
	modsCmd.MarkFlagsMutuallyExclusive("write", "check")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(modsCmd)
	rootCmd.AddCommand(sayCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return exitCode(rootCmd.ExecuteContext(context.Background()), os.Stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(stderr, err)
	return 1
}

// Personal.AI order the ending
