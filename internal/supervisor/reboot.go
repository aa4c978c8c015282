package supervisor

import (
	"context"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/turtacn/Perennis/pkg/errors"
	"github.com/turtacn/Perennis/pkg/logger"
)

var (
	wslRebootCommand    = []string{"/mnt/c/WINDOWS/system32/shutdown.exe", "/r", "/f", "/t", "0"}
	nativeRebootCommand = []string{"reboot", "--force"}
)

// RebootCommand picks the forced reboot command for a host described by its
// uname release and version strings.
func RebootCommand(uname string) []string {
	if strings.Contains(strings.ToLower(uname), "microsoft") {
		return wslRebootCommand
	}
	return nativeRebootCommand
}

// RebootHost forces a reboot of the machine. On success the host goes down and
// the call normally never returns to a useful caller.
func (pm *ProcessManager) RebootHost(ctx context.Context) error {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return errors.New(errors.ErrCodeRebootFailed, "RebootHost", "uname", err)
	}
	uname := unix.ByteSliceToString(uts.Release[:]) + " " + unix.ByteSliceToString(uts.Version[:])
	argv := RebootCommand(uname)

	if argv[0] == nativeRebootCommand[0] {
		// reboot --force skips the init system's own sync
		unix.Sync()
	}

	logger.Log.Warn("Supervisor: Rebooting host", "uname", uname, "cmd", argv)
	if out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput(); err != nil {
		return errors.New(errors.ErrCodeRebootFailed, "RebootHost", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// Personal.AI order the ending
