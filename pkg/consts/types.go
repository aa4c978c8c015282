package consts

import "time"

// LifecycleState names the phases the controller moves the game server through.
type LifecycleState string

const (
	StateStopped         LifecycleState = "STOPPED"
	StateStarting        LifecycleState = "STARTING"
	StateRunning         LifecycleState = "RUNNING"
	StateWarningPending  LifecycleState = "WARNING_PENDING"  // 1h warning broadcast
	StateRestartSequence LifecycleState = "RESTART_SEQUENCE" // graceful restart in progress
	StateRebootPending   LifecycleState = "REBOOT_PENDING"   // escalated to host reboot
	StateShuttingDown    LifecycleState = "SHUTTING_DOWN"
)

// BackupTag is appended to archive names so operators can tell why a backup was taken.
type BackupTag string

const (
	TagStart   BackupTag = "start"
	TagRestart BackupTag = "restart"
	TagQuit    BackupTag = "quit"
)

// Lifecycle timings. These delays are part of the observable behaviour.
const (
	TickInterval      = 1 * time.Second
	BootWait          = 300 * time.Second
	BackupCooldown    = 10 * time.Second
	KillSettle        = 5 * time.Second
	PreQuitDelay      = 5 * time.Second
	PostQuitDelay     = 5 * time.Second
	PreRelaunchDelay  = 10 * time.Second
	ShutdownSaveDelay = 5 * time.Second
	ShutdownQuitDelay = 5 * time.Second
)

// Recurring job periods.
const (
	OneHourWarningPeriod = 3 * time.Hour
	RestartPeriod        = 4 * time.Hour
	ContentCheckPeriod   = 30 * time.Minute
)

// Defaults applied when the config leaves a value empty.
const (
	DefaultRCONTimeout       = 10 * time.Second
	DefaultRequestTimeout    = 20 * time.Second
	DefaultCheckTimeout      = 10 * time.Minute
	DefaultRequestsPerSecond = 2.0
	DefaultWorkshopURL       = "https://steamcommunity.com/sharedfiles/filedetails/"
)

// UnknownMarker is written for content whose last change could not be determined.
const UnknownMarker = "unknown"

// Personal.AI order the ending
