package orchestrator

import "fmt"

// RestartReason labels why a restart sequence ran.
type RestartReason string

const (
	ReasonScheduled     RestartReason = "scheduled"
	ReasonContentUpdate RestartReason = "content_update"
)

// Event is the closed set of things that can drive the controller. Recurring
// jobs and the interrupt path both go through Controller.Handle.
type Event interface {
	isEvent()
	fmt.Stringer
}

// WarnEvent broadcasts an "N hours until restart" message.
type WarnEvent struct{ Hours int }

// RestartEvent runs the graceful restart sequence, or the host reboot once the
// escalation threshold is reached.
type RestartEvent struct{ Reason RestartReason }

// ContentCheckEvent asks the oracle whether workshop content changed.
type ContentCheckEvent struct{}

// ShutdownEvent saves, backs up and stops the server for good.
type ShutdownEvent struct{}

func (WarnEvent) isEvent()         {}
func (RestartEvent) isEvent()      {}
func (ContentCheckEvent) isEvent() {}
func (ShutdownEvent) isEvent()     {}

func (e WarnEvent) String() string       { return fmt.Sprintf("warn(%dh)", e.Hours) }
func (e RestartEvent) String() string    { return "restart(" + string(e.Reason) + ")" }
func (ContentCheckEvent) String() string { return "content-check" }
func (ShutdownEvent) String() string     { return "shutdown" }

// Personal.AI order the ending
