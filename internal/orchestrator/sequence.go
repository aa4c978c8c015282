package orchestrator

import (
	"fmt"
	"time"

	"github.com/turtacn/Perennis/internal/rcon"
)

// Step is one command of a scripted sequence and the pause that follows it.
type Step struct {
	Command   string
	PostDelay time.Duration
}

// Broadcast texts.
const (
	msgContentUpdated = "One or more mods have updated and the server must restart."
	msgShuttingDown   = "Server is shutting down."
)

func warningMessage(hours int) string {
	return rcon.ServerMessage(fmt.Sprintf("Server will restart in %d hour(s)", hours))
}

// restartSequence is everything sent before the restart backup. The backup,
// a 5s pause and the quit command follow it.
func restartSequence() []Step {
	return []Step{
		{rcon.ServerMessage("Server will restart in 5 minutes..."), 300 * time.Second},
		{rcon.ServerMessage("Server will restart in 1 minute..."), 60 * time.Second},
		{rcon.ServerMessage("Server preparing for restart..."), time.Second},
		{rcon.ServerMessage("Restart imminent! Please disconnect from the server!"), time.Second},
		{rcon.ServerMessage("Saving server state and backing up the world."), time.Second},
		{rcon.ServerMessage("Server is preparing to restart."), time.Second},
		{rcon.CmdSave, time.Second},
	}
}

// Personal.AI order the ending
