// Package rcon sends administrative commands to the running game server over
// its RCON port.
package rcon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorcon/rcon"

	"github.com/turtacn/Perennis/pkg/errors"
	"github.com/turtacn/Perennis/pkg/logger"
)

// Server commands understood by the game server.
const (
	CmdSave = "save"
	CmdQuit = "quit"
)

// ServerMessage renders a broadcast shown to every connected player.
func ServerMessage(text string) string {
	return fmt.Sprintf("servermsg %q", strings.ReplaceAll(text, `"`, "'"))
}

// Channel is a fire-and-forget command channel. Each Send opens its own
// connection, so a server restart never leaves a stale connection behind.
type Channel struct {
	address  string
	password string
	timeout  time.Duration
}

func NewChannel(address, password string, timeout time.Duration) *Channel {
	return &Channel{address: address, password: password, timeout: timeout}
}

// Send executes one command. The server's reply is logged at debug level and
// otherwise ignored; there is no retry.
func (c *Channel) Send(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return errors.New(errors.ErrCodeCommandSend, "Send", "cancelled before dial", err)
	}

	conn, err := rcon.Dial(c.address, c.password,
		rcon.SetDialTimeout(c.timeout),
		rcon.SetDeadline(c.timeout))
	if err != nil {
		return errors.New(errors.ErrCodeCommandSend, "Send", "dial "+c.address, err)
	}
	defer conn.Close()

	reply, err := conn.Execute(command)
	if err != nil {
		return errors.New(errors.ErrCodeCommandSend, "Send", "execute "+command, err)
	}
	logger.Log.Debug("RCON: Command sent", "command", command, "reply", reply)
	return nil
}

// Personal.AI order the ending
