package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Access is the minimum role a caller needs to run a command.
type Access int

const (
	// AccessAny lets anyone run the command, including non-members.
	AccessAny Access = iota
	// AccessMember requires membership in the managed group.
	AccessMember
	// AccessAdmin restricts the command to the configured admin.
	AccessAdmin
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Access      Access
	Hidden      bool
	Aliases     []string
}
