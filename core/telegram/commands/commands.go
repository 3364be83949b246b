// Package commands describes bot commands registered with the registry.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly restricts the command and its aliases to the admin allowlist.
	AdminOnly bool
	// Hidden keeps the command out of the Telegram command menu.
	Hidden bool
	// Aliases are free-text triggers, typically reply keyboard labels.
	Aliases []string
}
