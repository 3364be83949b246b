// Package ui declares handlers bots provide for updates nothing else claims.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider exposes handlers used when incoming updates
// cannot be mapped to commands, callbacks, or an active conversation.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownPhoto() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
	AdminRejected() tele.HandlerFunc
}
