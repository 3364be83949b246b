// Package format holds small text helpers for Telegram HTML messages.
package format

import (
	"html"
	"strings"
)

// Escape escapes s for Telegram's HTML parse mode.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Bold wraps escaped s in <b>.
func Bold(s string) string {
	return "<b>" + Escape(s) + "</b>"
}

// Lines joins non-empty lines with newlines.
func Lines(lines ...string) string {
	out := lines[:0:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
