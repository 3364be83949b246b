// Package callbacks encodes and decodes inline button callback data.
//
// Buttons carry plain tokens of the form "<namespace>:<field>:<field>...".
// The namespace selects the registered handler, the fields are its arguments.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Separator joins the namespace and fields of a token.
const Separator = ":"

// MaxDataLen is the Telegram limit for callback_data in bytes.
const MaxDataLen = 64

// Split returns the namespace and the remaining payload of a raw token.
// Telebot's "\f<unique>|<payload>" form is accepted as well.
func Split(data string) (string, string) {
	data = strings.TrimPrefix(data, "\f")
	if unique, payload, ok := strings.Cut(data, "|"); ok {
		return strings.TrimSpace(unique), payload
	}
	ns, payload, _ := strings.Cut(data, Separator)
	return strings.TrimSpace(ns), payload
}

// Parse returns namespace and payload of a callback.
func Parse(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return Split(cb.Data)
}

// CallbackKey returns the namespace of the current callback.
func CallbackKey(c tele.Context) string {
	k, _ := Parse(c.Callback())
	return k
}

// CallbackPayload returns everything after the namespace of the current callback.
func CallbackPayload(c tele.Context) string {
	_, p := Parse(c.Callback())
	return p
}
