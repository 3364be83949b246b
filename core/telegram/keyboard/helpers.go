// Package keyboard builds reply and inline keyboards.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is an inline button carrying a raw callback token.
type InlineBtn struct {
	Text string
	Data string
}

// RemoveKeyboard returns a markup that hides the keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a resized reply keyboard; sizes works as in Adjust.
func ReplyButtons(placeholder string, labels []string, sizes ...int) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, Placeholder: placeholder}
	var rows []tele.Row
	for _, chunk := range Adjust(labels, sizes...) {
		row := make(tele.Row, 0, len(chunk))
		for _, label := range chunk {
			row = append(row, markup.Text(label))
		}
		rows = append(rows, row)
	}
	markup.Reply(rows...)
	return markup
}

// Adjust splits items into rows whose lengths follow sizes; the last size repeats
// for the remaining items. No sizes means one item per row.
func Adjust[T any](items []T, sizes ...int) [][]T {
	if len(items) == 0 {
		return nil
	}
	var rows [][]T
	i, s := 0, 0
	for i < len(items) {
		n := 1
		if len(sizes) > 0 {
			n = sizes[min(s, len(sizes)-1)]
			s++
		}
		if n < 1 {
			n = 1
		}
		end := min(i+n, len(items))
		rows = append(rows, items[i:end])
		i = end
	}
	return rows
}

// Inline builds an inline keyboard from rows of buttons.
func Inline(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	kb := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, b := range row {
			r[j] = tele.InlineButton{Text: b.Text, Data: b.Data}
		}
		kb = append(kb, r)
	}
	markup.InlineKeyboard = kb
	return markup
}

// InlineAdjusted lays out buttons with Adjust and builds the keyboard.
func InlineAdjusted(buttons []InlineBtn, sizes ...int) *tele.ReplyMarkup {
	return Inline(Adjust(buttons, sizes...)...)
}
