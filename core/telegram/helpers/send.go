package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

func htmlOpts(markup []*tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return opts
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendHTML sends a message with HTML parse mode and optional reply markup.
func SendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return SendText(c, text, htmlOpts(markup))
}

// SendPhoto sends a photo by file id with an HTML caption.
func SendPhoto(c tele.Context, fileID, caption string, markup ...*tele.ReplyMarkup) error {
	photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	opts := htmlOpts(markup)
	return sendAsync(c, "send.photo", "sendPhoto", func() error {
		return c.Send(photo, opts)
	})
}

// EditPhoto replaces media and caption of the message the callback came from.
// The edit runs synchronously so the caller can fall back on failure.
func EditPhoto(c tele.Context, fileID, caption string, markup ...*tele.ReplyMarkup) error {
	photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	return c.Edit(photo, htmlOpts(markup))
}

// EditHTML edits the text of the current message using HTML parse mode.
func EditHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Edit(text, htmlOpts(markup))
}

// EditOrSendHTML tries to edit the message (HTML) or sends a new one if edit fails.
func EditOrSendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.EditOrSend(text, htmlOpts(markup))
}

// Toast answers the pending callback query with a short notification.
func Toast(c tele.Context, text string) error {
	if c.Callback() == nil {
		return nil
	}
	return c.Respond(&tele.CallbackResponse{Text: text})
}
