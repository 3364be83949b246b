package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/shop/menu"
)

func caption(view menu.RenderInstruction) string {
	if strings.TrimSpace(view.Caption) == "" {
		return textNoContent
	}
	return view.Caption
}

// sendView posts view as a new message. Banners without a photo yet are sent
// as text.
func sendView(c tele.Context, view menu.RenderInstruction) error {
	markup := keyboard.Inline(view.Buttons...)
	if view.Image == "" {
		return tghelpers.SendHTML(c, caption(view), markup)
	}
	return tghelpers.SendPhoto(c, view.Image, caption(view), markup)
}

// editView redraws the message the callback came from. When the edit is
// impossible, for example a photo message turning into text, the view is
// sent as a new message.
func editView(ctx context.Context, c tele.Context, view menu.RenderInstruction) error {
	if c.Message() == nil {
		return sendView(c, view)
	}
	markup := keyboard.Inline(view.Buttons...)
	var err error
	if view.Image == "" {
		err = tghelpers.EditHTML(c, caption(view), markup)
	} else {
		err = tghelpers.EditPhoto(c, view.Image, caption(view), markup)
	}
	if err == nil || notModified(err) {
		return nil
	}
	logger.Debug(ctx, "tg", "menu.edit_fallback", slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	return sendView(c, view)
}

// notModified reports Telegram's refusal to apply an edit that changes nothing,
// which happens when a Prev or Next button is pressed on a clamped page.
func notModified(err error) bool {
	return errors.Is(err, tele.ErrMessageNotModified) || errors.Is(err, tele.ErrSameMessageContent)
}
