package bot

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/ui"
)

const (
	textUnknown       = "Send /start to open the shop."
	textUnknownPhoto  = "I was not expecting a photo. Send /start to open the shop."
	textStaleButton   = "This button is no longer available."
	textAdminRejected = "This action is for administrators only."
)

var _ ui.FallbackProvider = (*App)(nil)

// UnknownText answers free text nobody claimed.
func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, textUnknown)
	}
}

func (a *App) UnknownPhoto() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, textUnknownPhoto)
	}
}

// UnknownCallback answers buttons from old messages or unknown namespaces.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.Toast(c, textStaleButton)
	}
}

// AdminRejected answers non-admins who reach an admin handler. Callbacks get
// a toast, messages a reply.
func (a *App) AdminRejected() tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			return tghelpers.Toast(c, textAdminRejected)
		}
		return tghelpers.SendText(c, textAdminRejected)
	}
}
