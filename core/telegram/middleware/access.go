package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	// IsAdmin decides membership; a nil func rejects everyone.
	IsAdmin  func(userID int64) bool
	OnReject tele.HandlerFunc
}

// Allows reports whether userID passes the admin check.
func (o AdminOptions) Allows(userID int64) bool {
	return o.IsAdmin != nil && o.IsAdmin(userID)
}

// AdminOnlyMiddleware ensures that only allowlisted users can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			var uid int64
			if s := c.Sender(); s != nil {
				uid = s.ID
			}
			if !opts.Allows(uid) {
				logger.Warn(tghelpers.BuildContext(c), "tg", "access.denied",
					slog.String("outcome", "rejected"),
					slog.Int64("user_id", uid),
				)
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}

// PrivateOnlyMiddleware drops updates that do not originate from a private chat.
func PrivateOnlyMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil || chat.Type != tele.ChatPrivate {
			if logger.ShouldSampleDebug() {
				attrs := []slog.Attr{slog.String("outcome", "rejected")}
				if chat != nil {
					attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
				}
				logger.Debug(tghelpers.BuildContext(c), "tg", "chat.skip", attrs...)
			}
			return nil
		}
		return next(c)
	}
}
