package router

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/shopbot/core/telegram"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/middleware"
)

// FSM is a conversation that captures free text and photos while active.
type FSM interface {
	Name() string
	InProgress(ctx context.Context, userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls routing of text and photo updates.
type TextOptions struct {
	Admin        middleware.AdminOptions
	UnknownText  tele.HandlerFunc
	UnknownPhoto tele.HandlerFunc
}

func activeFSM(c tele.Context, fsms []FSM) FSM {
	uid := tghelpers.SenderID(c)
	if uid == 0 {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	for _, f := range fsms {
		if f != nil && f.InProgress(ctx, uid) {
			return f
		}
	}
	return nil
}

// TextRoutes builds handlers for free text and photos. An active FSM takes the
// update first; otherwise text is matched against command aliases, which honour
// the admin restriction of their command.
func TextRoutes(fsms []FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()

		if f := activeFSM(c, fsms); f != nil {
			return handleWithSummary(c, "fsm."+f.Name(), start, func() error {
				return f.ManagerHandler(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				h := cmd.Handler
				if cmd.AdminOnly {
					h = middleware.AdminOnlyMiddleware(opts.Admin)(h)
				}
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return h(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error { return fb(c) })
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}
		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	photoHandler := func(c tele.Context) error {
		start := time.Now()
		if f := activeFSM(c, fsms); f != nil {
			return handleWithSummary(c, "fsm."+f.Name()+"_photo", start, func() error {
				return f.ManagerHandler(c)
			})
		}
		if opts.UnknownPhoto != nil {
			return handleWithSummary(c, "unexpected_photo", start, func() error {
				return opts.UnknownPhoto(c)
			})
		}
		logHandlerSummary(c, "unexpected_photo", start, "skip", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(textHandler)),
		},
		{
			Endpoint: tele.OnPhoto,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(photoHandler)),
		},
	}
}
