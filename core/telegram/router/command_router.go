package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/middleware"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	Admin middleware.AdminOptions
}

// WrapCommand applies the shared chain to a command handler.
func WrapCommand(name string, h tele.HandlerFunc, adminOnly bool, admin middleware.AdminOptions) tele.HandlerFunc {
	handlerName := normalizeHandlerName(name)
	inner := h
	if adminOnly {
		inner = middleware.AdminOnlyMiddleware(admin)(inner)
	}
	summarized := func(c tele.Context) error {
		return handleWithSummary(c, handlerName, time.Now(), func() error { return inner(c) })
	}
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(summarized))
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler:  WrapCommand(cmd, def.Handler, def.AdminOnly, opts.Admin),
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("count", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
