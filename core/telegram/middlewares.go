package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	"github.com/m3rciful/shopbot/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared middleware chain for bots.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited func(tele.Context) error) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}
	if cfg == nil {
		return append(mws, Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware})
	}

	if cfg.Telegram.PrivateOnly {
		mws = append(mws, Middleware{Name: "private_only", Use: middleware.PrivateOnlyMiddleware})
	}

	if interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond; interval > 0 {
		ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, t := range cfg.RateLimit.ExcludeUpdates {
			ex[strings.ToLower(t)] = struct{}{}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:  interval,
				Exclude:   ex,
				OnLimited: onLimited,
			}),
		})
	}

	return append(mws, Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware})
}
