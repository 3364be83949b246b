// Package bot wires the storefront services to Telegram.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/bootstrap"
	corecmd "github.com/m3rciful/shopbot/core/cmd"
	"github.com/m3rciful/shopbot/core/logger"
	coretelegram "github.com/m3rciful/shopbot/core/telegram"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/middleware"
	"github.com/m3rciful/shopbot/core/telegram/router"
	"github.com/m3rciful/shopbot/core/telegram/state"
	"github.com/m3rciful/shopbot/migrations"
	"github.com/m3rciful/shopbot/shop/catalog"
	"github.com/m3rciful/shopbot/shop/menu"
	"github.com/m3rciful/shopbot/shop/store/memstore"
	"github.com/m3rciful/shopbot/shop/store/postgres"
	"github.com/m3rciful/shopbot/shop/wizard"
)

// DefaultSessionPrefix namespaces wizard sessions in redis.
const DefaultSessionPrefix = "shopbot:wizard:"

// seededStorage is a store that can also load reference data.
type seededStorage interface {
	catalog.Storage
	catalog.Seeder
}

// App holds the services of a running bot.
type App struct {
	cfg   *Config
	infra *bootstrap.Result

	store  catalog.Storage
	menu   *menu.Resolver
	wizard *wizard.Engine
	// sweeper is set when sessions live in process memory.
	sweeper *state.MemoryStore[wizard.Session]

	stopSweeper context.CancelFunc
	closeOnce   sync.Once
}

// Bootstrap builds the app from a loaded configuration. It is the entry point
// used by the command runner.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}
	return Build(cfg, bootstrap.Options{})
}

// Build runs the bootstrap pipeline with opts, seeds reference data and
// assembles the services. Config-derived fields of opts are overwritten.
func Build(cfg *Config, opts bootstrap.Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}
	opts.Config = &cfg.Config
	opts.Database = cfg.Database
	opts.RedisURL = cfg.Redis.URL
	opts.SkipDatabase = cfg.Storage.Driver == DriverMemory
	if !opts.SkipDatabase && opts.Migrations == nil {
		opts.Migrations = migrations.FS
	}

	infra, err := bootstrap.Run(opts)
	if err != nil {
		return nil, err
	}

	var store seededStorage
	if infra.DB != nil {
		store = postgres.New(infra.DB)
	} else {
		store = memstore.New()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := bootstrap.RunSeeders[catalog.Seeder](ctx, store, Seeders()...); err != nil {
		_ = infra.Close()
		return nil, err
	}

	app := &App{
		cfg:   cfg,
		infra: infra,
		store: store,
		menu:  menu.NewResolver(store, menu.Options{Currency: cfg.Shop.Currency}),
	}

	var sessions state.Store[wizard.Session]
	if infra.Redis != nil {
		prefix := cfg.Redis.KeyPrefix
		if prefix == "" {
			prefix = DefaultSessionPrefix
		}
		sessions = state.NewRedisStore[wizard.Session](infra.Redis, prefix, cfg.Wizard.SessionTTL)
	} else {
		app.sweeper = state.NewMemoryStore[wizard.Session](cfg.Wizard.SessionTTL)
		sessions = app.sweeper
	}
	app.wizard = wizard.New(store, sessions)

	logger.Info(logger.Background(), "app", "build",
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("redis_sessions", infra.Redis != nil),
		slog.Duration("session_ttl", cfg.Wizard.SessionTTL),
	)
	return app, nil
}

// Seeders insert the default categories and info page banners into an empty store.
func Seeders() []bootstrap.NamedSeeder[catalog.Seeder] {
	return []bootstrap.NamedSeeder[catalog.Seeder]{
		{
			Name: "categories",
			Seeder: bootstrap.SeederFunc[catalog.Seeder](func(ctx context.Context, s catalog.Seeder) error {
				return s.CreateCategories(ctx, catalog.DefaultCategories)
			}),
		},
		{
			Name: "banners",
			Seeder: bootstrap.SeederFunc[catalog.Seeder](func(ctx context.Context, s catalog.Seeder) error {
				return s.AddBanners(ctx, catalog.DefaultBanners)
			}),
		},
	}
}

func (a *App) admin() middleware.AdminOptions {
	return middleware.AdminOptions{
		IsAdmin:  a.cfg.Telegram.IsAdmin,
		OnReject: a.AdminRejected(),
	}
}

// TelegramRunOptions registers commands and callbacks and returns the routes
// and lifecycle hooks for the runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	admin := a.admin()
	if err := a.register(reg, admin); err != nil {
		return coretelegram.RunOptions{}, err
	}
	reg.SetCallbackNotFound(a.UnknownCallback())

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{Admin: admin})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes([]router.FSM{wizardFSM{Engine: a.wizard, app: a}}, reg, router.TextOptions{
		Admin:        admin,
		UnknownText:  a.UnknownText(),
		UnknownPhoto: a.UnknownPhoto(),
	})...)

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, onLimited),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func onLimited(c tele.Context) error {
	return tghelpers.Toast(c, textSlowDown)
}

func (a *App) onStart(ctx context.Context, _ coretelegram.Runtime) error {
	if a.sweeper == nil || a.cfg.Wizard.SessionTTL <= 0 {
		return nil
	}
	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopSweeper = cancel
	go a.sweeper.RunSweeper(sweepCtx, a.cfg.Wizard.SweepInterval)
	logger.Debug(ctx, "session", "session.sweeper",
		slog.Duration("interval", a.cfg.Wizard.SweepInterval),
	)
	return nil
}

func (a *App) onStop(context.Context, coretelegram.Runtime) error {
	if a.stopSweeper != nil {
		a.stopSweeper()
	}
	return nil
}

// Close stops background work and releases connections.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		if a.stopSweeper != nil {
			a.stopSweeper()
		}
		err = a.infra.Close()
	})
	return err
}
