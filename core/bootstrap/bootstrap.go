package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	coredatabase "github.com/m3rciful/shopbot/core/database"
	"github.com/m3rciful/shopbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// Migrations holds the *.up.sql/*.down.sql files applied after connecting.
	Migrations fs.FS
	// RedisURL enables the redis client when non-empty.
	RedisURL string
	// SkipDatabase runs the pipeline without a relational store.
	SkipDatabase bool

	LoggerInit   func(*coreconfig.Config) error
	Connect      func(coredatabase.Config) (*sqlx.DB, error)
	Migrate      func(coredatabase.Config, fs.FS) error
	ConnectRedis func(ctx context.Context, url string) (*redis.Client, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

// Close releases every connection held by the result.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var first error
	if r.Redis != nil {
		first = r.Redis.Close()
	}
	if r.DB != nil {
		if err := r.DB.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Run initializes the logger, connects to the database, applies migrations and
// opens the optional redis client.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	if !opts.SkipDatabase {
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(opts.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		res.DB = db

		if opts.Migrations != nil {
			migrate := opts.Migrate
			if migrate == nil {
				migrate = coredatabase.RunMigrations
			}
			if err := migrate(opts.Database, opts.Migrations); err != nil {
				_ = res.Close()
				return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
			}
		}
	}

	if opts.RedisURL != "" {
		connectRedis := opts.ConnectRedis
		if connectRedis == nil {
			connectRedis = ConnectRedis
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := connectRedis(ctx, opts.RedisURL)
		cancel()
		if err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: redis initialization failed: %w", err)
		}
		res.Redis = client
	}

	return res, nil
}

// ConnectRedis parses url, opens a client and pings it.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.DB.Error("redis connect failed",
			slog.String("event", "redis.connect"),
			slog.String("host", opt.Addr),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.DB.Info("redis connected",
		slog.String("event", "redis.connect"),
		slog.String("host", opt.Addr),
		slog.Duration("duration", time.Since(start)),
	)
	return client, nil
}
