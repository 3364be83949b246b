package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
)

// Seeder loads reference data into a storage implementation.
type Seeder[S any] interface {
	Seed(ctx context.Context, storage S) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc[S any] func(ctx context.Context, storage S) error

// Seed executes the underlying function.
func (f SeederFunc[S]) Seed(ctx context.Context, storage S) error {
	return f(ctx, storage)
}

// NamedSeeder attaches a log-friendly name to a seeder.
type NamedSeeder[S any] struct {
	Name   string
	Seeder Seeder[S]
}

// RunSeeders applies seeders in order and stops at the first failure.
func RunSeeders[S any](ctx context.Context, storage S, seeders ...NamedSeeder[S]) error {
	for _, s := range seeders {
		if s.Seeder == nil {
			continue
		}
		start := time.Now()
		if err := s.Seeder.Seed(ctx, storage); err != nil {
			logger.SEED.Error("seed failed",
				slog.String("event", "seed"),
				slog.String("seeder", s.Name),
				slog.String("err", err.Error()),
			)
			return fmt.Errorf("bootstrap: seeder %s: %w", s.Name, err)
		}
		logger.SEED.Info("seed applied",
			slog.String("event", "seed"),
			slog.String("seeder", s.Name),
			slog.Duration("duration", time.Since(start)),
		)
	}
	return nil
}
