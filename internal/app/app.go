package app

import (
	"context"
	"database/sql"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/platefeed/stories/internal/aggregator"
	"github.com/platefeed/stories/internal/aggregator/aggregatorimpl"
	"github.com/platefeed/stories/internal/cache"
	"github.com/platefeed/stories/internal/gateway"
	"github.com/platefeed/stories/internal/media"
	"github.com/platefeed/stories/internal/media/mediaimpl"
	_ "github.com/platefeed/stories/internal/migrations"
	"github.com/platefeed/stories/internal/pgx"
	"github.com/platefeed/stories/internal/redis"
	repositories "github.com/platefeed/stories/internal/repositories/fx"
	"github.com/platefeed/stories/internal/sweeper"
	"github.com/platefeed/stories/internal/viewer"
	"github.com/platefeed/stories/pkg/config"
	"github.com/platefeed/stories/pkg/logger"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
)

var App = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
		redis.New,
		func() clockwork.Clock { return clockwork.NewRealClock() },
	),
	fx.Provide(
		fx.Annotate(
			mediaimpl.New,
			fx.As(new(media.Store)),
		),
		fx.Annotate(
			aggregatorimpl.New,
			fx.As(new(aggregator.Client)),
		),
		sweeper.New,
		gateway.New,
	),
	repositories.Module,
	cache.Module,
	viewer.Module,
	fx.Invoke(
		func(c *config.Config) error {
			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}

			db, err := sql.Open("postgres", c.GetDSN())
			if err != nil {
				return err
			}
			defer db.Close()

			// Schema lives in registered Go migrations; no .sql directory.
			return goose.Up(db, ".")
		}),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, log logger.Logger, sw *sweeper.Sweeper, _ *gateway.Server) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := sw.Schedule(ctx); err != nil {
				log.Error("Failed to schedule expiry sweep", "error", err)
				return err
			}
			log.Info("Stories service started")
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
