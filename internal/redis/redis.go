package redis

import (
	"context"

	"github.com/platefeed/stories/pkg/config"
	"github.com/platefeed/stories/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In
	LC     fx.Lifecycle
	Logger logger.Logger
	Config *config.Config
}

// New creates the shared redis client and manages its lifecycle.
func New(opts Opts) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Config.Redis.Addr,
		Password: opts.Config.Redis.Password,
		DB:       opts.Config.Redis.DB,
	})

	opts.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				// The feed cache degrades to postgres when redis is away,
				// so a failed ping is not a startup failure.
				opts.Logger.Warn("Redis unreachable at startup, cache will be bypassed", "error", err)
			} else {
				opts.Logger.Info("Connected to redis")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}
