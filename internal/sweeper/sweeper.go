package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	mediarepo "github.com/platefeed/stories/internal/repositories/media"
	"github.com/platefeed/stories/internal/repositories/post"
	"github.com/platefeed/stories/pkg/config"
	"github.com/platefeed/stories/pkg/logger"
	"go.uber.org/fx"
)

// orphanGrace keeps freshly uploaded media around long enough for the
// composer that staged it to submit.
const orphanGrace = 24 * time.Hour

type Opts struct {
	fx.In

	PostRepo  post.Repository
	MediaRepo mediarepo.Repository
	Clock     clockwork.Clock
	Config    *config.Config
	Logger    logger.Logger
}

type Sweeper struct {
	PostRepo  post.Repository
	MediaRepo mediarepo.Repository
	Clock     clockwork.Clock
	Config    *config.Config
	Logger    logger.Logger
}

func New(opts Opts) *Sweeper {
	return &Sweeper{
		PostRepo:  opts.PostRepo,
		MediaRepo: opts.MediaRepo,
		Clock:     opts.Clock,
		Config:    opts.Config,
		Logger:    opts.Logger,
	}
}

// Schedule runs the expiry sweep on an interval. Expired posts are
// query-time invisible regardless; the sweep just keeps the tables
// bounded.
func (s *Sweeper) Schedule(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create sweep scheduler: %w", err)
	}

	interval := time.Duration(s.Config.Sweeper.Minutes) * time.Minute

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				s.Logger.Info("Context cancelled, stopping expiry sweep")
				return
			}

			sweepCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()

			now := s.Clock.Now()

			deleted, err := s.PostRepo.DeleteExpired(sweepCtx, now)
			if err != nil {
				s.Logger.Error("Failed to sweep expired posts", "error", err)
				return
			}

			orphans, err := s.MediaRepo.DeleteOrphans(sweepCtx, now.Add(-orphanGrace))
			if err != nil {
				s.Logger.Error("Failed to sweep orphaned media", "error", err)
				return
			}

			s.Logger.Info("Expiry sweep completed", "posts_deleted", deleted, "media_deleted", orphans)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}

	scheduler.Start()

	go func() {
		<-ctx.Done()
		s.Logger.Info("Stopping expiry sweep scheduler")
		if err := scheduler.Shutdown(); err != nil {
			s.Logger.Error("Failed to shut down sweep scheduler", "error", err)
		}
	}()

	return nil
}
