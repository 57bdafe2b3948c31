package aggregatorimpl

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"
	"github.com/platefeed/stories/internal/aggregator"
	"github.com/platefeed/stories/internal/cache"
	"github.com/platefeed/stories/internal/domain"
	"github.com/platefeed/stories/internal/repositories/post"
	"github.com/platefeed/stories/internal/repositories/view"
	apperrors "github.com/platefeed/stories/pkg/errors"
	"github.com/platefeed/stories/pkg/logger"
	"github.com/samber/lo"
	"go.uber.org/fx"
)

const fetchPoolSize = 5

type Opts struct {
	fx.In

	PostRepo post.Repository
	ViewRepo view.Repository
	Cache    cache.Stories
	Clock    clockwork.Clock
	Logger   logger.Logger
}

type AggregatorImpl struct {
	PostRepo post.Repository
	ViewRepo view.Repository
	Cache    cache.Stories
	Clock    clockwork.Clock
	Logger   logger.Logger
}

func New(opts Opts) *AggregatorImpl {
	return &AggregatorImpl{
		PostRepo: opts.PostRepo,
		ViewRepo: opts.ViewRepo,
		Cache:    opts.Cache,
		Clock:    opts.Clock,
		Logger:   opts.Logger,
	}
}

var _ aggregator.Client = (*AggregatorImpl)(nil)

func (a *AggregatorImpl) LoadStoriesForUser(ctx context.Context, viewerID, authorID string) ([]domain.Post, error) {
	now := a.Clock.Now()

	posts, hit := a.Cache.Get(ctx, authorID)
	if !hit {
		var err error
		posts, err = a.PostRepo.ListUnexpiredByAuthor(ctx, authorID, now)
		if err != nil {
			return nil, apperrors.WrapWithCode(err, "NETWORK", fmt.Sprintf("failed to load stories for %s", authorID))
		}
		a.Cache.Set(ctx, authorID, posts)
	}

	// Cached entries may straddle an expiry boundary; filter again against
	// the current clock.
	posts = lo.Filter(posts, func(p domain.Post, _ int) bool {
		return !p.Expired(now)
	})

	a.markViewed(ctx, viewerID, posts)
	return posts, nil
}

// markViewed records the viewed side effect. The repository absorbs
// repeats, so the view count moves at most once per viewer per post.
// Failures are logged, never surfaced: marking is bookkeeping, not part of
// the read.
func (a *AggregatorImpl) markViewed(ctx context.Context, viewerID string, posts []domain.Post) {
	for _, p := range posts {
		newly, err := a.ViewRepo.MarkViewed(ctx, p.ID, viewerID)
		if err != nil {
			a.Logger.Warn("Failed to mark post viewed", "post_id", p.ID, "viewer_id", viewerID, "error", err)
			continue
		}
		if newly {
			if err := a.PostRepo.IncrementViewCount(ctx, p.ID); err != nil {
				a.Logger.Warn("Failed to bump view count", "post_id", p.ID, "error", err)
			}
		}
	}
}

func (a *AggregatorImpl) LoadAllSequences(ctx context.Context, viewerID string, authorIDs []string) (*domain.SequenceList, error) {
	results := make([][]domain.Post, len(authorIDs))

	var wg sync.WaitGroup
	pool, err := ants.NewPool(fetchPoolSize, ants.WithPreAlloc(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch pool: %w", err)
	}
	defer pool.Release()

	for idx, authorID := range authorIDs {
		wg.Add(1)
		slot, id := idx, authorID

		err := pool.Submit(func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				a.Logger.Info("Skipping author fetch, context cancelled", "author_id", id)
				return
			default:
			}

			posts, err := a.LoadStoriesForUser(ctx, viewerID, id)
			if err != nil {
				// One author failing must not take the rest of the feed
				// down with it.
				a.Logger.Warn("Author fetch failed, treating as empty", "author_id", id, "error", err)
				return
			}
			results[slot] = posts
		})
		if err != nil {
			wg.Done()
			a.Logger.Error("Failed to submit fetch to pool", "author_id", id, "error", err)
		}
	}

	wg.Wait()

	// Fetches resolve in any order; the slot table restores the follow
	// order before empty authors are dropped.
	list := &domain.SequenceList{}
	for idx, posts := range results {
		if len(posts) == 0 {
			continue
		}
		list.Sequences = append(list.Sequences, domain.NewSequence(authorIDs[idx], posts))
	}
	return list, nil
}
