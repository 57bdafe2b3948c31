package cache

import (
	"context"

	"github.com/platefeed/stories/internal/domain"
)

// Stories is a short-lived cache of per-author live story lists sitting
// in front of the post repository. Misses and backend failures are both
// "not cached": callers always fall through to the repository.
type Stories interface {
	Get(ctx context.Context, authorID string) ([]domain.Post, bool)
	Set(ctx context.Context, authorID string, posts []domain.Post)
	Invalidate(ctx context.Context, authorID string)
}
