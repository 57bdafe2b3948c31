package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/platefeed/stories/internal/domain"
	"github.com/platefeed/stories/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const storiesTTL = 30 * time.Second

type RedisStories struct {
	client *redis.Client
	logger logger.Logger
}

func NewRedisStories(client *redis.Client, logger logger.Logger) *RedisStories {
	return &RedisStories{
		client: client,
		logger: logger,
	}
}

var _ Stories = (*RedisStories)(nil)

var Module = fx.Provide(
	fx.Annotate(
		NewRedisStories,
		fx.As(new(Stories)),
	),
)

func storiesKey(authorID string) string {
	return "stories:" + authorID
}

func (c *RedisStories) Get(ctx context.Context, authorID string) ([]domain.Post, bool) {
	raw, err := c.client.Get(ctx, storiesKey(authorID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("Story cache read failed", "author_id", authorID, "error", err)
		}
		return nil, false
	}

	var posts []domain.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		c.logger.Warn("Story cache entry is corrupt, dropping it", "author_id", authorID, "error", err)
		c.Invalidate(ctx, authorID)
		return nil, false
	}
	return posts, true
}

func (c *RedisStories) Set(ctx context.Context, authorID string, posts []domain.Post) {
	raw, err := json.Marshal(posts)
	if err != nil {
		c.logger.Warn("Failed to encode stories for cache", "author_id", authorID, "error", err)
		return
	}
	if err := c.client.Set(ctx, storiesKey(authorID), raw, storiesTTL).Err(); err != nil {
		c.logger.Debug("Story cache write failed", "author_id", authorID, "error", err)
	}
}

func (c *RedisStories) Invalidate(ctx context.Context, authorID string) {
	if err := c.client.Del(ctx, storiesKey(authorID)).Err(); err != nil {
		c.logger.Debug("Story cache invalidation failed", "author_id", authorID, "error", err)
	}
}
