package view

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/platefeed/stories/pkg/logger"
)

type PgxRepository struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

func NewPgxRepository(pool *pgxpool.Pool, logger logger.Logger) *PgxRepository {
	return &PgxRepository{
		pool:   pool,
		logger: logger,
	}
}

var _ Repository = (*PgxRepository)(nil)

func (r *PgxRepository) MarkViewed(ctx context.Context, postID, viewerID string) (bool, error) {
	query := `
		INSERT INTO post_views (post_id, viewer_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, viewer_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, postID, viewerID)
	if err != nil {
		return false, fmt.Errorf("failed to mark post %s viewed: %w", postID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgxRepository) CountForPost(ctx context.Context, postID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM post_views
		WHERE post_id = $1
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, postID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count views for post %s: %w", postID, err)
	}
	return count, nil
}
