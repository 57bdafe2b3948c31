package follow

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

func (r *PgxRepository) ListFollowed(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT author_id
		FROM follows
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query follows for user %s: %w", userID, err)
	}
	defer rows.Close()

	var authorIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan follow row: %w", err)
		}
		authorIDs = append(authorIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating follow rows: %w", err)
	}

	return authorIDs, nil
}

func (r *PgxRepository) Toggle(ctx context.Context, userID, authorID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM follows WHERE user_id = $1 AND author_id = $2`,
		userID, authorID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to unfollow %s: %w", authorID, err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO follows (user_id, author_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, authorID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to follow %s: %w", authorID, err)
	}
	return true, nil
}
