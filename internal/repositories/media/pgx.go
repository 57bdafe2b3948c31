package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
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

func (r *PgxRepository) Create(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO media (hash, url, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (hash) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, rec.Hash, rec.URL, rec.Kind); err != nil {
		return fmt.Errorf("failed to register media %s: %w", rec.Hash, err)
	}
	return nil
}

func (r *PgxRepository) GetByHash(ctx context.Context, hash string) (*Record, error) {
	query := `
		SELECT hash, url, kind, created_at
		FROM media
		WHERE hash = $1
	`

	var rec Record
	err := r.pool.QueryRow(ctx, query, hash).Scan(&rec.Hash, &rec.URL, &rec.Kind, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get media by hash: %w", err)
	}
	return &rec, nil
}

// DeleteOrphans drops registry rows no live post references anymore.
func (r *PgxRepository) DeleteOrphans(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		DELETE FROM media m
		WHERE m.created_at < $1
		  AND NOT EXISTS (SELECT 1 FROM posts p WHERE p.media_url = m.url)
	`

	tag, err := r.pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned media: %w", err)
	}
	return tag.RowsAffected(), nil
}
