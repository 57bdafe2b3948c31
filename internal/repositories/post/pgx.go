package post

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/platefeed/stories/internal/domain"
	"github.com/platefeed/stories/internal/repositories"
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

const postColumns = `p.id, p.author_id, a.display_name, a.image_url, a.kind,
	p.content_kind, p.body, p.media_url, p.caption, p.view_count, p.created_at, p.expires_at`

func scanPost(row pgx.Row) (*domain.Post, error) {
	var (
		p           domain.Post
		contentKind domain.ContentKind
		body        string
		mediaURL    string
		caption     string
	)
	err := row.Scan(
		&p.ID,
		&p.Author.ID,
		&p.Author.DisplayName,
		&p.Author.ImageURL,
		&p.Author.Kind,
		&contentKind,
		&body,
		&mediaURL,
		&caption,
		&p.ViewCount,
		&p.CreatedAt,
		&p.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	switch contentKind {
	case domain.ContentText:
		p.Content = domain.TextContent{Body: body}
	case domain.ContentImage:
		p.Content = domain.ImageContent{URL: mediaURL, Caption: caption}
	case domain.ContentVideo:
		p.Content = domain.VideoContent{URL: mediaURL, Caption: caption}
	default:
		return nil, fmt.Errorf("post %s has unknown content kind %q", p.ID, contentKind)
	}

	return &p, nil
}

func contentColumns(c domain.Content) (kind domain.ContentKind, body, mediaURL, caption string) {
	switch v := c.(type) {
	case domain.TextContent:
		return domain.ContentText, v.Body, "", ""
	case domain.ImageContent:
		return domain.ContentImage, "", v.URL, v.Caption
	case domain.VideoContent:
		return domain.ContentVideo, "", v.URL, v.Caption
	default:
		return "", "", "", ""
	}
}

func (r *PgxRepository) Create(ctx context.Context, post domain.Post) error {
	kind, body, mediaURL, caption := contentColumns(post.Content)
	if kind == "" {
		return ErrCannotCreate
	}

	query, args, err := repositories.SqBuilder.
		Insert("posts").
		Columns("id", "author_id", "content_kind", "body", "media_url", "caption", "created_at", "expires_at").
		Values(post.ID, post.Author.ID, kind, body, mediaURL, caption, post.CreatedAt, post.ExpiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %v", repositories.ErrBadQuery, err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *PgxRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM posts p
		JOIN authors a ON a.id = p.author_id
		WHERE p.id = $1
	`, postColumns)

	p, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post by id: %w", err)
	}
	return p, nil
}

func (r *PgxRepository) ListUnexpiredByAuthor(ctx context.Context, authorID string, now time.Time) ([]domain.Post, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM posts p
		JOIN authors a ON a.id = p.author_id
		WHERE p.author_id = $1 AND p.expires_at > $2
		ORDER BY p.created_at ASC
	`, postColumns)

	rows, err := r.pool.Query(ctx, query, authorID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts for author %s: %w", authorID, err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

func (r *PgxRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := repositories.SqBuilder.
		Delete("posts").
		Where(squirrel.LtOrEq{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", repositories.ErrBadQuery, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired posts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgxRepository) IncrementViewCount(ctx context.Context, postID string) error {
	query := `
		UPDATE posts
		SET view_count = view_count + 1
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, postID); err != nil {
		return fmt.Errorf("failed to increment view count for %s: %w", postID, err)
	}
	return nil
}

func (r *PgxRepository) UpsertAuthor(ctx context.Context, author domain.Author) error {
	query := `
		INSERT INTO authors (id, display_name, image_url, kind)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    image_url = EXCLUDED.image_url
	`

	if _, err := r.pool.Exec(ctx, query, author.ID, author.DisplayName, author.ImageURL, author.Kind); err != nil {
		return fmt.Errorf("failed to upsert author %s: %w", author.ID, err)
	}
	return nil
}
