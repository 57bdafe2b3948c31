package post

import (
	"context"
	"errors"
	"time"

	"github.com/platefeed/stories/internal/domain"
)

var ErrNotFound = errors.New("post not found")
var ErrCannotCreate = errors.New("error create post")

//go:generate go run go.uber.org/mock/mockgen -source=post.go -destination=mocks/mock.go

type Repository interface {
	Create(ctx context.Context, post domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	// ListUnexpiredByAuthor returns the author's live posts, oldest first.
	ListUnexpiredByAuthor(ctx context.Context, authorID string, now time.Time) ([]domain.Post, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	IncrementViewCount(ctx context.Context, postID string) error
	UpsertAuthor(ctx context.Context, author domain.Author) error
}
