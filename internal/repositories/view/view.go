package view

import (
	"context"
)

//go:generate go run go.uber.org/mock/mockgen -source=view.go -destination=mocks/mock.go

type Repository interface {
	// MarkViewed records that viewer has seen the post. It reports whether
	// the record is new; repeat marks are absorbed and report false.
	MarkViewed(ctx context.Context, postID, viewerID string) (bool, error)
	CountForPost(ctx context.Context, postID string) (int, error)
}
