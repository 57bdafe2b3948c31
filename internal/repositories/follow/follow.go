package follow

import (
	"context"
)

//go:generate go run go.uber.org/mock/mockgen -source=follow.go -destination=mocks/mock.go

type Repository interface {
	// ListFollowed returns the ids of authors the user follows, oldest
	// follow first, without duplicates.
	ListFollowed(ctx context.Context, userID string) ([]string, error)
	// Toggle flips the follow edge and reports the resulting state.
	Toggle(ctx context.Context, userID, authorID string) (bool, error)
}
