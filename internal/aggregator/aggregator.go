package aggregator

import (
	"context"

	"github.com/platefeed/stories/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=aggregator.go -destination=mocks/mock.go

// Client assembles the story feed a viewer plays back.
type Client interface {
	// LoadStoriesForUser returns one author's live posts, oldest first,
	// recording a viewed marker for the viewer as a side effect.
	LoadStoriesForUser(ctx context.Context, viewerID, authorID string) ([]domain.Post, error)
	// LoadAllSequences builds the playback working set for the given
	// authors, preserving their order among those with at least one live
	// post. A single author's failure degrades to an empty sequence; a
	// total failure yields an empty list, in which case the viewer must
	// not open.
	LoadAllSequences(ctx context.Context, viewerID string, authorIDs []string) (*domain.SequenceList, error)
}
