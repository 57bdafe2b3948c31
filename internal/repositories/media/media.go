package media

import (
	"context"
	"errors"
	"time"

	"github.com/platefeed/stories/internal/domain"
)

// Record is one row of the content-addressable media registry.
type Record struct {
	Hash      string
	URL       string
	Kind      domain.MediaKind
	CreatedAt time.Time
}

var ErrNotFound = errors.New("media not found")

//go:generate go run go.uber.org/mock/mockgen -source=media.go -destination=mocks/mock.go

type Repository interface {
	// Create registers an uploaded blob. Re-registering the same hash is a
	// no-op: identical content yields the identical record.
	Create(ctx context.Context, rec Record) error
	GetByHash(ctx context.Context, hash string) (*Record, error)
	DeleteOrphans(ctx context.Context, olderThan time.Time) (int64, error)
}
