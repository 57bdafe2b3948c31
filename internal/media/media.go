package media

import (
	"context"
	"io"

	"github.com/platefeed/stories/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=media.go -destination=mocks/mock.go

// Store persists uploaded media and hands back a stable, content-addressed
// URL: uploading identical bytes twice yields the same reference.
type Store interface {
	Upload(ctx context.Context, fileName string, kind domain.MediaKind, r io.Reader) (string, error)
}
