package intake

import (
	"context"

	"github.com/platefeed/stories/internal/domain"
)

// File is a locally selected file, as delivered by the client.
type File struct {
	Name string
	Kind domain.MediaKind
	Data []byte
}

// Client stages media drafts for one composer session. Previews are
// revocable handles: after Remove or ClearAll a draft's preview must not
// be dereferenced again. Nothing touches the backing store until Submit.
type Client interface {
	AddFiles(files []File) []domain.MediaDraft
	Remove(draftID string)
	ClearAll()
	Drafts() []domain.MediaDraft
	// Preview resolves a draft's preview handle while it is still live.
	Preview(draftID string) ([]byte, bool)
	// Submit uploads every staged draft and returns the content URLs in
	// staging order.
	Submit(ctx context.Context) ([]string, error)
}
