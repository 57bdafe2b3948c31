package domain

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaDraft is a locally staged upload: it exists only inside one
// composer session and is never persisted until an explicit submit.
// PreviewURL is a revocable handle; after Remove/ClearAll it must not be
// dereferenced again.
type MediaDraft struct {
	ID         string
	FileName   string
	Kind       MediaKind
	PreviewURL string
}
