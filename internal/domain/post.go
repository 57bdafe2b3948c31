package domain

import "time"

// StoryTTL is how long a status post stays visible after creation.
const StoryTTL = 24 * time.Hour

type AuthorKind string

const (
	AuthorPerson       AuthorKind = "person"
	AuthorOrganization AuthorKind = "organization"
)

type Author struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Kind        AuthorKind `json:"kind"`
}

type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
	ContentVideo ContentKind = "video"
)

// Content is the post body variant. It is a closed set: every consumer
// switches exhaustively on the three concrete types.
type Content interface {
	Kind() ContentKind
	sealed()
}

type TextContent struct {
	Body string
}

type ImageContent struct {
	URL     string
	Caption string
}

type VideoContent struct {
	URL     string
	Caption string
}

func (TextContent) Kind() ContentKind  { return ContentText }
func (ImageContent) Kind() ContentKind { return ContentImage }
func (VideoContent) Kind() ContentKind { return ContentVideo }

func (TextContent) sealed()  {}
func (ImageContent) sealed() {}
func (VideoContent) sealed() {}

// Post is a single ephemeral story item.
type Post struct {
	ID        string
	Author    Author
	Content   Content
	CreatedAt time.Time
	ExpiresAt time.Time
	ViewCount int
}

// Expired reports whether the post must no longer appear in any feed.
func (p Post) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
