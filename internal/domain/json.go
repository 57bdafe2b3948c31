package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type contentEnvelope struct {
	Kind    ContentKind `json:"kind"`
	Body    string      `json:"body,omitempty"`
	URL     string      `json:"url,omitempty"`
	Caption string      `json:"caption,omitempty"`
}

type postEnvelope struct {
	ID        string          `json:"id"`
	Author    Author          `json:"author"`
	Content   contentEnvelope `json:"content"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
	ViewCount int             `json:"viewCount"`
}

func encodeContent(c Content) contentEnvelope {
	switch v := c.(type) {
	case TextContent:
		return contentEnvelope{Kind: ContentText, Body: v.Body}
	case ImageContent:
		return contentEnvelope{Kind: ContentImage, URL: v.URL, Caption: v.Caption}
	case VideoContent:
		return contentEnvelope{Kind: ContentVideo, URL: v.URL, Caption: v.Caption}
	default:
		return contentEnvelope{}
	}
}

func decodeContent(e contentEnvelope) (Content, error) {
	switch e.Kind {
	case ContentText:
		return TextContent{Body: e.Body}, nil
	case ContentImage:
		return ImageContent{URL: e.URL, Caption: e.Caption}, nil
	case ContentVideo:
		return VideoContent{URL: e.URL, Caption: e.Caption}, nil
	default:
		return nil, fmt.Errorf("unknown content kind %q", e.Kind)
	}
}

func (p Post) MarshalJSON() ([]byte, error) {
	return json.Marshal(postEnvelope{
		ID:        p.ID,
		Author:    p.Author,
		Content:   encodeContent(p.Content),
		CreatedAt: p.CreatedAt,
		ExpiresAt: p.ExpiresAt,
		ViewCount: p.ViewCount,
	})
}

func (p *Post) UnmarshalJSON(data []byte) error {
	var e postEnvelope
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	content, err := decodeContent(e.Content)
	if err != nil {
		return err
	}
	p.ID = e.ID
	p.Author = e.Author
	p.Content = content
	p.CreatedAt = e.CreatedAt
	p.ExpiresAt = e.ExpiresAt
	p.ViewCount = e.ViewCount
	return nil
}
