package viewer

import "github.com/platefeed/stories/internal/domain"

// ScopeAll plays every followed author's stories in follow order.
const ScopeAll = "all"

// Command ops accepted by a session, mirrored one-to-one by the ws
// protocol.
const (
	OpOpenViewer    = "open_viewer"
	OpOpenComposer  = "open_composer"
	OpOpenZoom      = "open_zoom"
	OpRequestClose  = "request_close"
	OpBack          = "back"
	OpPause         = "pause"
	OpResume        = "resume"
	OpNext          = "next"
	OpPrev          = "prev"
	OpJump          = "jump"
	OpMediaPosition = "media_position"
	OpMediaEnded    = "media_ended"
)

type Command struct {
	Op       string  `json:"op"`
	Scope    string  `json:"scope,omitempty"`
	AuthorID string  `json:"authorId,omitempty"`
	Surface  string  `json:"surface,omitempty"`
	DraftID  string  `json:"draftId,omitempty"`
	Position float64 `json:"position,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Event types emitted by a session.
const (
	EventPostChanged = "post_changed"
	EventProgress    = "progress"
	EventFinished    = "finished"
	EventOverlay     = "overlay"
	EventScrollLock  = "scroll_lock"
	EventEmpty       = "empty"
	EventError       = "error"
)

type Event struct {
	Type          string       `json:"type"`
	SequenceIndex int          `json:"sequenceIndex,omitempty"`
	PostIndex     int          `json:"postIndex,omitempty"`
	Post          *domain.Post `json:"post,omitempty"`
	PostedAgo     string       `json:"postedAgo,omitempty"`
	Progress      float64      `json:"progress,omitempty"`
	Overall       float64      `json:"overall,omitempty"`
	Surface       string       `json:"surface,omitempty"`
	Open          bool         `json:"open,omitempty"`
	Locked        bool         `json:"locked,omitempty"`
	Message       string       `json:"message,omitempty"`
}
