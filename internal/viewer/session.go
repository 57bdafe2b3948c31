package viewer

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/platefeed/stories/internal/aggregator"
	"github.com/platefeed/stories/internal/intake"
	"github.com/platefeed/stories/internal/intake/intakeimpl"
	"github.com/platefeed/stories/internal/media"
	"github.com/platefeed/stories/internal/overlay"
	"github.com/platefeed/stories/internal/playback"
	"github.com/platefeed/stories/internal/repositories/follow"
	"github.com/platefeed/stories/pkg/formatter"
	"github.com/platefeed/stories/pkg/logger"
)

// frameInterval is the session's animation-frame substitute.
const frameInterval = 50 * time.Millisecond

const eventBuffer = 64

type call struct {
	fn   func()
	done chan struct{}
}

// Session is the per-client playback loop. The navigator, timer, overlay
// stack and staged drafts are owned by the Run goroutine; outside code
// reaches them only through Send and Call.
type Session struct {
	ViewerID string

	log        logger.Logger
	clock      clockwork.Clock
	aggregator aggregator.Client
	followRepo follow.Repository

	history *overlay.MemoryHistory
	stack   *overlay.Stack
	intake  intake.Client

	nav   *playback.Navigator
	timer *playback.Timer
	gen   uint64
	held  bool

	zoomDraftID string

	cmds   chan any
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
}

func newSession(viewerID string, agg aggregator.Client, followRepo follow.Repository, store media.Store, clock clockwork.Clock, log logger.Logger) *Session {
	s := &Session{
		ViewerID:   viewerID,
		log:        log,
		clock:      clock,
		aggregator: agg,
		followRepo: followRepo,
		history:    overlay.NewMemoryHistory(),
		cmds:       make(chan any, 16),
		events:     make(chan Event, eventBuffer),
		done:       make(chan struct{}),
	}

	s.timer = playback.NewTimer(clock, s.onPostComplete)
	s.intake = intakeimpl.New(store, log, func() {
		// Picking a file while the composer is closed opens it.
		s.stack.Open(overlay.KeyComposer)
	})

	s.stack = overlay.NewStack(s.history, log)
	s.stack.OnScrollLock = func(locked bool) {
		s.emit(Event{Type: EventScrollLock, Locked: locked})
	}
	s.stack.OnChange = func(key overlay.SurfaceKey, open bool) {
		s.emit(Event{Type: EventOverlay, Surface: string(key), Open: open})
	}
	s.stack.Register(overlay.KeyStoryViewer, s.teardownViewer)
	s.stack.Register(overlay.KeyComposer, s.intake.ClearAll)
	s.stack.Register(overlay.KeyZoomPreview, func() { s.zoomDraftID = "" })

	return s
}

// Run owns every piece of session state until the context ends.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	ticker := s.clock.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.timer.Cancel()
			s.stack.Release()
			return
		case <-ticker.Chan():
			s.tick(ctx)
		case raw := <-s.cmds:
			switch c := raw.(type) {
			case Command:
				s.handle(ctx, c)
			case call:
				c.fn()
				close(c.done)
			}
		}
	}
}

// Send queues a client command. Full sessions drop commands rather than
// block the transport.
func (s *Session) Send(cmd Command) {
	select {
	case s.cmds <- cmd:
	case <-s.done:
	default:
		s.log.Warn("Session command queue full, dropping", "viewer_id", s.ViewerID, "op", cmd.Op)
	}
}

// Call runs fn on the session loop and waits for it. Used by REST
// handlers that need to touch session-owned state (drafts, overlays).
func (s *Session) Call(ctx context.Context, fn func()) error {
	c := call{fn: fn, done: make(chan struct{})}
	select {
	case s.cmds <- c:
	case <-s.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-c.done:
		return nil
	case <-s.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events is consumed by the attached transport.
func (s *Session) Events() <-chan Event { return s.events }

// Intake exposes the composer's staged drafts to REST handlers; only
// touch it inside Call.
func (s *Session) Intake() intake.Client { return s.intake }

func (s *Session) Overlays() *overlay.Stack { return s.stack }

func (s *Session) IsAnyOverlayOpen() bool { return s.stack.IsAnyOpen() }

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		// Progress streams are lossy by design; never block the loop.
	}
}

func (s *Session) tick(ctx context.Context) {
	_ = ctx
	if s.nav == nil || !s.stack.IsOpen(overlay.KeyStoryViewer) {
		return
	}
	s.timer.Tick(s.gen)
	if s.timer.State() == playback.StateRunning {
		s.emit(Event{
			Type:     EventProgress,
			Progress: s.timer.Progress(),
			Overall:  s.nav.OverallProgress(s.timer.Progress() / 100),
		})
	}
}

func (s *Session) handle(ctx context.Context, cmd Command) {
	switch cmd.Op {
	case OpOpenViewer:
		s.openViewer(ctx, cmd.Scope)
	case OpOpenComposer:
		s.stack.Open(overlay.KeyComposer)
	case OpOpenZoom:
		s.openZoom(cmd.DraftID)
	case OpRequestClose:
		s.stack.RequestClose(overlay.SurfaceKey(cmd.Surface))
	case OpBack:
		s.history.Back()
	case OpPause:
		s.held = true
		s.timer.Pause()
	case OpResume:
		s.held = false
		s.timer.Resume()
	case OpNext:
		s.advance()
	case OpPrev:
		s.retreat()
	case OpJump:
		s.jump(ctx, cmd.AuthorID)
	case OpMediaPosition:
		s.timer.ReportMediaPosition(s.gen, cmd.Position, cmd.Duration)
	case OpMediaEnded:
		s.timer.ReportMediaEnded(s.gen)
	default:
		s.log.Warn("Unknown session command", "viewer_id", s.ViewerID, "op", cmd.Op)
	}
}

func (s *Session) openViewer(ctx context.Context, scope string) {
	if s.stack.IsOpen(overlay.KeyStoryViewer) {
		return
	}

	var authorIDs []string
	if scope == ScopeAll || scope == "" {
		followed, err := s.followRepo.ListFollowed(ctx, s.ViewerID)
		if err != nil {
			s.log.Error("Failed to list followed authors", "viewer_id", s.ViewerID, "error", err)
			s.emit(Event{Type: EventError, Message: "could not load stories"})
			return
		}
		authorIDs = followed
	} else {
		authorIDs = []string{scope}
	}

	list, err := s.aggregator.LoadAllSequences(ctx, s.ViewerID, authorIDs)
	if err != nil {
		s.log.Error("Failed to aggregate sequences", "viewer_id", s.ViewerID, "error", err)
		s.emit(Event{Type: EventError, Message: "could not load stories"})
		return
	}
	if list.Empty() {
		// Zero stories is a valid terminal state, not an error.
		s.emit(Event{Type: EventEmpty})
		return
	}

	s.nav = playback.NewNavigator(list)
	s.stack.Open(overlay.KeyStoryViewer)
	s.startPost()
}

func (s *Session) teardownViewer() {
	s.timer.Cancel()
	s.nav = nil
	s.held = false
	s.emit(Event{Type: EventFinished})
}

func (s *Session) startPost() {
	p := s.nav.CurrentPost()
	s.gen = s.timer.Start(p.Content, s.held)

	seqIdx, postIdx := s.nav.Position()
	s.emit(Event{
		Type:          EventPostChanged,
		SequenceIndex: seqIdx,
		PostIndex:     postIdx,
		Post:          &p,
		PostedAgo:     formatter.TimeAgo(p.CreatedAt, s.clock.Now()),
		Overall:       s.nav.OverallProgress(0),
	})
}

// onPostComplete is the timer's completion hook; it runs on the session
// loop because every timer entry point does.
func (s *Session) onPostComplete() {
	s.advance()
}

func (s *Session) advance() {
	if s.nav == nil {
		return
	}
	if s.nav.Advance() {
		s.startPost()
		return
	}
	// Last post of the last sequence: playback is finished and the viewer
	// closes through the regular history path.
	s.stack.RequestClose(overlay.KeyStoryViewer)
}

func (s *Session) retreat() {
	if s.nav == nil {
		return
	}
	if !s.nav.Retreat() {
		// First post of the first sequence: the active post keeps its
		// accumulated progress.
		return
	}
	s.startPost()
}

func (s *Session) jump(ctx context.Context, authorID string) {
	if s.nav == nil || authorID == "" {
		return
	}
	if s.nav.JumpTo(authorID) {
		s.startPost()
		return
	}

	// Single-story entry point: the author is not in the working set, so
	// aggregate just that author before switching.
	list, err := s.aggregator.LoadAllSequences(ctx, s.ViewerID, []string{authorID})
	if err != nil || list.Empty() {
		if err != nil {
			s.log.Warn("Jump aggregation failed", "author_id", authorID, "error", err)
		}
		s.emit(Event{Type: EventError, Message: "no stories for author"})
		return
	}
	s.nav = playback.NewNavigator(list)
	s.startPost()
}

func (s *Session) openZoom(draftID string) {
	if _, ok := s.intake.Preview(draftID); !ok {
		s.emit(Event{Type: EventError, Message: "unknown draft"})
		return
	}
	s.zoomDraftID = draftID
	s.stack.Open(overlay.KeyZoomPreview)
}
