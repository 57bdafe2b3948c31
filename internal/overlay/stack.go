package overlay

import (
	apperrors "github.com/platefeed/stories/pkg/errors"
	"github.com/platefeed/stories/pkg/logger"
)

type surfaceState struct {
	open     bool
	teardown func()
}

// Stack keeps the open/closed state of every overlay surface in lockstep
// with the navigation history: frames are pushed in open order and are
// consumed strictly last-opened-first. One Stack handles all three
// surfaces, so the push/pop/scroll-lock logic exists exactly once.
//
// Both the X button and the platform back gesture funnel through
// RequestClose -> history.Back() -> frame-changed; the frame-changed
// handler is the only code that flips a surface closed on navigation.
// Stack is owned by a single session loop and is not goroutine-safe.
type Stack struct {
	history NavigationHistory
	log     logger.Logger

	surfaces map[SurfaceKey]*surfaceState
	// order lists currently open surfaces oldest-first; the last entry is
	// the one a single back must close.
	order  []SurfaceKey
	locked bool

	// OnScrollLock is invoked on every lock transition. Page scroll is
	// suppressed exactly while at least one surface is open.
	OnScrollLock func(locked bool)
	// OnChange is invoked after a surface visibly opens or closes.
	OnChange func(key SurfaceKey, open bool)

	unsubscribe func()
}

func NewStack(history NavigationHistory, log logger.Logger) *Stack {
	s := &Stack{
		history:  history,
		log:      log,
		surfaces: make(map[SurfaceKey]*surfaceState),
	}
	s.unsubscribe = history.Subscribe(s.handleFrameChanged)
	return s
}

// Register binds a teardown to a surface. Teardown runs before the surface
// reports closed, on every close path.
func (s *Stack) Register(key SurfaceKey, teardown func()) {
	s.state(key).teardown = teardown
}

func (s *Stack) state(key SurfaceKey) *surfaceState {
	st, ok := s.surfaces[key]
	if !ok {
		st = &surfaceState{}
		s.surfaces[key] = st
	}
	return st
}

// Open shows the surface, pushing a tagged history frame unless the
// current frame already carries this tag. Double-open is idempotent: no
// duplicate frame, no duplicate order entry.
func (s *Stack) Open(key SurfaceKey) {
	st := s.state(key)
	if st.open {
		return
	}
	if s.history.CurrentTag() != key {
		s.history.Push(key)
	}
	st.open = true
	s.order = append(s.order, key)
	s.updateScrollLock()
	if s.OnChange != nil {
		s.OnChange(key, true)
	}
}

// RequestClose closes the surface through the history, so a programmatic
// close consumes its frame exactly like a back gesture would. When the
// expected frame is missing the surface closes directly instead; that is
// a logged desync, never a stuck overlay.
func (s *Stack) RequestClose(key SurfaceKey) {
	st := s.state(key)
	if !st.open {
		return
	}
	if s.history.CurrentTag() == key {
		s.history.Back()
		return
	}
	s.log.Warn("History frame missing on close, closing surface directly", "surface", string(key), "error", apperrors.ErrHistoryDesync)
	s.closeSurface(key, st)
}

// handleFrameChanged receives the tag that is current after a back
// navigation. Open surfaces above that frame have had their frames
// consumed and close, newest first; the surface owning the current frame
// (and everything beneath it) stays open.
func (s *Stack) handleFrameChanged(current SurfaceKey) {
	for len(s.order) > 0 {
		top := s.order[len(s.order)-1]
		if top == current {
			return
		}
		s.closeSurface(top, s.state(top))
	}
}

func (s *Stack) closeSurface(key SurfaceKey, st *surfaceState) {
	if st.teardown != nil {
		st.teardown()
	}
	st.open = false
	for i := len(s.order) - 1; i >= 0; i-- {
		if s.order[i] == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.updateScrollLock()
	if s.OnChange != nil {
		s.OnChange(key, false)
	}
}

func (s *Stack) IsOpen(key SurfaceKey) bool {
	return s.state(key).open
}

// IsAnyOpen is what outer navigation chrome consults to decide whether a
// back gesture should be intercepted at all.
func (s *Stack) IsAnyOpen() bool {
	return len(s.order) > 0
}

func (s *Stack) ScrollLocked() bool { return s.locked }

func (s *Stack) updateScrollLock() {
	locked := s.IsAnyOpen()
	if locked == s.locked {
		return
	}
	s.locked = locked
	if s.OnScrollLock != nil {
		s.OnScrollLock(locked)
	}
}

// Release detaches from the history. Open surfaces are closed directly
// with their teardowns; there is no history left to unwind through.
func (s *Stack) Release() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	for len(s.order) > 0 {
		top := s.order[len(s.order)-1]
		s.closeSurface(top, s.state(top))
	}
}
