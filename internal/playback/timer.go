package playback

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/platefeed/stories/internal/domain"
)

// Display durations. Image and text posts run a fixed wall clock; videos
// follow their own playback position, with a fallback clock until the
// media reports a real duration.
const (
	FixedPostDuration     = 5 * time.Second
	FallbackVideoDuration = 15 * time.Second
)

const completeProgress = 100.0

type TimerState int

const (
	StateRunning TimerState = iota
	StatePaused
	StateComplete
)

func (s TimerState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Timer drives the progress of the currently displayed post from 0 to 100.
//
// Every Start bumps a generation token; ticks and media events carry the
// token they were armed with, and any callback from a superseded post is
// inert. That makes stale animation frames provably harmless instead of
// relying on callers to unhook them in time.
//
// Timer is not goroutine-safe: it belongs to a single session loop.
type Timer struct {
	clock clockwork.Clock

	gen           uint64
	state         TimerState
	video         bool
	durationKnown bool
	wallDuration  time.Duration
	startedAt     time.Time
	progress      float64
	floor         float64
	completeFired bool

	onComplete func()
}

func NewTimer(clock clockwork.Clock, onComplete func()) *Timer {
	return &Timer{
		clock:      clock,
		state:      StateComplete,
		onComplete: onComplete,
	}
}

// Start arms the timer for a freshly displayed post and returns the
// generation token its ticks must carry. A held session starts the post
// already paused at zero progress.
func (t *Timer) Start(content domain.Content, held bool) uint64 {
	t.gen++
	t.video = content.Kind() == domain.ContentVideo
	t.durationKnown = false
	t.progress = 0
	t.floor = 0
	t.completeFired = false
	t.startedAt = t.clock.Now()

	switch content.Kind() {
	case domain.ContentVideo:
		t.wallDuration = FallbackVideoDuration
	case domain.ContentText, domain.ContentImage:
		t.wallDuration = FixedPostDuration
	}

	if held {
		t.state = StatePaused
	} else {
		t.state = StateRunning
	}
	return t.gen
}

func (t *Timer) Generation() uint64 { return t.gen }

func (t *Timer) State() TimerState { return t.state }

func (t *Timer) Progress() float64 { return t.progress }

// Tick advances wall-clock-driven progress. Ticks from a superseded
// generation, or arriving while paused, complete, or while a video is
// media-driven, do nothing.
func (t *Timer) Tick(gen uint64) {
	if gen != t.gen || t.state != StateRunning {
		return
	}
	if t.video && t.durationKnown {
		return
	}

	elapsed := t.clock.Since(t.startedAt)
	t.progress = math.Min(completeProgress, float64(elapsed)/float64(t.wallDuration)*completeProgress)
	if t.progress >= completeProgress {
		t.fireComplete()
	}
}

// Pause freezes progress where it stands. Repeat calls are no-ops.
func (t *Timer) Pause() {
	if t.state != StateRunning {
		return
	}
	if !t.video || !t.durationKnown {
		// Capture the wall-driven value at the instant of the pause.
		elapsed := t.clock.Since(t.startedAt)
		t.progress = math.Min(completeProgress, float64(elapsed)/float64(t.wallDuration)*completeProgress)
	}
	t.state = StatePaused
}

// Resume recomputes the effective start so progress continues from exactly
// the frozen value. Media-driven videos pick up from wherever the media
// element resumes on its own.
func (t *Timer) Resume() {
	if t.state != StatePaused {
		return
	}
	if !t.video || !t.durationKnown {
		consumed := time.Duration(t.progress / completeProgress * float64(t.wallDuration))
		t.startedAt = t.clock.Now().Add(-consumed)
	}
	t.state = StateRunning
}

// ReportMediaPosition feeds the video element's playback position. The
// first report with a usable duration switches the driving signal from the
// fallback clock to the media itself; the progress shown at that moment
// becomes a floor so the switch never visibly rewinds.
func (t *Timer) ReportMediaPosition(gen uint64, position, duration float64) {
	if gen != t.gen || !t.video || t.state == StateComplete {
		return
	}
	if duration <= 0 {
		// Media that cannot report a duration keeps the fallback clock.
		return
	}

	if !t.durationKnown {
		t.durationKnown = true
		t.floor = t.progress
	}
	if t.state != StateRunning {
		return
	}

	p := math.Min(completeProgress, position/duration*completeProgress)
	t.progress = math.Max(p, t.floor)
}

// ReportMediaEnded completes a video post on its natural end of playback.
func (t *Timer) ReportMediaEnded(gen uint64) {
	if gen != t.gen || !t.video || t.state == StateComplete {
		return
	}
	t.fireComplete()
}

// Cancel invalidates the active generation without firing completion.
// Used when the viewer closes mid-post.
func (t *Timer) Cancel() {
	t.gen++
	t.completeFired = true
	t.state = StateComplete
}

func (t *Timer) fireComplete() {
	if t.completeFired {
		return
	}
	t.completeFired = true
	t.progress = completeProgress
	t.state = StateComplete
	if t.onComplete != nil {
		t.onComplete()
	}
}
