package playback

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/platefeed/stories/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTimer(t *testing.T) (*Timer, *clockwork.FakeClock, *int) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	completions := 0
	timer := NewTimer(clock, func() { completions++ })
	return timer, clock, &completions
}

func TestTimerFixedDurationProgress(t *testing.T) {
	timer, clock, completions := newTestTimer(t)

	gen := timer.Start(domain.ImageContent{URL: "u"}, false)
	require.Equal(t, StateRunning, timer.State())
	assert.Zero(t, timer.Progress())

	clock.Advance(2500 * time.Millisecond)
	timer.Tick(gen)
	assert.InDelta(t, 50, timer.Progress(), 0.01)
	assert.Equal(t, 0, *completions)

	clock.Advance(2500 * time.Millisecond)
	timer.Tick(gen)
	assert.InDelta(t, 100, timer.Progress(), 0.01)
	assert.Equal(t, StateComplete, timer.State())
	assert.Equal(t, 1, *completions)

	// Further ticks must not fire completion again.
	timer.Tick(gen)
	assert.Equal(t, 1, *completions)
}

func TestTimerTextUsesFixedDuration(t *testing.T) {
	timer, clock, completions := newTestTimer(t)

	gen := timer.Start(domain.TextContent{Body: "hello"}, false)
	clock.Advance(FixedPostDuration)
	timer.Tick(gen)
	assert.Equal(t, 1, *completions)
}

func TestTimerPauseResumeKeepsProgress(t *testing.T) {
	timer, clock, _ := newTestTimer(t)

	gen := timer.Start(domain.ImageContent{URL: "u"}, false)
	clock.Advance(2 * time.Second)
	timer.Tick(gen)

	timer.Pause()
	before := timer.Progress()
	require.Equal(t, StatePaused, timer.State())

	// Time passing while paused must not move progress.
	clock.Advance(10 * time.Second)
	timer.Tick(gen)
	assert.Equal(t, before, timer.Progress())

	timer.Resume()
	assert.InDelta(t, before, timer.Progress(), 0.01)

	// Repeat pauses are no-ops beyond the first.
	timer.Pause()
	timer.Pause()
	assert.Equal(t, StatePaused, timer.State())
	timer.Resume()

	// After resume, progress continues from where it stood.
	clock.Advance(1 * time.Second)
	timer.Tick(gen)
	assert.InDelta(t, before+20, timer.Progress(), 0.01)
}

func TestTimerStaleGenerationIsInert(t *testing.T) {
	timer, clock, completions := newTestTimer(t)

	old := timer.Start(domain.ImageContent{URL: "a"}, false)
	clock.Advance(3 * time.Second)
	timer.Tick(old)

	// A new post supersedes the old generation.
	fresh := timer.Start(domain.ImageContent{URL: "b"}, false)
	require.Zero(t, timer.Progress())

	clock.Advance(10 * time.Second)
	timer.Tick(old)
	assert.Zero(t, timer.Progress(), "stale tick must not move progress")
	assert.Equal(t, 0, *completions)

	timer.Tick(fresh)
	assert.InDelta(t, 100, timer.Progress(), 0.01)
	assert.Equal(t, 1, *completions)
}

func TestTimerHeldStartsPaused(t *testing.T) {
	timer, clock, _ := newTestTimer(t)

	gen := timer.Start(domain.ImageContent{URL: "u"}, true)
	require.Equal(t, StatePaused, timer.State())

	clock.Advance(time.Minute)
	timer.Tick(gen)
	assert.Zero(t, timer.Progress())
}

func TestTimerVideoFallbackDuration(t *testing.T) {
	timer, clock, completions := newTestTimer(t)

	gen := timer.Start(domain.VideoContent{URL: "v"}, false)
	clock.Advance(FallbackVideoDuration / 2)
	timer.Tick(gen)
	assert.InDelta(t, 50, timer.Progress(), 0.01)

	// A video that never reports a duration completes on the fallback
	// clock instead of stalling forever.
	clock.Advance(FallbackVideoDuration / 2)
	timer.Tick(gen)
	assert.Equal(t, 1, *completions)
}

func TestTimerVideoSwitchesToMediaSignal(t *testing.T) {
	timer, clock, completions := newTestTimer(t)

	gen := timer.Start(domain.VideoContent{URL: "v"}, false)
	clock.Advance(6 * time.Second)
	timer.Tick(gen)
	atSwitch := timer.Progress() // 40 via the fallback clock

	// The real duration arrives with the media slightly behind the
	// fallback estimate; displayed progress must not rewind.
	timer.ReportMediaPosition(gen, 2, 10)
	assert.GreaterOrEqual(t, timer.Progress(), atSwitch)

	// Once the media overtakes the floor, its position drives progress.
	timer.ReportMediaPosition(gen, 8, 10)
	assert.InDelta(t, 80, timer.Progress(), 0.01)

	// Wall ticks no longer drive a media-bound video.
	clock.Advance(time.Minute)
	timer.Tick(gen)
	assert.InDelta(t, 80, timer.Progress(), 0.01)
	assert.Equal(t, 0, *completions)

	timer.ReportMediaEnded(gen)
	assert.Equal(t, 1, *completions)
	assert.Equal(t, StateComplete, timer.State())

	timer.ReportMediaEnded(gen)
	assert.Equal(t, 1, *completions)
}

func TestTimerVideoZeroDurationKeepsFallback(t *testing.T) {
	timer, clock, completions := newTestTimer(t)

	gen := timer.Start(domain.VideoContent{URL: "v"}, false)
	timer.ReportMediaPosition(gen, 1, 0)

	clock.Advance(FallbackVideoDuration)
	timer.Tick(gen)
	assert.Equal(t, 1, *completions)
}

func TestTimerMediaEventsIgnoreStaleGeneration(t *testing.T) {
	timer, _, completions := newTestTimer(t)

	old := timer.Start(domain.VideoContent{URL: "a"}, false)
	_ = timer.Start(domain.VideoContent{URL: "b"}, false)

	timer.ReportMediaPosition(old, 9, 10)
	assert.Zero(t, timer.Progress())

	timer.ReportMediaEnded(old)
	assert.Equal(t, 0, *completions)
}

func TestTimerCancelSilencesCompletion(t *testing.T) {
	timer, clock, completions := newTestTimer(t)

	gen := timer.Start(domain.ImageContent{URL: "u"}, false)
	timer.Cancel()

	clock.Advance(time.Minute)
	timer.Tick(gen)
	assert.Equal(t, 0, *completions)
	assert.Equal(t, StateComplete, timer.State())
}
