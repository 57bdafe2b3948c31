package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

type stackFixture struct {
	history *MemoryHistory
	stack   *Stack
	changes []string
	locks   []bool
}

func newStackFixture(t *testing.T) *stackFixture {
	t.Helper()
	f := &stackFixture{history: NewMemoryHistory()}
	f.stack = NewStack(f.history, nopLogger{})
	f.stack.OnChange = func(key SurfaceKey, open bool) {
		if open {
			f.changes = append(f.changes, "open:"+string(key))
		} else {
			f.changes = append(f.changes, "close:"+string(key))
		}
	}
	f.stack.OnScrollLock = func(locked bool) {
		f.locks = append(f.locks, locked)
	}
	return f
}

func TestStackOpenPushesFrame(t *testing.T) {
	f := newStackFixture(t)

	f.stack.Open(KeyStoryViewer)

	assert.True(t, f.stack.IsOpen(KeyStoryViewer))
	assert.Equal(t, 1, f.history.Depth())
	assert.Equal(t, KeyStoryViewer, f.history.CurrentTag())
	assert.Equal(t, []string{"open:" + string(KeyStoryViewer)}, f.changes)
}

func TestStackDoubleOpenIsIdempotent(t *testing.T) {
	f := newStackFixture(t)

	f.stack.Open(KeyComposer)
	f.stack.Open(KeyComposer)

	assert.Equal(t, 1, f.history.Depth(), "no duplicate frame")
	assert.Len(t, f.changes, 1)

	// One back fully dismisses it; a second back is a no-op.
	f.history.Back()
	assert.False(t, f.stack.IsOpen(KeyComposer))
	f.history.Back()
	assert.Equal(t, 0, f.history.Depth())
}

func TestStackBackClosesNewestFirst(t *testing.T) {
	f := newStackFixture(t)

	f.stack.Open(KeyComposer)
	f.stack.Open(KeyZoomPreview)
	require.Equal(t, 2, f.history.Depth())

	f.history.Back()
	assert.False(t, f.stack.IsOpen(KeyZoomPreview))
	assert.True(t, f.stack.IsOpen(KeyComposer), "surface beneath stays open")

	f.history.Back()
	assert.False(t, f.stack.IsOpen(KeyComposer))
	assert.Equal(t, []string{
		"open:" + string(KeyComposer),
		"open:" + string(KeyZoomPreview),
		"close:" + string(KeyZoomPreview),
		"close:" + string(KeyComposer),
	}, f.changes)
}

func TestStackRequestCloseConsumesFrame(t *testing.T) {
	f := newStackFixture(t)

	f.stack.Open(KeyStoryViewer)
	f.stack.RequestClose(KeyStoryViewer)

	assert.False(t, f.stack.IsOpen(KeyStoryViewer))
	assert.Equal(t, 0, f.history.Depth(), "the frame must be consumed, not orphaned")
}

func TestStackRequestCloseOnClosedSurface(t *testing.T) {
	f := newStackFixture(t)

	f.stack.RequestClose(KeyComposer)

	assert.Equal(t, 0, f.history.Depth())
	assert.Empty(t, f.changes)
}

func TestStackRequestCloseFallsBackOnDesync(t *testing.T) {
	f := newStackFixture(t)

	f.stack.Open(KeyComposer)
	// Something else pushed a frame the stack does not know about.
	f.history.Push(KeyStoryViewer)

	f.stack.RequestClose(KeyComposer)

	assert.False(t, f.stack.IsOpen(KeyComposer), "desync must not leave the surface stuck")
}

func TestStackScrollLockTracksAnyOpen(t *testing.T) {
	f := newStackFixture(t)

	f.stack.Open(KeyComposer)
	f.stack.Open(KeyZoomPreview)
	f.history.Back()

	// Still one surface open: no unlock transition yet.
	assert.True(t, f.stack.ScrollLocked())
	assert.Equal(t, []bool{true}, f.locks)

	f.history.Back()
	assert.False(t, f.stack.ScrollLocked())
	assert.Equal(t, []bool{true, false}, f.locks)
}

func TestStackTeardownRunsBeforeCloseReported(t *testing.T) {
	f := newStackFixture(t)

	var trace []string
	f.stack.Register(KeyZoomPreview, func() {
		trace = append(trace, "teardown")
	})
	f.stack.OnChange = func(key SurfaceKey, open bool) {
		if !open {
			trace = append(trace, "closed")
		}
	}

	f.stack.Open(KeyZoomPreview)
	f.stack.RequestClose(KeyZoomPreview)

	assert.Equal(t, []string{"teardown", "closed"}, trace)
}

func TestStackThreeDeepBackUnwindsInOrder(t *testing.T) {
	f := newStackFixture(t)

	f.stack.Open(KeyStoryViewer)
	f.stack.Open(KeyComposer)
	f.stack.Open(KeyZoomPreview)
	require.True(t, f.stack.IsAnyOpen())

	f.history.Back()
	assert.False(t, f.stack.IsOpen(KeyZoomPreview))
	assert.True(t, f.stack.IsOpen(KeyComposer))
	assert.True(t, f.stack.IsOpen(KeyStoryViewer))

	f.history.Back()
	assert.False(t, f.stack.IsOpen(KeyComposer))
	assert.True(t, f.stack.IsOpen(KeyStoryViewer))

	f.history.Back()
	assert.False(t, f.stack.IsAnyOpen())
}

func TestStackReleaseClosesEverythingWithTeardowns(t *testing.T) {
	f := newStackFixture(t)

	var torn []SurfaceKey
	f.stack.Register(KeyStoryViewer, func() { torn = append(torn, KeyStoryViewer) })
	f.stack.Register(KeyComposer, func() { torn = append(torn, KeyComposer) })

	f.stack.Open(KeyStoryViewer)
	f.stack.Open(KeyComposer)
	f.stack.Release()

	assert.False(t, f.stack.IsAnyOpen())
	assert.Equal(t, []SurfaceKey{KeyComposer, KeyStoryViewer}, torn, "newest closes first")
	assert.False(t, f.stack.ScrollLocked())

	// After release, the stack no longer reacts to the detached history.
	f.history.Push(KeyZoomPreview)
	f.history.Back()
	assert.False(t, f.stack.IsOpen(KeyZoomPreview))
}
