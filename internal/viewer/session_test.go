package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/platefeed/stories/internal/domain"
	"github.com/platefeed/stories/internal/intake"
	"github.com/platefeed/stories/internal/overlay"
	"github.com/platefeed/stories/internal/playback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

type fakeAggregator struct {
	clock    clockwork.Clock
	byAuthor map[string][]domain.Post
	fail     bool
}

func (f *fakeAggregator) LoadStoriesForUser(ctx context.Context, viewerID, authorID string) ([]domain.Post, error) {
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return f.byAuthor[authorID], nil
}

func (f *fakeAggregator) LoadAllSequences(ctx context.Context, viewerID string, authorIDs []string) (*domain.SequenceList, error) {
	if f.fail {
		return nil, errors.New("connection refused")
	}
	list := &domain.SequenceList{}
	for _, id := range authorIDs {
		posts := f.byAuthor[id]
		if len(posts) == 0 {
			continue
		}
		list.Sequences = append(list.Sequences, domain.NewSequence(id, posts))
	}
	return list, nil
}

type fakeFollowRepo struct {
	followed []string
	err      error
}

func (f *fakeFollowRepo) ListFollowed(ctx context.Context, userID string) ([]string, error) {
	return f.followed, f.err
}

func (f *fakeFollowRepo) Toggle(ctx context.Context, userID, authorID string) (bool, error) {
	return true, nil
}

type fakeMediaStore struct{}

func (fakeMediaStore) Upload(ctx context.Context, fileName string, kind domain.MediaKind, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return "https://media.test/" + fileName, nil
}

type sessionFixture struct {
	sess  *Session
	agg   *fakeAggregator
	clock *clockwork.FakeClock
}

// newSessionFixture builds a session without starting Run: the loop is
// single-owner, so tests drive handle and tick directly and stay
// deterministic.
func newSessionFixture(t *testing.T, followed ...string) *sessionFixture {
	t.Helper()
	clock := clockwork.NewFakeClock()
	agg := &fakeAggregator{clock: clock, byAuthor: make(map[string][]domain.Post)}
	repo := &fakeFollowRepo{followed: followed}
	sess := newSession("viewer", agg, repo, fakeMediaStore{}, clock, nopLogger{})
	return &sessionFixture{sess: sess, agg: agg, clock: clock}
}

func (f *sessionFixture) seed(authorID string, contents ...domain.Content) {
	now := f.clock.Now()
	for i, c := range contents {
		f.agg.byAuthor[authorID] = append(f.agg.byAuthor[authorID], domain.Post{
			ID:        fmt.Sprintf("%s-post-%d", authorID, i),
			Author:    domain.Author{ID: authorID},
			Content:   c,
			CreatedAt: now,
			ExpiresAt: now.Add(domain.StoryTTL),
		})
	}
}

func (f *sessionFixture) drain() []Event {
	var out []Event
	for {
		select {
		case ev := <-f.sess.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (f *sessionFixture) eventsOfType(kind string) []Event {
	var out []Event
	for _, ev := range f.drain() {
		if ev.Type == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (f *sessionFixture) send(cmd Command) {
	f.sess.handle(context.Background(), cmd)
}

func TestSessionOpenViewerPlaysFirstPost(t *testing.T) {
	f := newSessionFixture(t, "chef1", "chef2")
	f.seed("chef1", domain.TextContent{Body: "soup"}, domain.ImageContent{URL: "img"})
	f.seed("chef2", domain.ImageContent{URL: "img2"})

	f.send(Command{Op: OpOpenViewer, Scope: ScopeAll})

	require.True(t, f.sess.stack.IsOpen(overlay.KeyStoryViewer))
	changed := f.eventsOfType(EventPostChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "chef1-post-0", changed[0].Post.ID)
	assert.Equal(t, "just now", changed[0].PostedAgo)
	assert.True(t, f.sess.stack.ScrollLocked())
}

func TestSessionOpenViewerWithNoStories(t *testing.T) {
	f := newSessionFixture(t, "chef1")

	f.send(Command{Op: OpOpenViewer, Scope: ScopeAll})

	assert.False(t, f.sess.stack.IsOpen(overlay.KeyStoryViewer), "empty feed must not open the viewer")
	assert.Len(t, f.eventsOfType(EventEmpty), 1)
}

func TestSessionOpenViewerAggregationFailure(t *testing.T) {
	f := newSessionFixture(t, "chef1")
	f.agg.fail = true

	f.send(Command{Op: OpOpenViewer, Scope: ScopeAll})

	assert.False(t, f.sess.stack.IsOpen(overlay.KeyStoryViewer))
	assert.Len(t, f.eventsOfType(EventError), 1)
}

func TestSessionTimerCompletionAdvancesAcrossAuthors(t *testing.T) {
	f := newSessionFixture(t, "chef1", "chef2")
	f.seed("chef1", domain.TextContent{Body: "a"})
	f.seed("chef2", domain.TextContent{Body: "b"})

	f.send(Command{Op: OpOpenViewer, Scope: ScopeAll})
	f.drain()

	f.clock.Advance(playback.FixedPostDuration)
	f.sess.tick(context.Background())

	changed := f.eventsOfType(EventPostChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "chef2-post-0", changed[0].Post.ID)
	assert.Equal(t, 1, changed[0].SequenceIndex)
}

func TestSessionFinishClosesViewerThroughHistory(t *testing.T) {
	f := newSessionFixture(t, "chef1")
	f.seed("chef1", domain.TextContent{Body: "a"})

	f.send(Command{Op: OpOpenViewer, Scope: ScopeAll})
	f.drain()
	require.Equal(t, 1, f.sess.history.Depth())

	f.send(Command{Op: OpNext})

	assert.False(t, f.sess.stack.IsOpen(overlay.KeyStoryViewer))
	assert.Equal(t, 0, f.sess.history.Depth(), "the viewer frame must be consumed")
	assert.Nil(t, f.sess.nav)
	assert.Len(t, f.eventsOfType(EventFinished), 1)
}

func TestSessionPrevCrossesSequenceToLastPost(t *testing.T) {
	f := newSessionFixture(t, "chef1", "chef2")
	f.seed("chef1", domain.TextContent{Body: "a"}, domain.TextContent{Body: "b"})
	f.seed("chef2", domain.TextContent{Body: "c"})

	f.send(Command{Op: OpOpenViewer, Scope: ScopeAll})
	f.send(Command{Op: OpJump, AuthorID: "chef2"})
	f.drain()

	f.send(Command{Op: OpPrev})

	changed := f.eventsOfType(EventPostChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "chef1-post-1", changed[0].Post.ID)
}

func TestSessionPrevAtOriginKeepsActivePost(t *testing.T) {
	f := newSessionFixture(t, "chef1")
	f.seed("chef1", domain.TextContent{Body: "a"}, domain.TextContent{Body: "b"})

	f.send(Command{Op: OpOpenViewer, Scope: ScopeAll})
	f.drain()

	f.clock.Advance(2 * time.Second)
	f.sess.tick(context.Background())
	f.drain()
	require.InDelta(t, 40, f.sess.timer.Progress(), 0.01)

	f.send(Command{Op: OpPrev})

	assert.Empty(t, f.eventsOfType(EventPostChanged), "no transition at the very first post")
	assert.InDelta(t, 40, f.sess.timer.Progress(), 0.01, "accumulated progress survives")
}

func TestSessionHoldSurvivesPostTransitions(t *testing.T) {
	f := newSessionFixture(t, "chef1")
	f.seed("chef1", domain.TextContent{Body: "a"}, domain.TextContent{Body: "b"})

	f.send(Command{Op: OpOpenViewer, Scope: ScopeAll})
	f.send(Command{Op: OpPause})

	// A manual advance while held starts the next post already paused.
	f.send(Command{Op: OpNext})
	assert.Equal(t, playback.StatePaused, f.sess.timer.State())

	f.clock.Advance(time.Minute)
	f.sess.tick(context.Background())
	assert.Zero(t, f.sess.timer.Progress())

	f.send(Command{Op: OpResume})
	assert.Equal(t, playback.StateRunning, f.sess.timer.State())
}

func TestSessionJumpOutsideWorkingSetAggregatesFresh(t *testing.T) {
	f := newSessionFixture(t, "chef1")
	f.seed("chef1", domain.TextContent{Body: "a"})
	f.seed("guest", domain.TextContent{Body: "g"})

	f.send(Command{Op: OpOpenViewer, Scope: ScopeAll})
	f.drain()

	f.send(Command{Op: OpJump, AuthorID: "guest"})

	changed := f.eventsOfType(EventPostChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "guest-post-0", changed[0].Post.ID)
}

func TestSessionBackUnwindsComposerThenNothing(t *testing.T) {
	f := newSessionFixture(t)

	f.send(Command{Op: OpOpenComposer})
	f.sess.intake.AddFiles([]intake.File{{Name: "a.jpg", Kind: domain.MediaImage, Data: []byte("x")}})
	require.Len(t, f.sess.intake.Drafts(), 1)

	f.send(Command{Op: OpBack})

	assert.False(t, f.sess.stack.IsOpen(overlay.KeyComposer))
	assert.Empty(t, f.sess.intake.Drafts(), "dismissing the composer discards drafts")

	// Back on an empty stack is harmless.
	f.send(Command{Op: OpBack})
	assert.False(t, f.sess.stack.IsAnyOpen())
}

func TestSessionPickingFileOpensComposerImplicitly(t *testing.T) {
	f := newSessionFixture(t)

	f.sess.intake.AddFiles([]intake.File{{Name: "a.jpg", Kind: domain.MediaImage, Data: []byte("x")}})

	assert.True(t, f.sess.stack.IsOpen(overlay.KeyComposer))
}

func TestSessionZoomRequiresLiveDraft(t *testing.T) {
	f := newSessionFixture(t)

	f.send(Command{Op: OpOpenZoom, DraftID: "missing"})
	assert.False(t, f.sess.stack.IsOpen(overlay.KeyZoomPreview))
	assert.Len(t, f.eventsOfType(EventError), 1)

	added := f.sess.intake.AddFiles([]intake.File{{Name: "a.jpg", Kind: domain.MediaImage, Data: []byte("x")}})
	f.send(Command{Op: OpOpenZoom, DraftID: added[0].ID})

	assert.True(t, f.sess.stack.IsOpen(overlay.KeyZoomPreview))
	assert.Equal(t, added[0].ID, f.sess.zoomDraftID)

	// Back closes the zoom only; the composer and its drafts survive.
	f.send(Command{Op: OpBack})
	assert.False(t, f.sess.stack.IsOpen(overlay.KeyZoomPreview))
	assert.True(t, f.sess.stack.IsOpen(overlay.KeyComposer))
	assert.Empty(t, f.sess.zoomDraftID)
	assert.Len(t, f.sess.intake.Drafts(), 1)
}

func TestSessionMediaPositionDrivesVideoPost(t *testing.T) {
	f := newSessionFixture(t, "chef1")
	f.seed("chef1", domain.VideoContent{URL: "v"}, domain.TextContent{Body: "t"})

	f.send(Command{Op: OpOpenViewer, Scope: ScopeAll})
	f.drain()

	f.send(Command{Op: OpMediaPosition, Position: 3, Duration: 10})
	assert.InDelta(t, 30, f.sess.timer.Progress(), 0.01)

	f.send(Command{Op: OpMediaEnded})

	changed := f.eventsOfType(EventPostChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "chef1-post-1", changed[0].Post.ID)
}

func TestSessionProgressEventsOnlyWhileViewerOpen(t *testing.T) {
	f := newSessionFixture(t, "chef1")
	f.seed("chef1", domain.TextContent{Body: "a"})

	f.clock.Advance(frameInterval)
	f.sess.tick(context.Background())
	assert.Empty(t, f.eventsOfType(EventProgress), "no viewer, no frames")

	f.send(Command{Op: OpOpenViewer, Scope: ScopeAll})
	f.drain()

	f.clock.Advance(frameInterval)
	f.sess.tick(context.Background())
	progress := f.eventsOfType(EventProgress)
	require.Len(t, progress, 1)
	assert.InDelta(t, 1, progress[0].Progress, 0.01)
	assert.Greater(t, progress[0].Overall, 0.0)
}

func TestSessionCallRunsOnLoop(t *testing.T) {
	f := newSessionFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.sess.Run(ctx)

	ran := false
	err := f.sess.Call(context.Background(), func() { ran = true })
	require.NoError(t, err)
	assert.True(t, ran)
}
