package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	gocache "github.com/patrickmn/go-cache"
	"github.com/platefeed/stories/internal/aggregator"
	"github.com/platefeed/stories/internal/media"
	"github.com/platefeed/stories/internal/repositories/follow"
	"github.com/platefeed/stories/pkg/logger"
	"go.uber.org/fx"
)

const (
	sessionIdleTTL = 30 * time.Minute
	sessionCleanup = 5 * time.Minute
)

type RegistryOpts struct {
	fx.In
	LC fx.Lifecycle

	Aggregator aggregator.Client
	FollowRepo follow.Repository
	MediaStore media.Store
	Clock      clockwork.Clock
	Logger     logger.Logger
}

// Registry hands out one live Session per viewer. Idle sessions are
// evicted and torn down; a returning viewer simply gets a fresh one.
type Registry struct {
	mu       sync.Mutex
	sessions *gocache.Cache

	aggregator aggregator.Client
	followRepo follow.Repository
	mediaStore media.Store
	clock      clockwork.Clock
	logger     logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewRegistry(opts RegistryOpts) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		sessions:   gocache.New(sessionIdleTTL, sessionCleanup),
		aggregator: opts.Aggregator,
		followRepo: opts.FollowRepo,
		mediaStore: opts.MediaStore,
		clock:      opts.Clock,
		logger:     opts.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	r.sessions.OnEvicted(func(viewerID string, v interface{}) {
		if s, ok := v.(*sessionHandle); ok {
			r.logger.Info("Evicting idle viewer session", "viewer_id", viewerID)
			s.cancel()
		}
	})

	opts.LC.Append(fx.Hook{
		OnStop: func(context.Context) error {
			r.cancel()
			r.sessions.Flush()
			return nil
		},
	})

	return r
}

type sessionHandle struct {
	session *Session
	cancel  context.CancelFunc
}

// Acquire returns the viewer's session, starting one when needed, and
// refreshes its idle deadline.
func (r *Registry) Acquire(viewerID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.sessions.Get(viewerID); ok {
		h := v.(*sessionHandle)
		r.sessions.SetDefault(viewerID, h)
		return h.session
	}

	s := newSession(viewerID, r.aggregator, r.followRepo, r.mediaStore, r.clock, r.logger)
	ctx, cancel := context.WithCancel(r.ctx)
	go s.Run(ctx)

	r.sessions.SetDefault(viewerID, &sessionHandle{session: s, cancel: cancel})
	r.logger.Info("Started viewer session", "viewer_id", viewerID)
	return s
}

// Drop tears a session down immediately (client disconnect with no intent
// to resume).
func (r *Registry) Drop(viewerID string) {
	r.sessions.Delete(viewerID)
}

var Module = fx.Provide(NewRegistry)
