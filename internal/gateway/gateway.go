package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/platefeed/stories/internal/aggregator"
	"github.com/platefeed/stories/internal/cache"
	"github.com/platefeed/stories/internal/media"
	"github.com/platefeed/stories/internal/repositories/follow"
	"github.com/platefeed/stories/internal/repositories/post"
	"github.com/platefeed/stories/internal/viewer"
	"github.com/platefeed/stories/pkg/config"
	"github.com/platefeed/stories/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In
	LC fx.Lifecycle

	Config     *config.Config
	Logger     logger.Logger
	Aggregator aggregator.Client
	PostRepo   post.Repository
	FollowRepo follow.Repository
	MediaStore media.Store
	Cache      cache.Stories
	Registry   *viewer.Registry
	Clock      clockwork.Clock
}

// Server is the HTTP face of the stories subsystem: the REST surface the
// surrounding app consumes plus the websocket playback bridge.
type Server struct {
	echo *echo.Echo

	Config     *config.Config
	Logger     logger.Logger
	Aggregator aggregator.Client
	PostRepo   post.Repository
	FollowRepo follow.Repository
	MediaStore media.Store
	Cache      cache.Stories
	Registry   *viewer.Registry
	Clock      clockwork.Clock
}

func New(opts Opts) *Server {
	s := &Server{
		echo:       echo.New(),
		Config:     opts.Config,
		Logger:     opts.Logger,
		Aggregator: opts.Aggregator,
		PostRepo:   opts.PostRepo,
		FollowRepo: opts.FollowRepo,
		MediaStore: opts.MediaStore,
		Cache:      opts.Cache,
		Registry:   opts.Registry,
		Clock:      opts.Clock,
	}

	s.echo.HideBanner = true
	s.echo.Use(echomiddleware.Recover())
	s.routes()

	opts.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			addr := fmt.Sprintf(":%d", s.Config.App.Port)
			s.Logger.Info("Starting gateway", "addr", addr)
			go func() {
				if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.Logger.Error("Gateway failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.echo.Shutdown(ctx)
		},
	})

	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.handleHealthz)
	s.echo.Static(s.Config.Media.BaseURL, s.Config.Media.Root)

	v1 := s.echo.Group("/v1", s.identify)
	v1.GET("/stories/authors", s.handleFollowedAuthors)
	v1.GET("/stories/:authorID", s.handleStoriesForAuthor)
	v1.POST("/status", s.handleCreateStatus)
	v1.POST("/media", s.handleUploadMedia)
	v1.POST("/follow/:authorID/toggle", s.handleToggleFollow)
	v1.POST("/drafts", s.handleAddDrafts)
	v1.DELETE("/drafts/:draftID", s.handleRemoveDraft)
	v1.GET("/drafts/:draftID/preview", s.handleDraftPreview)
	v1.GET("/overlays", s.handleOverlayState)
	v1.GET("/viewer/ws", s.handleViewerSocket)
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
