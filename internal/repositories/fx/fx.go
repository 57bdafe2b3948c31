package fx

import (
	"github.com/platefeed/stories/internal/repositories/follow"
	"github.com/platefeed/stories/internal/repositories/media"
	"github.com/platefeed/stories/internal/repositories/post"
	"github.com/platefeed/stories/internal/repositories/view"
	"go.uber.org/fx"
)

var Module = fx.Options(
	post.Module,
	view.Module,
	follow.Module,
	media.Module,
)
