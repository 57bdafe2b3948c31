package overlay

// SurfaceKey identifies one of the overlay surfaces the app can layer on
// top of the page.
type SurfaceKey string

const (
	KeyStoryViewer SurfaceKey = "story_viewer"
	KeyComposer    SurfaceKey = "composer"
	KeyZoomPreview SurfaceKey = "zoom_preview"
)

// TagNone is the untagged base frame.
const TagNone SurfaceKey = ""

// NavigationHistory is the injected platform-history capability. It
// matches browser semantics: Push does NOT notify subscribers; only
// consuming a frame (Back, or an external back gesture) delivers a
// frame-changed event with the tag that is now current.
type NavigationHistory interface {
	Push(tag SurfaceKey)
	Back()
	CurrentTag() SurfaceKey
	Subscribe(fn func(current SurfaceKey)) (unsubscribe func())
}
