package overlay

// MemoryHistory is the navigation stack used by server-held sessions and
// tests. One instance belongs to one session loop, so there is no locking.
type MemoryHistory struct {
	frames  []SurfaceKey
	subs    map[int]func(current SurfaceKey)
	nextSub int
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		subs: make(map[int]func(current SurfaceKey)),
	}
}

var _ NavigationHistory = (*MemoryHistory)(nil)

func (h *MemoryHistory) Push(tag SurfaceKey) {
	h.frames = append(h.frames, tag)
}

func (h *MemoryHistory) Back() {
	if len(h.frames) == 0 {
		// Base frame: nothing to consume, nothing to announce.
		return
	}
	h.frames = h.frames[:len(h.frames)-1]
	current := h.CurrentTag()
	for _, fn := range h.subs {
		fn(current)
	}
}

func (h *MemoryHistory) CurrentTag() SurfaceKey {
	if len(h.frames) == 0 {
		return TagNone
	}
	return h.frames[len(h.frames)-1]
}

func (h *MemoryHistory) Subscribe(fn func(current SurfaceKey)) func() {
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	return func() {
		delete(h.subs, id)
	}
}

// Depth reports how many tagged frames are stacked above the base frame.
func (h *MemoryHistory) Depth() int { return len(h.frames) }
