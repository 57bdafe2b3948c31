package playback

import (
	"github.com/platefeed/stories/internal/domain"
	"github.com/samber/lo"
)

// Navigator tracks the (sequence, post) position inside a SequenceList and
// computes transitions across post and sequence boundaries.
type Navigator struct {
	list *domain.SequenceList
}

func NewNavigator(list *domain.SequenceList) *Navigator {
	return &Navigator{list: list}
}

func (n *Navigator) List() *domain.SequenceList { return n.list }

func (n *Navigator) Position() (sequenceIndex, postIndex int) {
	seq := n.list.Current()
	return n.list.CurrentSequenceIndex, seq.CurrentPostIndex
}

func (n *Navigator) CurrentPost() domain.Post {
	return n.list.Current().Current()
}

// Advance moves to the next post, crossing into the next sequence when the
// active one is exhausted. It reports false when playback is finished.
func (n *Navigator) Advance() bool {
	seq := n.list.Current()
	if seq.CurrentPostIndex < seq.Len()-1 {
		seq.CurrentPostIndex++
		return true
	}
	if n.list.CurrentSequenceIndex < n.list.Len()-1 {
		n.list.CurrentSequenceIndex++
		n.list.Current().CurrentPostIndex = 0
		return true
	}
	return false
}

// Retreat moves to the previous post. Crossing a sequence boundary lands
// on the LAST post of the previous author. At the very first post it is a
// no-op, reported as false so the caller leaves the active post alone.
func (n *Navigator) Retreat() bool {
	seq := n.list.Current()
	if seq.CurrentPostIndex > 0 {
		seq.CurrentPostIndex--
		return true
	}
	if n.list.CurrentSequenceIndex > 0 {
		n.list.CurrentSequenceIndex--
		prev := n.list.Current()
		prev.CurrentPostIndex = prev.Len() - 1
		return true
	}
	return false
}

// JumpTo switches to the author's sequence at its first post. It reports
// false when the author is not in the working set; the caller decides
// whether to aggregate a fresh single-author list.
func (n *Navigator) JumpTo(authorID string) bool {
	idx := n.list.IndexOfAuthor(authorID)
	if idx < 0 {
		return false
	}
	n.list.CurrentSequenceIndex = idx
	n.list.Current().CurrentPostIndex = 0
	return true
}

// OverallProgress is the display-only fraction of total posts fully shown:
// every post of already-finished sequences, the finished posts of the
// active sequence, and the active post's own fractional progress.
func (n *Navigator) OverallProgress(activeFraction float64) float64 {
	total := n.list.TotalPosts()
	if total == 0 {
		return 0
	}

	done := lo.SumBy(n.list.Sequences[:n.list.CurrentSequenceIndex], func(s *domain.Sequence) int {
		return s.Len()
	})
	done += n.list.Current().CurrentPostIndex

	return (float64(done) + activeFraction) / float64(total)
}
