package domain

// Sequence is one author's ordered run of live posts. It is never
// constructed empty: authors without live posts are dropped during
// aggregation.
type Sequence struct {
	AuthorID         string
	Author           Author
	Posts            []Post
	CurrentPostIndex int
}

func NewSequence(authorID string, posts []Post) *Sequence {
	s := &Sequence{
		AuthorID: authorID,
		Posts:    posts,
	}
	if len(posts) > 0 {
		s.Author = posts[0].Author
	}
	return s
}

func (s *Sequence) Len() int { return len(s.Posts) }

func (s *Sequence) Current() Post { return s.Posts[s.CurrentPostIndex] }

// SequenceList is the playback session's working set: one sequence per
// author with at least one live post, in follow order. It is built fresh
// each time the viewer opens and discarded when it closes.
type SequenceList struct {
	Sequences            []*Sequence
	CurrentSequenceIndex int
}

func (l *SequenceList) Len() int { return len(l.Sequences) }

func (l *SequenceList) Empty() bool { return len(l.Sequences) == 0 }

func (l *SequenceList) Current() *Sequence {
	return l.Sequences[l.CurrentSequenceIndex]
}

// TotalPosts counts posts across every sequence.
func (l *SequenceList) TotalPosts() int {
	total := 0
	for _, s := range l.Sequences {
		total += s.Len()
	}
	return total
}

// IndexOfAuthor returns the position of the author's sequence, or -1.
func (l *SequenceList) IndexOfAuthor(authorID string) int {
	for i, s := range l.Sequences {
		if s.AuthorID == authorID {
			return i
		}
	}
	return -1
}
