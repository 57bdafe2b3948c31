package intakeimpl

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/platefeed/stories/internal/domain"
	"github.com/platefeed/stories/internal/intake"
	"github.com/platefeed/stories/internal/media"
	"github.com/platefeed/stories/pkg/logger"
)

type staged struct {
	draft domain.MediaDraft
	data  []byte
}

// IntakeImpl holds one composer session's drafts. It lives on the session
// loop; no locking.
type IntakeImpl struct {
	Store  media.Store
	Logger logger.Logger

	drafts map[string]*staged
	order  []string

	// onAdd fires on every successful AddFiles, letting the overlay stack
	// open the composer implicitly when a file is picked while it is
	// closed.
	onAdd func()
}

func New(store media.Store, log logger.Logger, onAdd func()) *IntakeImpl {
	return &IntakeImpl{
		Store:  store,
		Logger: log,
		drafts: make(map[string]*staged),
		onAdd:  onAdd,
	}
}

var _ intake.Client = (*IntakeImpl)(nil)

func (i *IntakeImpl) AddFiles(files []intake.File) []domain.MediaDraft {
	added := make([]domain.MediaDraft, 0, len(files))
	for _, f := range files {
		id := uuid.NewString()
		d := domain.MediaDraft{
			ID:         id,
			FileName:   f.Name,
			Kind:       f.Kind,
			PreviewURL: "blob:" + id,
		}
		i.drafts[id] = &staged{draft: d, data: f.Data}
		i.order = append(i.order, id)
		added = append(added, d)
	}

	if len(added) > 0 && i.onAdd != nil {
		i.onAdd()
	}
	return added
}

func (i *IntakeImpl) Remove(draftID string) {
	if _, ok := i.drafts[draftID]; !ok {
		return
	}
	delete(i.drafts, draftID)
	for idx, id := range i.order {
		if id == draftID {
			i.order = append(i.order[:idx], i.order[idx+1:]...)
			break
		}
	}
}

// ClearAll revokes every preview reference. Called on composer dismissal.
func (i *IntakeImpl) ClearAll() {
	if len(i.drafts) > 0 {
		i.Logger.Debug("Releasing media drafts", "count", len(i.drafts))
	}
	i.drafts = make(map[string]*staged)
	i.order = nil
}

func (i *IntakeImpl) Drafts() []domain.MediaDraft {
	out := make([]domain.MediaDraft, 0, len(i.order))
	for _, id := range i.order {
		out = append(out, i.drafts[id].draft)
	}
	return out
}

func (i *IntakeImpl) Preview(draftID string) ([]byte, bool) {
	st, ok := i.drafts[draftID]
	if !ok {
		return nil, false
	}
	return st.data, true
}

func (i *IntakeImpl) Submit(ctx context.Context) ([]string, error) {
	urls := make([]string, 0, len(i.order))
	for _, id := range i.order {
		st := i.drafts[id]
		url, err := i.Store.Upload(ctx, st.draft.FileName, st.draft.Kind, bytes.NewReader(st.data))
		if err != nil {
			return nil, fmt.Errorf("failed to upload draft %s: %w", st.draft.FileName, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}
