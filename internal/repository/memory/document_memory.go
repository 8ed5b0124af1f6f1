package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"docstore/internal/model"
	"docstore/internal/repository"
)

// DocumentMemory is an in-process repository.DocumentRepository.
// Records are kept in insertion order; it is safe for concurrent use.
type DocumentMemory struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]model.Document
}

// NewDocumentMemory creates an empty catalog.
func NewDocumentMemory() *DocumentMemory {
	return &DocumentMemory{docs: make(map[string]model.Document)}
}

var _ repository.DocumentRepository = (*DocumentMemory)(nil)

// Create stores a copy of doc under a new UUID.
func (r *DocumentMemory) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	stored := clone(*doc)
	stored.ID = uuid.NewString()

	r.mu.Lock()
	r.docs[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	r.mu.Unlock()

	out := clone(stored)
	return &out, nil
}

func (r *DocumentMemory) FindByID(_ context.Context, id string) (*model.Document, error) {
	r.mu.RLock()
	d, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(d)
	return &out, nil
}

func (r *DocumentMemory) List(_ context.Context) ([]model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.Document, 0, len(r.order))
	for _, id := range r.order {
		d := r.docs[id]
		if d.Location.Kind == model.StorageEmbedded {
			d.Location.Data = nil
		}
		items = append(items, d)
	}
	return items, nil
}

func (r *DocumentMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.docs, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// clone copies inline bytes so callers cannot mutate stored records.
func clone(d model.Document) model.Document {
	if d.Location.Data != nil {
		d.Location.Data = append([]byte{}, d.Location.Data...)
	}
	return d
}
