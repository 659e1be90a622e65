package documents

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Registry is the in-memory index of ingested documents.
// It holds only documents whose ingestion fully completed.
type Registry struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]Document
}

func NewRegistry() *Registry {
	return &Registry{docs: make(map[uuid.UUID]Document)}
}

func (r *Registry) Insert(doc Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
}

func (r *Registry) Get(id uuid.UUID) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// Remove deletes and returns the entry for id in a single step, so that of
// several concurrent callers exactly one receives the document.
func (r *Registry) Remove(id uuid.UUID) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	delete(r.docs, id)
	return doc, nil
}

// List returns all documents, newest first.
func (r *Registry) List() []Document {
	r.mu.RLock()
	docs := make([]Document, 0, len(r.docs))
	for _, doc := range r.docs {
		docs = append(docs, doc)
	}
	r.mu.RUnlock()

	slices.SortFunc(docs, func(a, b Document) int {
		if c := b.IngestedAt.Compare(a.IngestedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return docs
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}
