package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation used in tests and for
// local development without a database.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*Document
	schemas     SchemaSet
	watchers    notifier
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithSchemas(nil)
}

// NewMemoryStoreWithSchemas creates an in-memory store that validates
// writes against the given collection schemas.
func NewMemoryStoreWithSchemas(schemas SchemaSet) *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*Document),
		schemas:     schemas,
	}
}

func (s *MemoryStore) List(_ context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(collection), nil
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, nil
	}
	out := copyDocument(*doc)
	return &out, nil
}

func (s *MemoryStore) Create(_ context.Context, collection string, data map[string]any) (string, error) {
	if err := s.schemas.validate(collection, data); err != nil {
		return "", err
	}

	s.mu.Lock()
	id := s.insertLocked(collection, "", data)
	docs := s.listLocked(collection)
	s.mu.Unlock()

	s.watchers.notify(collection, docs)
	return id, nil
}

func (s *MemoryStore) Put(_ context.Context, collection, id string, data map[string]any) error {
	if id == "" {
		return fmt.Errorf("put %s: id is required", collection)
	}
	if err := s.schemas.validate(collection, data); err != nil {
		return err
	}

	s.mu.Lock()
	now := time.Now()
	created := now
	if existing, ok := s.collections[collection][id]; ok {
		created = existing.CreatedAt
	}
	s.ensureCollection(collection)
	s.collections[collection][id] = &Document{
		ID:        id,
		Data:      copyData(data),
		CreatedAt: created,
		UpdatedAt: now,
	}
	docs := s.listLocked(collection)
	s.mu.Unlock()

	s.watchers.notify(collection, docs)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()

	doc, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update %s/%s: %w", collection, id, ErrNotFound)
	}

	merged := copyData(doc.Data)
	for k, v := range fields {
		merged[k] = copyValue(v)
	}
	if err := s.schemas.validate(collection, merged); err != nil {
		s.mu.Unlock()
		return err
	}

	doc.Data = merged
	doc.UpdatedAt = time.Now()
	docs := s.listLocked(collection)
	s.mu.Unlock()

	s.watchers.notify(collection, docs)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()

	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("delete %s/%s: %w", collection, id, ErrNotFound)
	}
	delete(s.collections[collection], id)
	docs := s.listLocked(collection)
	s.mu.Unlock()

	s.watchers.notify(collection, docs)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, collection, field string, value any) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Document
	for _, doc := range s.listLocked(collection) {
		got, ok := lookupPath(doc.Data, field)
		if ok && equalValue(got, value) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *MemoryStore) BulkCreate(_ context.Context, collection string, docs []map[string]any) ([]string, error) {
	// Validate everything up front so a bad document rejects the whole batch.
	for i, data := range docs {
		if err := s.schemas.validate(collection, data); err != nil {
			return nil, fmt.Errorf("bulk create %s, document %d: %w", collection, i, err)
		}
	}

	s.mu.Lock()
	ids := make([]string, 0, len(docs))
	for _, data := range docs {
		ids = append(ids, s.insertLocked(collection, "", data))
	}
	all := s.listLocked(collection)
	s.mu.Unlock()

	s.watchers.notify(collection, all)
	return ids, nil
}

func (s *MemoryStore) PutIf(_ context.Context, collection, id string, data map[string]any, field string, value any) (string, error) {
	if err := s.schemas.validate(collection, data); err != nil {
		return "", err
	}

	s.mu.Lock()
	for _, doc := range s.collections[collection] {
		got, ok := lookupPath(doc.Data, field)
		if ok && equalValue(got, value) {
			s.mu.Unlock()
			return "", fmt.Errorf("put %s where %s=%v: %w", collection, field, value, ErrConflict)
		}
	}
	if existing, ok := s.collections[collection][id]; ok {
		existing.Data = copyData(data)
		existing.UpdatedAt = time.Now()
	} else {
		id = s.insertLocked(collection, id, data)
	}
	docs := s.listLocked(collection)
	s.mu.Unlock()

	s.watchers.notify(collection, docs)
	return id, nil
}

func (s *MemoryStore) Watch(collection string, fn func([]Document)) func() {
	return s.watchers.watch(collection, fn)
}

func (s *MemoryStore) ensureCollection(collection string) {
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]*Document)
	}
}

// insertLocked writes a new document and returns its id. Caller holds mu.
func (s *MemoryStore) insertLocked(collection, id string, data map[string]any) string {
	if id == "" {
		id = generateID()
	}
	now := time.Now()
	s.ensureCollection(collection)
	s.collections[collection][id] = &Document{
		ID:        id,
		Data:      copyData(data),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id
}

// listLocked snapshots a collection ordered by creation time. Caller holds
// mu (read or write).
func (s *MemoryStore) listLocked(collection string) []Document {
	docs := make([]Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		docs = append(docs, copyDocument(*doc))
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs
}

func copyDocument(doc Document) Document {
	doc.Data = copyData(doc.Data)
	return doc
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyData(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
