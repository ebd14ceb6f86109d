package store

import (
	"context"
	"sort"
	"sync"

	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/template"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Get returns a copy of the stored record.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return rec.clone(), nil
}

// Put stores a copy of rec.
func (s *MemoryStore) Put(_ context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "record has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = rec.clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n := listLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Close(context.Context) error { return nil }

func (r *Record) clone() *Record {
	c := *r
	c.Tree = r.Tree.Clone()
	c.Metadata.Containers = append([]template.Container(nil), r.Metadata.Containers...)
	return &c
}

var _ Store = (*MemoryStore)(nil)
