package sheet

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound indicates no sheet exists for an id.
var ErrNotFound = errors.New("character not found")

// MemoryStore keeps live sheets by character id.
type MemoryStore struct {
	mu     sync.RWMutex
	sheets map[string]*Sheet
}

// NewMemoryStore builds a store seeded with characters.
func NewMemoryStore(characters ...Character) *MemoryStore {
	s := &MemoryStore{sheets: make(map[string]*Sheet, len(characters))}
	for _, c := range characters {
		s.sheets[c.ID] = New(c)
	}
	return s
}

// Get returns the live sheet for id.
func (s *MemoryStore) Get(_ context.Context, id string) (*Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.sheets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sh, nil
}

// Put replaces the sheet for the character's id.
func (s *MemoryStore) Put(_ context.Context, c Character) (*Sheet, error) {
	if err := c.Normalize(); err != nil {
		return nil, err
	}
	sh := New(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[c.ID] = sh
	return sh, nil
}

// List returns every sheet ordered by id.
func (s *MemoryStore) List(context.Context) []*Sheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Sheet, 0, len(s.sheets))
	for _, sh := range s.sheets {
		out = append(out, sh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
