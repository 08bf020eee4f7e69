package study

import (
	"context"
	"fmt"
	"sort"
)

// ProgressStore persists the studied-word set of each user
type ProgressStore interface {
	Studied(ctx context.Context, ownerID int64) ([]string, error)
	MarkStudied(ctx context.Context, ownerID int64, entryID string) error
	ResetStudied(ctx context.Context, ownerID int64) error
}

// StudiedSet is the set of entry ids already shown in unique-words mode.
// It only grows until Reset is called.
type StudiedSet struct {
	ids map[string]struct{}
}

// NewStudiedSet creates a set holding ids
func NewStudiedSet(ids ...string) *StudiedSet {
	s := &StudiedSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// LoadStudied reads the owner's studied set from store
func LoadStudied(ctx context.Context, store ProgressStore, ownerID int64) (*StudiedSet, error) {
	ids, err := store.Studied(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load studied words: %w", err)
	}
	return NewStudiedSet(ids...), nil
}

// Has reports whether id was studied. A nil set contains nothing.
func (s *StudiedSet) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Add records id and reports whether it was new
func (s *StudiedSet) Add(id string) bool {
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *StudiedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns the studied ids in sorted order
func (s *StudiedSet) IDs() []string {
	out := make([]string, 0, s.Len())
	if s == nil {
		return out
	}
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Reset forgets every studied id
func (s *StudiedSet) Reset() {
	s.ids = make(map[string]struct{})
}
