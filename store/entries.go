// Package store holds the structured life-event records produced by quick-add
// and by the extraction pipeline.
package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Entry represents one structured life-event record. Details is shaped by the
// owning category's field schema at creation time; later schema edits do not
// reshape existing entries.
type Entry struct {
	ID       string         `json:"id"`
	Date     string         `json:"date"` // YYYY-MM-DD
	Category string         `json:"category"`
	Event    string         `json:"event"`
	Details  map[string]any `json:"details"`
	Image    string         `json:"image,omitempty"` // base64 data URL
}

// NewEntryID returns a fresh stable entry id
func NewEntryID() string {
	return uuid.NewString()
}

// EntryStore is a keyed collection of entries preserving insertion order.
// Category/date views are built by consumers; the store itself only keys by
// id. The session mutates it from a turn's call path while the interactive
// surface reads it, so every operation holds the store lock; a batch insert
// holds it for the whole batch and is never observable half-applied.
type EntryStore struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
}

// NewEntryStore creates an empty store
func NewEntryStore() *EntryStore {
	return &EntryStore{index: make(map[string]int)}
}

// Load replaces the store contents with persisted entries
func (s *EntryStore) Load(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]Entry, len(entries))
	copy(s.entries, entries)
	s.reindex()
}

// Insert adds one entry. An entry without an id gets one assigned.
func (s *EntryStore) Insert(e Entry) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(e)
}

// InsertBatch adds all entries as one logical batch
func (s *EntryStore) InsertBatch(entries []Entry) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := make([]Entry, 0, len(entries))
	for _, e := range entries {
		inserted = append(inserted, s.insertLocked(e))
	}
	return inserted
}

func (s *EntryStore) insertLocked(e Entry) Entry {
	if e.ID == "" {
		e.ID = NewEntryID()
	}
	s.index[e.ID] = len(s.entries)
	s.entries = append(s.entries, e)
	return e
}

// Get returns the entry with the given id
func (s *EntryStore) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// PatchByID replaces one record wholesale; the caller supplies the complete
// merged entry
func (s *EntryStore) PatchByID(id string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("entry %q not found", id)
	}
	e.ID = id
	s.entries[i] = e
	return nil
}

// DeleteByID removes one entry; deleting an unknown id is a no-op
func (s *EntryStore) DeleteByID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(id)
}

// DeleteByIDs removes every listed entry as one operation
func (s *EntryStore) DeleteByIDs(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.deleteLocked(id)
	}
}

func (s *EntryStore) deleteLocked(id string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.reindex()
}

// List returns all entries in insertion order
func (s *EntryStore) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// Len returns the number of stored entries
func (s *EntryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *EntryStore) reindex() {
	s.index = make(map[string]int, len(s.entries))
	for i, e := range s.entries {
		s.index[e.ID] = i
	}
}
