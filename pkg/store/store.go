package store

import (
	"sync"

	"github.com/nbd-wtf/go-nostr"

	"github.com/relaymux/relaymux-go/pkg/filter"
)

// View is read-only access to stored records.
type View interface {
	// Len returns the number of stored records.
	Len() int

	// All returns every stored record in insertion order.
	All() []*nostr.Event

	// Query returns the records selected by at least one of the filters.
	// With no filters it returns nothing.
	Query(filters ...nostr.Filter) []*nostr.Event

	// Unique is like Query but returns only the first record for each
	// event ID.
	Unique(filters ...nostr.Filter) []*nostr.Event
}

// Store is an append-only record collection with filter-based purge.
// It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	events []*nostr.Event
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Add appends events unconditionally. Nil events are ignored.
func (s *Store) Add(events ...*nostr.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, evt := range events {
		if evt == nil {
			continue
		}
		s.events = append(s.events, evt)
	}
}

// Purge removes every record matched by at least one of filters and
// returns the removed records in their former order.
func (s *Store) Purge(filters []nostr.Filter) []*nostr.Event {
	if len(filters) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []*nostr.Event
	kept := s.events[:0]
	for _, evt := range s.events {
		if filter.Matches(filters, evt) {
			removed = append(removed, evt)
			continue
		}
		kept = append(kept, evt)
	}
	// Clear the tail so purged events can be collected.
	for i := len(kept); i < len(s.events); i++ {
		s.events[i] = nil
	}
	s.events = kept
	return removed
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// All returns a copy of every stored record in insertion order.
func (s *Store) All() []*nostr.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*nostr.Event, len(s.events))
	copy(result, s.events)
	return result
}

// Query returns the records selected by at least one of the filters.
func (s *Store) Query(filters ...nostr.Filter) []*nostr.Event {
	if len(filters) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*nostr.Event
	for _, evt := range s.events {
		if filter.Matches(filters, evt) {
			result = append(result, evt)
		}
	}
	return result
}

// Unique returns the records selected by the filters, one per event ID.
// Events without an ID are never collapsed.
func (s *Store) Unique(filters ...nostr.Filter) []*nostr.Event {
	matched := s.Query(filters...)
	if len(matched) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matched))
	result := matched[:0]
	for _, evt := range matched {
		if evt.ID != "" {
			if _, dup := seen[evt.ID]; dup {
				continue
			}
			seen[evt.ID] = struct{}{}
		}
		result = append(result, evt)
	}
	return result
}

// Compile-time interface satisfaction check.
var _ View = (*Store)(nil)
