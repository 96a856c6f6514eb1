package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/nbd-wtf/go-nostr"

	"github.com/relaymux/relaymux-go/pkg/filter"
)

// Registry errors.
var (
	ErrDuplicateSubscription = errors.New("subscription already registered")
	ErrNotFound              = errors.New("subscription not found")
	ErrInvalidID             = errors.New("invalid subscription ID")
)

// entry is a live logical subscription.
type entry struct {
	filters []nostr.Filter

	// keys is the canonical key set of filters, computed once at registration.
	keys map[string]struct{}
}

// Registry maps subscription IDs to their filter sets.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register adds a subscription. The filter slice is copied.
func (r *Registry) Register(subID string, filters []nostr.Filter) error {
	if subID == "" {
		return ErrInvalidID
	}

	keys, err := keySet(filters)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[subID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSubscription, subID)
	}

	r.entries[subID] = &entry{
		filters: slices.Clone(filters),
		keys:    keys,
	}
	return nil
}

// Unregister removes a subscription and returns its filters.
func (r *Registry) Unregister(subID string) ([]nostr.Filter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[subID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, subID)
	}
	delete(r.entries, subID)
	return e.filters, nil
}

// Lookup returns a copy of the filters registered for subID.
func (r *Registry) Lookup(subID string) ([]nostr.Filter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[subID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, subID)
	}
	return slices.Clone(e.filters), nil
}

// HasEquivalentOther reports whether a live subscription other than subID
// has a filter set equal to filters. Malformed filters match nothing.
func (r *Registry) HasEquivalentOther(subID string, filters []nostr.Filter) bool {
	keys, err := keySet(filters)
	if err != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, e := range r.entries {
		if id == subID {
			continue
		}
		if sameKeys(keys, e.keys) {
			return true
		}
	}
	return false
}

// Count returns the number of live subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// IDs returns the live subscription IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func keySet(filters []nostr.Filter) (map[string]struct{}, error) {
	keys := make(map[string]struct{}, len(filters))
	for i, f := range filters {
		k, err := filter.Key(f)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		keys[k] = struct{}{}
	}
	return keys, nil
}

// sameKeys is set equality over canonical keys, matching filter.SetsEqual.
func sameKeys(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
