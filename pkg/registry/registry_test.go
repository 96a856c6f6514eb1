package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaymux/relaymux-go/pkg/filter"
)

var (
	filterA = nostr.Filter{Kinds: []int{1}, Authors: []string{strings.Repeat("a", 64)}}
	filterB = nostr.Filter{Kinds: []int{7}}
)

func TestRegisterAndLookup(t *testing.T) {
	r := New()

	require.NoError(t, r.Register("sub-1", []nostr.Filter{filterA}))

	got, err := r.Lookup("sub-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, r.Count())
}

func TestRegisterDuplicateRejected(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("sub-1", []nostr.Filter{filterA}))

	err := r.Register("sub-1", []nostr.Filter{filterB})
	if !errors.Is(err, ErrDuplicateSubscription) {
		t.Fatalf("Register duplicate = %v, want ErrDuplicateSubscription", err)
	}

	// Original entry untouched.
	got, err := r.Lookup("sub-1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got[0].Kinds)
}

func TestRegisterEmptyID(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.Register("", nil), ErrInvalidID)
}

func TestRegisterInvalidFilter(t *testing.T) {
	r := New()
	err := r.Register("sub-1", []nostr.Filter{{Limit: -1}})
	assert.ErrorIs(t, err, filter.ErrInvalidFilter)
	assert.Equal(t, 0, r.Count())
}

func TestRegisterCopiesFilters(t *testing.T) {
	r := New()
	filters := []nostr.Filter{filterA}
	require.NoError(t, r.Register("sub-1", filters))

	filters[0] = filterB

	got, _ := r.Lookup("sub-1")
	assert.Equal(t, []int{1}, got[0].Kinds)
}

func TestUnregister(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("sub-1", []nostr.Filter{filterA, filterB}))

	filters, err := r.Unregister("sub-1")
	require.NoError(t, err)
	assert.Len(t, filters, 2)
	assert.Equal(t, 0, r.Count())

	_, err = r.Unregister("sub-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupNotFound(t *testing.T) {
	r := New()
	_, err := r.Lookup("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHasEquivalentOther(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("first", []nostr.Filter{filterA, filterB}))

	// Only itself registered.
	if r.HasEquivalentOther("first", []nostr.Filter{filterA, filterB}) {
		t.Error("HasEquivalentOther() = true with no other subscription")
	}

	// Same set, different order and a duplicate.
	require.NoError(t, r.Register("second", []nostr.Filter{filterB, filterA, filterA}))
	if !r.HasEquivalentOther("first", []nostr.Filter{filterA, filterB}) {
		t.Error("HasEquivalentOther() = false with an equivalent subscription")
	}

	// A subset is not equivalent.
	require.NoError(t, r.Register("third", []nostr.Filter{filterA}))
	if r.HasEquivalentOther("third", []nostr.Filter{filterA}) {
		t.Error("HasEquivalentOther() = true for a subset")
	}
}

func TestHasEquivalentOtherMalformed(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("first", []nostr.Filter{filterA}))
	assert.False(t, r.HasEquivalentOther("x", []nostr.Filter{{Kinds: []int{-1}}}))
}

func TestIDsSorted(t *testing.T) {
	r := New()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, r.Register(id, nil))
	}
	assert.Equal(t, []string{"a", "b", "c"}, r.IDs())
}

func TestRegistryConcurrent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("sub-%d", n)
			_ = r.Register(id, []nostr.Filter{filterA})
			_ = r.HasEquivalentOther(id, []nostr.Filter{filterA})
			_, _ = r.Unregister(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Count())
}
