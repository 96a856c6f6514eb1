package filter

import (
	"errors"
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = strings.Repeat("a", 64)
	bob   = strings.Repeat("b", 64)
	carol = strings.Repeat("c", 64)
)

func ts(v int64) *nostr.Timestamp {
	t := nostr.Timestamp(v)
	return &t
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		filter  nostr.Filter
		wantErr bool
	}{
		{"empty filter", nostr.Filter{}, false},
		{"kinds and authors", nostr.Filter{Kinds: []int{0, 1}, Authors: []string{alice}}, false},
		{"negative kind", nostr.Filter{Kinds: []int{-1}}, true},
		{"negative limit", nostr.Filter{Limit: -5}, true},
		{"short author", nostr.Filter{Authors: []string{"abc"}}, true},
		{"uppercase id", nostr.Filter{IDs: []string{strings.Repeat("A", 64)}}, true},
		{"id one short", nostr.Filter{IDs: []string{strings.Repeat("a", HexLength-1)}}, true},
		{"id one long", nostr.Filter{IDs: []string{strings.Repeat("a", HexLength+1)}}, true},
		{"empty author", nostr.Filter{Authors: []string{""}}, true},
		{"full length id", nostr.Filter{IDs: []string{strings.Repeat("0f", HexLength/2)}}, false},
		{"empty tag name", nostr.Filter{Tags: nostr.TagMap{"": {"x"}}}, true},
		{"since after until", nostr.Filter{Since: ts(20), Until: ts(10)}, true},
		{"since equals until", nostr.Filter{Since: ts(10), Until: ts(10)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.filter)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFilter) {
					t.Errorf("Validate() = %v, want ErrInvalidFilter", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestValidateAllReportsIndex(t *testing.T) {
	err := ValidateAll([]nostr.Filter{{Kinds: []int{1}}, {Limit: -1}})
	require.ErrorIs(t, err, ErrInvalidFilter)
	assert.Contains(t, err.Error(), "filter 1")
}

func TestCanonicalSortsAndDedupes(t *testing.T) {
	in := nostr.Filter{
		Kinds:   []int{7, 1, 1},
		Authors: []string{bob, alice, bob},
		Tags:    nostr.TagMap{"t": {"nostr", "go", "go"}},
	}

	c := Canonical(in)

	assert.Equal(t, []int{1, 7}, c.Kinds)
	assert.Equal(t, []string{alice, bob}, c.Authors)
	assert.Equal(t, []string{"go", "nostr"}, c.Tags["t"])

	// Input untouched.
	assert.Equal(t, []int{7, 1, 1}, in.Kinds)
}

func TestEqualIgnoresSliceOrder(t *testing.T) {
	a := nostr.Filter{Kinds: []int{1, 6}, Authors: []string{alice, bob}, Since: ts(100)}
	b := nostr.Filter{Kinds: []int{6, 1}, Authors: []string{bob, alice, alice}, Since: ts(100)}

	eq, err := Equal(a, b)
	require.NoError(t, err)
	if !eq {
		t.Error("Equal() = false for filters differing only in order")
	}
}

func TestEqualDistinguishesScalars(t *testing.T) {
	base := nostr.Filter{Kinds: []int{1}}

	tests := []struct {
		name  string
		other nostr.Filter
	}{
		{"limit", nostr.Filter{Kinds: []int{1}, Limit: 10}},
		{"since", nostr.Filter{Kinds: []int{1}, Since: ts(5)}},
		{"until", nostr.Filter{Kinds: []int{1}, Until: ts(5)}},
		{"search", nostr.Filter{Kinds: []int{1}, Search: "gm"}},
		{"kinds", nostr.Filter{Kinds: []int{2}}},
		{"tag", nostr.Filter{Kinds: []int{1}, Tags: nostr.TagMap{"p": {alice}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eq, err := Equal(base, tt.other)
			require.NoError(t, err)
			assert.False(t, eq)
		})
	}
}

func TestKeyRejectsInvalidFilter(t *testing.T) {
	_, err := Key(nostr.Filter{Kinds: []int{-3}})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestDedupeFiltersKeepsFirstOccurrence(t *testing.T) {
	a := nostr.Filter{Kinds: []int{1, 0}}
	aReordered := nostr.Filter{Kinds: []int{0, 1}}
	b := nostr.Filter{Authors: []string{carol}}

	got, err := DedupeFilters([]nostr.Filter{a, b, aReordered, b})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, []int{1, 0}, got[0].Kinds, "first occurrence should be kept as given")
	assert.Equal(t, []string{carol}, got[1].Authors)
}

func TestDedupeFiltersInvalid(t *testing.T) {
	_, err := DedupeFilters([]nostr.Filter{{}, {Limit: -1}})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestDedupeRelays(t *testing.T) {
	got := DedupeRelays([]string{"wss://r1", "wss://r2", "wss://r1", "", "wss://r3", "wss://r2"})
	assert.Equal(t, []string{"wss://r1", "wss://r2", "wss://r3"}, got)
}

func TestDedupeRelaysExactValue(t *testing.T) {
	// Trailing slash is a different reference.
	got := DedupeRelays([]string{"wss://r1", "wss://r1/"})
	assert.Len(t, got, 2)
}

func TestSetsEqual(t *testing.T) {
	a := nostr.Filter{Kinds: []int{1}}
	b := nostr.Filter{Authors: []string{alice}}
	c := nostr.Filter{Kinds: []int{3}}

	tests := []struct {
		name string
		x, y []nostr.Filter
		want bool
	}{
		{"identical", []nostr.Filter{a, b}, []nostr.Filter{a, b}, true},
		{"reordered", []nostr.Filter{a, b}, []nostr.Filter{b, a}, true},
		{"duplicates collapse", []nostr.Filter{a, a, b}, []nostr.Filter{b, a}, true},
		{"subset", []nostr.Filter{a}, []nostr.Filter{a, b}, false},
		{"different member", []nostr.Filter{a, b}, []nostr.Filter{a, c}, false},
		{"both empty", nil, []nostr.Filter{}, true},
		{"empty vs one", nil, []nostr.Filter{a}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SetsEqual(tt.x, tt.y)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnionConcatenates(t *testing.T) {
	a := nostr.Filter{Kinds: []int{1}}
	b := nostr.Filter{Kinds: []int{2}}

	got := Union([]nostr.Filter{a}, []nostr.Filter{b, a})

	require.Len(t, got, 3)
	assert.Equal(t, []int{1}, got[2].Kinds)
}

func TestMatches(t *testing.T) {
	evt := &nostr.Event{Kind: 1, PubKey: alice, CreatedAt: 50}

	assert.True(t, Matches([]nostr.Filter{{Kinds: []int{7}}, {Authors: []string{alice}}}, evt))
	assert.False(t, Matches([]nostr.Filter{{Kinds: []int{7}}}, evt))
	assert.False(t, Matches([]nostr.Filter{{Kinds: []int{1}}}, nil))
}
