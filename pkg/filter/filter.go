package filter

import (
	"errors"
	"fmt"
	"slices"

	"github.com/fxamacker/cbor/v2"
	"github.com/nbd-wtf/go-nostr"
)

// ErrInvalidFilter is returned for malformed filter input.
var ErrInvalidFilter = errors.New("invalid filter")

// HexLength is the exact length of a hex encoded event ID or public key.
const HexLength = 64

// keyEncMode encodes canonical filters for Key.
// Configured for deterministic encoding so equal filters produce equal bytes.
var keyEncMode cbor.EncMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	keyEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create filter CBOR encoder mode: %v", err))
	}
}

// canonicalForm is the encoded shape of a canonical filter.
type canonicalForm struct {
	IDs       []string            `cbor:"1,keyasint,omitempty"`
	Kinds     []int               `cbor:"2,keyasint,omitempty"`
	Authors   []string            `cbor:"3,keyasint,omitempty"`
	Tags      map[string][]string `cbor:"4,keyasint,omitempty"`
	Since     *int64              `cbor:"5,keyasint,omitempty"`
	Until     *int64              `cbor:"6,keyasint,omitempty"`
	Limit     int                 `cbor:"7,keyasint,omitempty"`
	Search    string              `cbor:"8,keyasint,omitempty"`
	LimitZero bool                `cbor:"9,keyasint,omitempty"`
}

// Validate checks a single filter for malformed input.
func Validate(f nostr.Filter) error {
	for _, k := range f.Kinds {
		if k < 0 {
			return fmt.Errorf("%w: negative kind %d", ErrInvalidFilter, k)
		}
	}
	if f.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidFilter, f.Limit)
	}
	for _, id := range f.IDs {
		if !isHex(id) {
			return fmt.Errorf("%w: malformed id %q", ErrInvalidFilter, id)
		}
	}
	for _, pk := range f.Authors {
		if !isHex(pk) {
			return fmt.Errorf("%w: malformed author %q", ErrInvalidFilter, pk)
		}
	}
	for name := range f.Tags {
		if name == "" {
			return fmt.Errorf("%w: empty tag name", ErrInvalidFilter)
		}
	}
	if f.Since != nil && f.Until != nil && *f.Since > *f.Until {
		return fmt.Errorf("%w: since %d is after until %d", ErrInvalidFilter, *f.Since, *f.Until)
	}
	return nil
}

// ValidateAll validates every filter and reports the index of the first
// malformed one.
func ValidateAll(filters []nostr.Filter) error {
	for i, f := range filters {
		if err := Validate(f); err != nil {
			return fmt.Errorf("filter %d: %w", i, err)
		}
	}
	return nil
}

// Canonical returns a copy of f with every multi-valued field sorted and
// deduplicated. The input is not modified.
func Canonical(f nostr.Filter) nostr.Filter {
	out := nostr.Filter{
		IDs:       sortedUnique(f.IDs),
		Kinds:     sortedUnique(f.Kinds),
		Authors:   sortedUnique(f.Authors),
		Limit:     f.Limit,
		Search:    f.Search,
		LimitZero: f.LimitZero,
	}
	if f.Since != nil {
		since := *f.Since
		out.Since = &since
	}
	if f.Until != nil {
		until := *f.Until
		out.Until = &until
	}
	if len(f.Tags) > 0 {
		out.Tags = make(nostr.TagMap, len(f.Tags))
		for name, values := range f.Tags {
			if values == nil {
				// A nil value list does not constrain the tag.
				continue
			}
			out.Tags[name] = sortedUnique(values)
			if out.Tags[name] == nil {
				out.Tags[name] = []string{}
			}
		}
		if len(out.Tags) == 0 {
			out.Tags = nil
		}
	}
	return out
}

// Key returns the deterministic identity of f. Filters that are equal after
// canonicalization have the same key.
func Key(f nostr.Filter) (string, error) {
	if err := Validate(f); err != nil {
		return "", err
	}

	c := Canonical(f)
	form := canonicalForm{
		IDs:       c.IDs,
		Kinds:     c.Kinds,
		Authors:   c.Authors,
		Tags:      c.Tags,
		Limit:     c.Limit,
		Search:    c.Search,
		LimitZero: c.LimitZero,
	}
	if c.Since != nil {
		since := int64(*c.Since)
		form.Since = &since
	}
	if c.Until != nil {
		until := int64(*c.Until)
		form.Until = &until
	}

	data, err := keyEncMode.Marshal(form)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return string(data), nil
}

// Equal reports whether a and b are structurally equal after
// canonicalization.
func Equal(a, b nostr.Filter) (bool, error) {
	ka, err := Key(a)
	if err != nil {
		return false, err
	}
	kb, err := Key(b)
	if err != nil {
		return false, err
	}
	return ka == kb, nil
}

// DedupeFilters removes structural duplicates, keeping the first occurrence
// of each filter in its original form.
func DedupeFilters(filters []nostr.Filter) ([]nostr.Filter, error) {
	seen := make(map[string]struct{}, len(filters))
	out := make([]nostr.Filter, 0, len(filters))
	for i, f := range filters {
		key, err := Key(f)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}

// DedupeRelays removes duplicate relay references by exact value, keeping
// first occurrence order. Empty references are dropped.
func DedupeRelays(relays []string) []string {
	seen := make(map[string]struct{}, len(relays))
	out := make([]string, 0, len(relays))
	for _, r := range relays {
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// SetsEqual reports whether a and b describe the same set of filters.
// Duplicates collapse and order is ignored.
func SetsEqual(a, b []nostr.Filter) (bool, error) {
	ka, err := keySet(a)
	if err != nil {
		return false, err
	}
	kb, err := keySet(b)
	if err != nil {
		return false, err
	}
	if len(ka) != len(kb) {
		return false, nil
	}
	for k := range ka {
		if _, ok := kb[k]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// Union concatenates filter lists in order. No deduplication is performed.
func Union(lists ...[]nostr.Filter) []nostr.Filter {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]nostr.Filter, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// Matches reports whether event is selected by at least one filter.
func Matches(filters []nostr.Filter, event *nostr.Event) bool {
	if event == nil {
		return false
	}
	for _, f := range filters {
		if f.Matches(event) {
			return true
		}
	}
	return false
}

func keySet(filters []nostr.Filter) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(filters))
	for i, f := range filters {
		key, err := Key(f)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		set[key] = struct{}{}
	}
	return set, nil
}

func sortedUnique[T string | int](values []T) []T {
	if len(values) == 0 {
		return nil
	}
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

func isHex(s string) bool {
	if len(s) != HexLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
