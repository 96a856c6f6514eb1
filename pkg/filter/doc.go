// Package filter implements equality and deduplication for nostr filters.
//
// Filters are compared structurally after canonicalization: the multi-valued
// fields (ids, kinds, authors and the values of every tag) are sorted and
// deduplicated, so two filters that select the same records compare equal
// regardless of how their slices were ordered.
//
// # Filter Sets
//
// A subscription is described by a set of filters. Sets compare as true sets:
// duplicates collapse and order does not matter. This is the relation used to
// decide whether a cancelled subscription still shares its records with a
// live one.
//
// # Identity
//
// Key returns a deterministic identity for a filter, computed as the
// canonical CBOR encoding of its canonical form. Keys are stable across
// processes and can be used as map keys.
package filter
