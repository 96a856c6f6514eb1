// Package store holds the records received from relays.
//
// The store is an append-only, in-memory sequence of events. Records leave
// the store only through Purge, which removes every record selected by a
// filter set. Purge is unconditional: callers decide beforehand whether any
// live subscription still needs the records.
//
// Consumers get read access through the View interface. Views return copies,
// so a caller can hold on to a result while the store keeps changing.
package store
