// Package transport is the boundary between the subscription pool and the
// relay network.
//
// The pool depends only on the Transport and Stream interfaces:
//
//	stream, err := t.Open(ctx, relays, filters)
//	for evt := range stream.Records() {
//	    // deliver evt
//	}
//	if err := stream.Err(); err != nil {
//	    // partial or total failure
//	}
//	stream.Close()
//
// A stream is short-lived: it delivers the stored records that match the
// filters and ends once every relay reported end of stored events (EOSE).
//
// # Relay Transport
//
// RelayTransport implements Transport on top of a go-nostr SimplePool. Open
// sends one REQ carrying all filters to each relay and merges the events into
// a single channel. A relay that cannot be reached, or that closes the
// subscription, is recorded as a RelayError and reported by Err once the
// stream ends. Open fails only when no relay accepted the subscription.
//
// Retries and relay selection are left to the caller.
package transport
