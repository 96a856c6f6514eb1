package transport

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
)

// Transport opens short-lived subscriptions against a set of relays.
// Implemented by RelayTransport.
type Transport interface {
	// Open subscribes to filters on every relay. The returned stream ends
	// once all relays finished sending stored events.
	Open(ctx context.Context, relays []string, filters []nostr.Filter) (Stream, error)
}

// Stream is an open network subscription.
// Implemented by the streams returned from RelayTransport.Open.
type Stream interface {
	// Records delivers matching events. The channel is closed at end of
	// stream.
	Records() <-chan *nostr.Event

	// Err reports failures seen while streaming. Only meaningful after
	// Records is closed.
	Err() error

	// Close releases the subscription. It is safe to call more than once.
	Close() error
}

// Compile-time interface satisfaction checks.
var (
	_ Transport = (*RelayTransport)(nil)
	_ Stream    = (*relayStream)(nil)
)
