package pool

import (
	"errors"
	"fmt"
	"strings"
)

// Pool errors.
var (
	// ErrInvalidInterval is returned for a negative batching interval.
	ErrInvalidInterval = errors.New("invalid batching interval")

	// ErrNoTransport is returned by New when no transport is configured.
	ErrNoTransport = errors.New("no transport configured")

	// ErrClosed is returned for requests made after Close.
	ErrClosed = errors.New("pool closed")
)

// Transport operations reported in TransportError.Op.
const (
	OpOpen   = "open"
	OpStream = "stream"
	OpClose  = "close"
)

// TransportError reports a failure of a network subscription. Transport
// errors are never retried by the pool.
type TransportError struct {
	// Op is the failed operation: OpOpen, OpStream or OpClose.
	Op string

	// StreamID identifies the network subscription.
	StreamID string

	// Relays is the deduplicated relay set of the stream.
	Relays []string

	// Forced is true for a stream opened for a single forced request.
	Forced bool

	// Err is the underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed (stream %s, relays [%s]): %v",
		e.Op, e.StreamID, strings.Join(e.Relays, " "), e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
