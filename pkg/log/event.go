package log

import "time"

// Event is a pool event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// SubscriptionID is the logical subscription, when one is involved.
	SubscriptionID string `cbor:"4,keyasint,omitempty"`

	// StreamID identifies the network subscription (UUID).
	StreamID string `cbor:"5,keyasint,omitempty"`

	// Relays is the relay set of the stream or request.
	Relays []string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Subscription *SubscriptionEvent `cbor:"10,keyasint,omitempty"`
	Batch        *BatchEvent        `cbor:"11,keyasint,omitempty"`
	Stream       *StreamEvent       `cbor:"12,keyasint,omitempty"`
	Record       *RecordEvent       `cbor:"13,keyasint,omitempty"`
	Purge        *PurgeEvent        `cbor:"14,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"15,keyasint,omitempty"`
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	// LayerPool is the batching scheduler, registry and store.
	LayerPool Layer = 0
	// LayerTransport is the network side of a stream.
	LayerTransport Layer = 1
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerPool:
		return "POOL"
	case LayerTransport:
		return "TRANSPORT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategorySubscription indicates a logical subscription change.
	CategorySubscription Category = 0
	// CategoryBatch indicates batch queueing or flushing.
	CategoryBatch Category = 1
	// CategoryStream indicates a network stream state change.
	CategoryStream Category = 2
	// CategoryRecord indicates a received record.
	CategoryRecord Category = 3
	// CategoryPurge indicates a purge decision.
	CategoryPurge Category = 4
	// CategoryError indicates an error event.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategorySubscription:
		return "SUBSCRIPTION"
	case CategoryBatch:
		return "BATCH"
	case CategoryStream:
		return "STREAM"
	case CategoryRecord:
		return "RECORD"
	case CategoryPurge:
		return "PURGE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SubscriptionEvent captures registration and cancellation.
type SubscriptionEvent struct {
	// Action is what happened to the subscription.
	Action SubscriptionAction `cbor:"1,keyasint"`

	// Filters is the number of filters in the subscription.
	Filters int `cbor:"2,keyasint"`

	// Forced indicates the request bypassed batching.
	Forced bool `cbor:"3,keyasint,omitempty"`
}

// SubscriptionAction is a subscription lifecycle step.
type SubscriptionAction uint8

const (
	// SubscriptionRegistered indicates a new live subscription.
	SubscriptionRegistered SubscriptionAction = 0
	// SubscriptionCancelled indicates a removed subscription.
	SubscriptionCancelled SubscriptionAction = 1
)

// String returns the action name.
func (a SubscriptionAction) String() string {
	switch a {
	case SubscriptionRegistered:
		return "REGISTERED"
	case SubscriptionCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// BatchEvent captures the pending batch.
type BatchEvent struct {
	// Action is queued or flushed.
	Action BatchAction `cbor:"1,keyasint"`

	// Requests is the queue length after the action (queued) or the number
	// of requests merged (flushed).
	Requests int `cbor:"2,keyasint"`

	// Interval is the batch window armed by the first request.
	// Stored as nanoseconds.
	Interval time.Duration `cbor:"3,keyasint,omitempty"`

	// Filters is the total number of filters in the batch.
	Filters int `cbor:"4,keyasint,omitempty"`
}

// BatchAction is a batch state change.
type BatchAction uint8

const (
	// BatchQueued indicates a request joined the pending batch.
	BatchQueued BatchAction = 0
	// BatchArmed indicates the flush task was scheduled.
	BatchArmed BatchAction = 1
	// BatchFlushed indicates the batch was merged into one stream.
	BatchFlushed BatchAction = 2
	// BatchDropped indicates a pending batch was discarded on close.
	BatchDropped BatchAction = 3
)

// String returns the action name.
func (a BatchAction) String() string {
	switch a {
	case BatchQueued:
		return "QUEUED"
	case BatchArmed:
		return "ARMED"
	case BatchFlushed:
		return "FLUSHED"
	case BatchDropped:
		return "DROPPED"
	default:
		return "UNKNOWN"
	}
}

// StreamEvent captures network stream lifecycle.
type StreamEvent struct {
	// State is the new stream state.
	State StreamState `cbor:"1,keyasint"`

	// Filters is the number of deduplicated filters sent.
	Filters int `cbor:"2,keyasint,omitempty"`

	// Forced indicates a stream opened for a single forced request.
	Forced bool `cbor:"3,keyasint,omitempty"`

	// Records is the number of records delivered (ended/closed only).
	Records int `cbor:"4,keyasint,omitempty"`
}

// StreamState is a network stream state.
type StreamState uint8

const (
	// StreamOpened indicates the transport accepted the subscription.
	StreamOpened StreamState = 0
	// StreamEnded indicates end of stored events.
	StreamEnded StreamState = 1
	// StreamClosed indicates the handle was released.
	StreamClosed StreamState = 2
)

// String returns the state name.
func (s StreamState) String() string {
	switch s {
	case StreamOpened:
		return "OPENED"
	case StreamEnded:
		return "ENDED"
	case StreamClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// RecordEvent captures a record delivered by a stream.
type RecordEvent struct {
	// EventID is the nostr event ID.
	EventID string `cbor:"1,keyasint"`

	// Kind is the nostr event kind.
	Kind int `cbor:"2,keyasint"`

	// PubKey is the author.
	PubKey string `cbor:"3,keyasint,omitempty"`

	// CreatedAt is the event timestamp (unix seconds).
	CreatedAt int64 `cbor:"4,keyasint,omitempty"`
}

// PurgeEvent captures a purge decision on cancellation.
type PurgeEvent struct {
	// Removed is the number of records removed.
	Removed int `cbor:"1,keyasint"`

	// Retained indicates the purge was skipped because an equivalent
	// subscription is still live.
	Retained bool `cbor:"2,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Op is the failed operation (open, stream, close).
	Op string `cbor:"3,keyasint,omitempty"`

	// Context describes what was being done.
	Context string `cbor:"4,keyasint,omitempty"`
}
