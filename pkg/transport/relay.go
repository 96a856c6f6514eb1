package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nbd-wtf/go-nostr"
)

// Transport errors.
var (
	ErrNoRelays      = errors.New("no relays given")
	ErrClosedByRelay = errors.New("subscription closed by relay")
	ErrNoFilters     = errors.New("no filters given")
)

// DefaultRecordBuffer is the default size of a stream's record channel.
const DefaultRecordBuffer = 64

// RelayError is a failure attributed to a single relay.
type RelayError struct {
	// URL identifies the relay.
	URL string

	// Err is the underlying failure.
	Err error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay %s: %v", e.URL, e.Err)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// RelayTransportConfig configures a RelayTransport.
type RelayTransportConfig struct {
	// RecordBuffer is the record channel size per stream (default: 64).
	RecordBuffer int

	// Label is attached to every REQ for relay-side diagnostics.
	Label string
}

// RelayTransport opens subscriptions through a go-nostr SimplePool.
type RelayTransport struct {
	config RelayTransportConfig
	pool   *nostr.SimplePool
	cancel context.CancelFunc
}

// NewRelayTransport creates a transport whose relay connections live until
// ctx is done or Close is called.
func NewRelayTransport(ctx context.Context, config RelayTransportConfig) *RelayTransport {
	if config.RecordBuffer <= 0 {
		config.RecordBuffer = DefaultRecordBuffer
	}

	ctx, cancel := context.WithCancel(ctx)
	return &RelayTransport{
		config: config,
		pool:   nostr.NewSimplePool(ctx),
		cancel: cancel,
	}
}

// Open subscribes to filters on every relay in relays.
func (t *RelayTransport) Open(ctx context.Context, relays []string, filters []nostr.Filter) (Stream, error) {
	if len(relays) == 0 {
		return nil, ErrNoRelays
	}
	if len(filters) == 0 {
		return nil, ErrNoFilters
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &relayStream{
		records: make(chan *nostr.Event, t.config.RecordBuffer),
		cancel:  cancel,
	}

	var opts []nostr.SubscriptionOption
	if t.config.Label != "" {
		opts = append(opts, nostr.WithLabel(t.config.Label))
	}

	type opened struct {
		url string
		sub *nostr.Subscription
	}
	var subs []opened

	for _, url := range relays {
		relay, err := t.pool.EnsureRelay(url)
		if err != nil {
			s.fail(url, err)
			continue
		}
		sub, err := relay.Subscribe(ctx, nostr.Filters(filters), opts...)
		if err != nil {
			s.fail(url, err)
			continue
		}
		subs = append(subs, opened{url: url, sub: sub})
	}

	if len(subs) == 0 {
		cancel()
		return nil, s.Err()
	}

	for _, o := range subs {
		s.subs = append(s.subs, o.sub)
		s.wg.Add(1)
		go s.pump(ctx, o.url, o.sub)
	}

	go func() {
		s.wg.Wait()
		close(s.records)
	}()

	return s, nil
}

// Close drops every relay connection held by the transport.
func (t *RelayTransport) Close() {
	t.cancel()
}

// relayStream merges the events of one subscription per relay.
type relayStream struct {
	records chan *nostr.Event
	cancel  context.CancelFunc
	subs    []*nostr.Subscription
	wg      sync.WaitGroup

	mu   sync.Mutex
	errs []error

	closeOnce sync.Once
}

// Records returns the merged event channel.
func (s *relayStream) Records() <-chan *nostr.Event {
	return s.records
}

// Err returns every relay failure joined, or nil.
func (s *relayStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.errs...)
}

// Close cancels the subscriptions on every relay.
func (s *relayStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		for _, sub := range s.subs {
			sub.Unsub()
		}
	})
	return nil
}

// pump forwards events from one relay until EOSE, CLOSED or cancellation.
func (s *relayStream) pump(ctx context.Context, url string, sub *nostr.Subscription) {
	defer s.wg.Done()

	for {
		select {
		case evt, ok := <-sub.Events:
			if !ok {
				return
			}
			select {
			case s.records <- evt:
			case <-ctx.Done():
				return
			}
		case <-sub.EndOfStoredEvents:
			return
		case reason := <-sub.ClosedReason:
			s.fail(url, fmt.Errorf("%w: %s", ErrClosedByRelay, reason))
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *relayStream) fail(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, &RelayError{URL: url, Err: err})
}
