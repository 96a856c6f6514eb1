package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"

	"github.com/relaymux/relaymux-go/pkg/filter"
	"github.com/relaymux/relaymux-go/pkg/log"
	"github.com/relaymux/relaymux-go/pkg/registry"
	"github.com/relaymux/relaymux-go/pkg/schedule"
	"github.com/relaymux/relaymux-go/pkg/store"
	"github.com/relaymux/relaymux-go/pkg/transport"
)

// DefaultBatchingInterval is the batch window used when a request does not
// specify one.
const DefaultBatchingInterval = 500 * time.Millisecond

// Options controls how a request is scheduled.
type Options struct {
	// Force opens a dedicated network subscription immediately.
	Force bool

	// BatchingInterval is the batch window armed by this request if it is
	// the first of a batch. Zero selects the pool default.
	BatchingInterval time.Duration
}

// Request is a subscription request: what to match and where to ask.
type Request struct {
	Filters []nostr.Filter
	Relays  []string
	Options Options
}

// State is the batching state of the pool.
type State uint8

const (
	// StateIdle means no flush task is armed.
	StateIdle State = iota

	// StateBatching means a flush task is armed and requests are queued.
	StateBatching
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateBatching:
		return "BATCHING"
	default:
		return "UNKNOWN"
	}
}

// ChangeKind classifies a store change.
type ChangeKind uint8

const (
	// ChangeAdded reports a record appended by a stream.
	ChangeAdded ChangeKind = iota

	// ChangeRemoved reports records purged by Cancel.
	ChangeRemoved
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "ADDED"
	case ChangeRemoved:
		return "REMOVED"
	default:
		return "UNKNOWN"
	}
}

// Change is a store change announced to watchers.
type Change struct {
	Kind ChangeKind

	// Records holds the added record or the purged records.
	Records []*nostr.Event

	// StreamID is set for added records.
	StreamID string

	// SubscriptionID is set for purges.
	SubscriptionID string
}

// Config configures a Pool.
type Config struct {
	// Transport opens network subscriptions. Required.
	Transport transport.Transport

	// Scheduler arms flush tasks. Defaults to schedule.Real.
	Scheduler schedule.Scheduler

	// DefaultBatchingInterval is used for requests without an interval.
	DefaultBatchingInterval time.Duration

	// Logger receives operational logs. Nil disables logging.
	Logger *slog.Logger

	// ProtocolLogger receives pool events. Nil disables capture.
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default configuration without a transport.
func DefaultConfig() Config {
	return Config{
		Scheduler:               schedule.Real{},
		DefaultBatchingInterval: DefaultBatchingInterval,
		ProtocolLogger:          log.NoopLogger{},
	}
}

// queued is a request waiting in the pending batch.
type queued struct {
	subID string
	req   Request
}

// activeStream tracks one open network subscription.
type activeStream struct {
	id      string
	relays  []string
	filters []nostr.Filter
	forced  bool
	subID   string
	records int
}

// Pool coalesces logical subscriptions into network subscriptions and
// collects their records.
type Pool struct {
	mu sync.Mutex

	config    Config
	transport transport.Transport
	scheduler schedule.Scheduler
	logger    *slog.Logger
	plog      log.Logger

	registry *registry.Registry
	store    *store.Store

	// Pending batch
	queue      []queued
	state      State
	flushTask  schedule.Task
	generation uint64

	streams map[string]*activeStream

	// Callbacks
	watchers      map[uint64]func(Change)
	nextWatcherID uint64
	errorHandlers []func(error)

	// Store changes waiting for delivery, in store order. Guarded by
	// notifyMu, which is never held while a watcher runs.
	notifyMu      sync.Mutex
	notifications []notification
	dispatching   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// New creates a pool. Zero-valued config fields take their defaults.
func New(config Config) (*Pool, error) {
	if config.Transport == nil {
		return nil, ErrNoTransport
	}
	if config.Scheduler == nil {
		config.Scheduler = schedule.Real{}
	}
	if config.DefaultBatchingInterval <= 0 {
		config.DefaultBatchingInterval = DefaultBatchingInterval
	}
	if config.ProtocolLogger == nil {
		config.ProtocolLogger = log.NoopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		config:    config,
		transport: config.Transport,
		scheduler: config.Scheduler,
		logger:    config.Logger,
		plog:      config.ProtocolLogger,
		registry:  registry.New(),
		store:     store.New(),
		streams:   make(map[string]*activeStream),
		watchers:  make(map[uint64]func(Change)),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// NewSubscription registers subID for req and schedules its network
// subscription. It never blocks on the network.
//
// Invalid filters, a negative interval or a duplicate subID are rejected
// before anything is registered or queued.
func (p *Pool) NewSubscription(req Request, subID string) error {
	if req.Options.BatchingInterval < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, req.Options.BatchingInterval)
	}
	if err := filter.ValidateAll(req.Filters); err != nil {
		return err
	}

	req = cloneRequest(req)

	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}

	if err := p.registry.Register(subID, req.Filters); err != nil {
		p.mu.Unlock()
		return err
	}

	p.logEvent(log.Event{
		Category:       log.CategorySubscription,
		SubscriptionID: subID,
		Relays:         req.Relays,
		Subscription: &log.SubscriptionEvent{
			Action:  log.SubscriptionRegistered,
			Filters: len(req.Filters),
			Forced:  req.Options.Force,
		},
	})

	if req.Options.Force {
		p.startStreamLocked(subID, req.Relays, req.Filters, true)
		p.mu.Unlock()
		p.debugLog("forced subscription opened", "sub_id", subID, "filters", len(req.Filters))
		return nil
	}

	p.queue = append(p.queue, queued{subID: subID, req: req})
	pending := len(p.queue)

	p.logEvent(log.Event{
		Category:       log.CategoryBatch,
		SubscriptionID: subID,
		Batch:          &log.BatchEvent{Action: log.BatchQueued, Requests: pending},
	})

	var armed time.Duration
	if p.state == StateIdle {
		armed = req.Options.BatchingInterval
		if armed == 0 {
			armed = p.config.DefaultBatchingInterval
		}
		p.state = StateBatching
		p.generation++
		gen := p.generation
		p.flushTask = p.scheduler.AfterFunc(armed, func() { p.flush(gen) })

		p.logEvent(log.Event{
			Category:       log.CategoryBatch,
			SubscriptionID: subID,
			Batch:          &log.BatchEvent{Action: log.BatchArmed, Requests: pending, Interval: armed},
		})
	}

	p.mu.Unlock()

	if armed > 0 {
		p.debugLog("batch armed", "sub_id", subID, "interval", armed)
	} else {
		p.debugLog("request queued", "sub_id", subID, "pending", pending)
	}
	return nil
}

// flush merges the pending batch into one network subscription.
func (p *Pool) flush(gen uint64) {
	p.mu.Lock()

	// A task from a superseded window, or one that fired after Close.
	if p.closed || gen != p.generation || p.state != StateBatching {
		p.mu.Unlock()
		return
	}

	batch := p.queue
	p.queue = nil
	p.state = StateIdle
	p.flushTask = nil

	if len(batch) == 0 {
		p.mu.Unlock()
		p.debugLog("flush with empty queue")
		return
	}

	lists := make([][]nostr.Filter, 0, len(batch))
	var relays []string
	for _, q := range batch {
		lists = append(lists, q.req.Filters)
		relays = append(relays, q.req.Relays...)
	}
	filters := filter.Union(lists...)

	p.logEvent(log.Event{
		Category: log.CategoryBatch,
		Relays:   relays,
		Batch:    &log.BatchEvent{Action: log.BatchFlushed, Requests: len(batch), Filters: len(filters)},
	})

	streamID := p.startStreamLocked("", relays, filters, false)
	p.mu.Unlock()

	p.debugLog("batch flushed", "requests", len(batch), "filters", len(filters), "stream_id", streamID)
}

// startStreamLocked registers a stream and starts its goroutine.
// Caller must hold p.mu and the pool must not be closed.
func (p *Pool) startStreamLocked(subID string, relays []string, filters []nostr.Filter, forced bool) string {
	relays = filter.DedupeRelays(relays)
	if deduped, err := filter.DedupeFilters(filters); err == nil {
		filters = deduped
	}

	as := &activeStream{
		id:      uuid.New().String(),
		relays:  relays,
		filters: filters,
		forced:  forced,
		subID:   subID,
	}
	p.streams[as.id] = as

	ctx, cancel := context.WithCancel(p.ctx)
	p.wg.Add(1)
	go p.runStream(ctx, cancel, as)

	return as.id
}

// runStream opens the network subscription and pumps its records into the
// store until the stream ends or the pool is closed.
func (p *Pool) runStream(ctx context.Context, cancel context.CancelFunc, as *activeStream) {
	defer p.wg.Done()
	defer cancel()
	defer p.removeStream(as.id)

	stream, err := p.transport.Open(ctx, as.relays, as.filters)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.reportError(as, OpOpen, err)
		return
	}

	p.logStream(as, log.StreamOpened, 0)
	p.debugLog("stream opened", "stream_id", as.id, "relays", as.relays, "filters", len(as.filters))

	records := stream.Records()
	for {
		select {
		case event, ok := <-records:
			if !ok {
				if err := stream.Err(); err != nil {
					p.reportError(as, OpStream, err)
				}
				p.logStream(as, log.StreamEnded, p.streamRecords(as))
				p.closeStream(as, stream)
				return
			}
			p.addRecord(as, event)

		case <-ctx.Done():
			p.closeStream(as, stream)
			return
		}
	}
}

// closeStream releases the stream handle.
func (p *Pool) closeStream(as *activeStream, stream transport.Stream) {
	if err := stream.Close(); err != nil {
		p.reportError(as, OpClose, err)
	}
	p.logStream(as, log.StreamClosed, p.streamRecords(as))
	p.debugLog("stream closed", "stream_id", as.id, "records", p.streamRecords(as))
}

// addRecord appends a delivered record and notifies watchers.
func (p *Pool) addRecord(as *activeStream, event *nostr.Event) {
	if event == nil {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.store.Add(event)
	as.records++
	p.queueChangeLocked(Change{Kind: ChangeAdded, Records: []*nostr.Event{event}, StreamID: as.id})
	p.mu.Unlock()

	p.logEvent(log.Event{
		Layer:    log.LayerTransport,
		Category: log.CategoryRecord,
		StreamID: as.id,
		Record: &log.RecordEvent{
			EventID:   event.ID,
			Kind:      event.Kind,
			PubKey:    event.PubKey,
			CreatedAt: int64(event.CreatedAt),
		},
	})

	p.dispatchChanges()
}

// Cancel removes subID. Records matching its filters are purged unless
// another live subscription has an equivalent filter set. Unknown IDs are
// ignored, so Cancel is idempotent. It returns the number of records
// purged.
func (p *Pool) Cancel(subID string) int {
	p.mu.Lock()

	filters, err := p.registry.Lookup(subID)
	if err != nil {
		p.mu.Unlock()
		return 0
	}

	retained := p.registry.HasEquivalentOther(subID, filters)
	var removed []*nostr.Event
	if !retained {
		removed = p.store.Purge(filters)
	}
	_, _ = p.registry.Unregister(subID)

	if len(removed) > 0 {
		p.queueChangeLocked(Change{Kind: ChangeRemoved, Records: removed, SubscriptionID: subID})
	}
	p.mu.Unlock()

	p.logEvent(log.Event{
		Category:       log.CategoryPurge,
		SubscriptionID: subID,
		Purge:          &log.PurgeEvent{Removed: len(removed), Retained: retained},
	})
	p.logEvent(log.Event{
		Category:       log.CategorySubscription,
		SubscriptionID: subID,
		Subscription:   &log.SubscriptionEvent{Action: log.SubscriptionCancelled, Filters: len(filters)},
	})
	p.debugLog("subscription cancelled", "sub_id", subID, "removed", len(removed), "retained", retained)

	p.dispatchChanges()
	return len(removed)
}

// Records returns a read-only view of the record store.
func (p *Pool) Records() store.View {
	return recordView{s: p.store}
}

// recordView hides the mutating methods of the store from callers.
type recordView struct {
	s *store.Store
}

var _ store.View = recordView{}

func (v recordView) Len() int {
	return v.s.Len()
}

func (v recordView) All() []*nostr.Event {
	return v.s.All()
}

func (v recordView) Query(filters ...nostr.Filter) []*nostr.Event {
	return v.s.Query(filters...)
}

func (v recordView) Unique(filters ...nostr.Filter) []*nostr.Event {
	return v.s.Unique(filters...)
}

// Matching returns the stored records matching subID's filters, one per
// event ID in arrival order.
func (p *Pool) Matching(subID string) ([]*nostr.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	filters, err := p.registry.Lookup(subID)
	if err != nil {
		return nil, err
	}
	return p.store.Unique(filters...), nil
}

// Watch registers fn for store changes. The returned function removes it.
// Changes reach fn one at a time in the order they were applied to the store.
func (p *Pool) Watch(fn func(Change)) (stop func()) {
	p.mu.Lock()
	id := p.nextWatcherID
	p.nextWatcherID++
	p.watchers[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers, id)
			p.mu.Unlock()
		})
	}
}

// OnError registers a handler for transport errors. Handlers are called
// from stream goroutines.
func (p *Pool) OnError(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errorHandlers = append(p.errorHandlers, fn)
}

// State returns the batching state.
func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Pending returns the number of queued requests.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Subscriptions returns the live subscription IDs, sorted.
func (p *Pool) Subscriptions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registry.IDs()
}

// ActiveStreams returns the number of network subscriptions not yet closed.
func (p *Pool) ActiveStreams() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.streams)
}

// Close stops the armed flush task, drops the pending batch, cancels every
// stream and waits for their goroutines to exit. Close is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true

	if p.flushTask != nil {
		p.flushTask.Stop()
		p.flushTask = nil
	}
	dropped := len(p.queue)
	p.queue = nil
	p.state = StateIdle
	p.generation++
	p.mu.Unlock()

	if dropped > 0 {
		p.logEvent(log.Event{
			Category: log.CategoryBatch,
			Batch:    &log.BatchEvent{Action: log.BatchDropped, Requests: dropped},
		})
		p.debugLog("pending batch dropped", "requests", dropped)
	}

	p.cancel()
	p.wg.Wait()
	return nil
}

// reportError wraps err, logs it and calls the error handlers.
func (p *Pool) reportError(as *activeStream, op string, err error) {
	terr := &TransportError{
		Op:       op,
		StreamID: as.id,
		Relays:   as.relays,
		Forced:   as.forced,
		Err:      err,
	}

	if p.logger != nil {
		p.logger.Warn("transport error", "op", op, "stream_id", as.id, "error", err)
	}
	p.logEvent(log.Event{
		Layer:          log.LayerTransport,
		Category:       log.CategoryError,
		SubscriptionID: as.subID,
		StreamID:       as.id,
		Relays:         as.relays,
		Error: &log.ErrorEventData{
			Layer:   log.LayerTransport,
			Message: err.Error(),
			Op:      op,
		},
	})

	p.mu.Lock()
	handlers := make([]func(error), len(p.errorHandlers))
	copy(handlers, p.errorHandlers)
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(terr)
	}
}

func (p *Pool) removeStream(id string) {
	p.mu.Lock()
	delete(p.streams, id)
	p.mu.Unlock()
}

func (p *Pool) streamRecords(as *activeStream) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return as.records
}

func (p *Pool) logStream(as *activeStream, state log.StreamState, records int) {
	p.logEvent(log.Event{
		Layer:          log.LayerTransport,
		Category:       log.CategoryStream,
		SubscriptionID: as.subID,
		StreamID:       as.id,
		Relays:         as.relays,
		Stream: &log.StreamEvent{
			State:   state,
			Filters: len(as.filters),
			Forced:  as.forced,
			Records: records,
		},
	})
}

// notification is a change bound to the watchers registered when it
// happened.
type notification struct {
	change   Change
	watchers []func(Change)
}

// queueChangeLocked records a store change for delivery. Caller must hold
// p.mu, so changes queue in the order they hit the store.
func (p *Pool) queueChangeLocked(change Change) {
	watchers := p.watcherList()
	if len(watchers) == 0 {
		return
	}
	p.notifyMu.Lock()
	p.notifications = append(p.notifications, notification{change: change, watchers: watchers})
	p.notifyMu.Unlock()
}

// dispatchChanges delivers queued changes in order. Only one goroutine
// delivers at a time; a caller arriving while another is delivering leaves
// its change to that goroutine. Must be called without p.mu held.
func (p *Pool) dispatchChanges() {
	p.notifyMu.Lock()
	if p.dispatching {
		p.notifyMu.Unlock()
		return
	}
	p.dispatching = true
	for len(p.notifications) > 0 {
		n := p.notifications[0]
		p.notifications[0] = notification{}
		p.notifications = p.notifications[1:]
		p.notifyMu.Unlock()

		for _, fn := range n.watchers {
			fn(n.change)
		}

		p.notifyMu.Lock()
	}
	p.notifications = nil
	p.dispatching = false
	p.notifyMu.Unlock()
}

// watcherList returns the registered watchers. Caller must hold p.mu.
func (p *Pool) watcherList() []func(Change) {
	if len(p.watchers) == 0 {
		return nil
	}
	list := make([]func(Change), 0, len(p.watchers))
	for _, fn := range p.watchers {
		list = append(list, fn)
	}
	return list
}

// logEvent stamps and forwards an event to the protocol logger.
func (p *Pool) logEvent(event log.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	p.plog.Log(event)
}

// debugLog logs a debug message if logging is enabled.
func (p *Pool) debugLog(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func cloneRequest(req Request) Request {
	out := Request{Options: req.Options}
	if req.Filters != nil {
		out.Filters = make([]nostr.Filter, len(req.Filters))
		for i, f := range req.Filters {
			out.Filters[i] = f.Clone()
		}
	}
	if req.Relays != nil {
		out.Relays = append([]string(nil), req.Relays...)
	}
	return out
}
