// Package pool implements the subscription pool: the batching scheduler that
// coalesces logical subscriptions into network subscriptions, and the public
// API that ties the registry, the record store and the transport together.
//
// # Batching
//
// The pool is either Idle or Batching. The first non-forced request received
// while Idle arms a single flush task for its batching interval and moves the
// pool to Batching. Requests arriving while Batching only join the queue; the
// first request's interval governs the window. When the task fires, the
// filters and relays of every queued request are concatenated and opened as
// one network subscription, and the pool returns to Idle.
//
// A request with Options.Force set skips the queue and opens its own network
// subscription immediately. Forced requests never change the batching state.
//
// # Records
//
// Every record delivered by any stream is appended to a shared store in
// arrival order. Records are not deduplicated on insert; Matching returns one
// record per event ID for a subscription.
//
// # Cancellation
//
// Cancel removes a logical subscription. Stored records matching its filters
// are purged unless another live subscription holds an equivalent filter set.
// Network subscriptions already opened are not closed by Cancel.
//
// # Concurrency
//
// A single mutex serializes the registry, the store mutations, the queue and
// the timer state. Watchers and error handlers run after the lock has been
// released. Store changes are queued under the lock and delivered one at a
// time in store order, so a watcher never sees a record removed before it
// was added. A change is usually delivered on the goroutine that produced
// it; if another goroutine is already delivering, that goroutine delivers it
// instead. Watchers may call back into the pool.
package pool
