// Package schedule provides one-shot deferred tasks that can be cancelled.
//
// The batching scheduler arms a single flush task per batch window. Tasks are
// created through a Scheduler so the clock can be replaced in tests:
//
//	sched := schedule.Real{}          // wall clock, backed by time.AfterFunc
//	sched := schedule.NewManual()     // virtual clock, driven by Advance
//
// # Cancellation
//
// Stop prevents a task from running if it has not started yet and reports
// whether it did so. A task whose callback already started runs to
// completion; callers that must ignore such late callbacks guard them with
// their own state.
package schedule
