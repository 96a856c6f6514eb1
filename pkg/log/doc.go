// Package log provides structured event capture for the subscription pool.
//
// This package defines the Logger interface and Event types for recording
// what the pool does: subscriptions registered and cancelled, batches queued
// and flushed, network streams opened and ended, records received, purges,
// and errors. It is separate from operational logging (slog): event capture
// gives a complete machine-readable trace for debugging and analysis.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/relaymux/pool.rlog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # Event Types
//
// Events are captured at two layers:
//   - Pool: subscription lifecycle, batching, purge (SubscriptionEvent,
//     BatchEvent, PurgeEvent)
//   - Transport: network streams and records (StreamEvent, RecordEvent)
//
// Errors at either layer have a dedicated ErrorEventData payload.
//
// # File Format
//
// Log files are a sequence of CBOR encoded events with integer keys, using
// the .rlog extension. Reader iterates a file with an optional Filter.
package log
