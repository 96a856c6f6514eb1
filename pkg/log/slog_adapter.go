package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger.
// Useful during development to watch the pool on the console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates an adapter that logs at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter logging at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event. Errors are always logged at Warn or above.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.SubscriptionID != "" {
		attrs = append(attrs, slog.String("sub_id", event.SubscriptionID))
	}
	if event.StreamID != "" {
		attrs = append(attrs, slog.String("stream_id", event.StreamID))
	}
	if len(event.Relays) > 0 {
		attrs = append(attrs, slog.Any("relays", event.Relays))
	}

	level := a.level
	switch {
	case event.Subscription != nil:
		attrs = append(attrs,
			slog.String("action", event.Subscription.Action.String()),
			slog.Int("filters", event.Subscription.Filters),
		)
		if event.Subscription.Forced {
			attrs = append(attrs, slog.Bool("forced", true))
		}
	case event.Batch != nil:
		attrs = append(attrs,
			slog.String("action", event.Batch.Action.String()),
			slog.Int("requests", event.Batch.Requests),
		)
		if event.Batch.Interval > 0 {
			attrs = append(attrs, slog.Duration("interval", event.Batch.Interval))
		}
		if event.Batch.Filters > 0 {
			attrs = append(attrs, slog.Int("filters", event.Batch.Filters))
		}
	case event.Stream != nil:
		attrs = append(attrs, slog.String("state", event.Stream.State.String()))
		if event.Stream.Filters > 0 {
			attrs = append(attrs, slog.Int("filters", event.Stream.Filters))
		}
		if event.Stream.Forced {
			attrs = append(attrs, slog.Bool("forced", true))
		}
		if event.Stream.State != StreamOpened {
			attrs = append(attrs, slog.Int("records", event.Stream.Records))
		}
	case event.Record != nil:
		attrs = append(attrs,
			slog.String("event_id", event.Record.EventID),
			slog.Int("kind", event.Record.Kind),
		)
	case event.Purge != nil:
		attrs = append(attrs,
			slog.Int("removed", event.Purge.Removed),
			slog.Bool("retained", event.Purge.Retained),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Op != "" {
			attrs = append(attrs, slog.String("op", event.Error.Op))
		}
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
		if level < slog.LevelWarn {
			level = slog.LevelWarn
		}
	}

	a.logger.LogAttrs(context.Background(), level, "pool", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
