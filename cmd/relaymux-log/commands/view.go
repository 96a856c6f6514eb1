// Package commands implements the relaymux-log CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/relaymux/relaymux-go/pkg/log"
)

// RunView writes every event matching filter in human-readable form.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [stream:id] LAYER Type sub
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [stream:%s] %s %s", ts, shortenID(event.StreamID), event.Layer.String(), typeLabel(event))
	if event.SubscriptionID != "" {
		fmt.Fprintf(w, " sub=%s", event.SubscriptionID)
	}
	fmt.Fprintln(w)

	if len(event.Relays) > 0 {
		fmt.Fprintf(w, "  Relays: %s\n", strings.Join(event.Relays, ", "))
	}

	switch {
	case event.Subscription != nil:
		fmt.Fprintf(w, "  Filters: %d\n", event.Subscription.Filters)
		if event.Subscription.Forced {
			fmt.Fprintln(w, "  Forced: yes")
		}
	case event.Batch != nil:
		fmt.Fprintf(w, "  Requests: %d\n", event.Batch.Requests)
		if event.Batch.Interval > 0 {
			fmt.Fprintf(w, "  Interval: %s\n", event.Batch.Interval)
		}
		if event.Batch.Filters > 0 {
			fmt.Fprintf(w, "  Filters: %d\n", event.Batch.Filters)
		}
	case event.Stream != nil:
		fmt.Fprintf(w, "  Filters: %d  Records: %d\n", event.Stream.Filters, event.Stream.Records)
	case event.Record != nil:
		fmt.Fprintf(w, "  Event: %s  Kind: %d\n", shortenID(event.Record.EventID), event.Record.Kind)
		if event.Record.PubKey != "" {
			fmt.Fprintf(w, "  Author: %s\n", shortenID(event.Record.PubKey))
		}
	case event.Purge != nil:
		if event.Purge.Retained {
			fmt.Fprintln(w, "  Retained: equivalent subscription still live")
		} else {
			fmt.Fprintf(w, "  Removed: %d\n", event.Purge.Removed)
		}
	case event.Error != nil:
		fmt.Fprintf(w, "  Layer: %s\n", event.Error.Layer.String())
		if event.Error.Op != "" {
			fmt.Fprintf(w, "  Op: %s\n", event.Error.Op)
		}
		fmt.Fprintf(w, "  Message: %s\n", event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(w, "  Context: %s\n", event.Error.Context)
		}
	}

	fmt.Fprintln(w) // Blank line between events
}

// typeLabel names the payload of an event.
func typeLabel(event log.Event) string {
	switch {
	case event.Subscription != nil:
		return "Subscription " + event.Subscription.Action.String()
	case event.Batch != nil:
		return "Batch " + event.Batch.Action.String()
	case event.Stream != nil:
		return "Stream " + event.Stream.State.String()
	case event.Record != nil:
		return "Record"
	case event.Purge != nil:
		return "Purge"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenID returns the first 8 characters of an identifier, or "-".
func shortenID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "pool":
		return log.LayerPool, nil
	case "transport":
		return log.LayerTransport, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be pool or transport)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "subscription":
		return log.CategorySubscription, nil
	case "batch":
		return log.CategoryBatch, nil
	case "stream":
		return log.CategoryStream, nil
	case "record":
		return log.CategoryRecord, nil
	case "purge":
		return log.CategoryPurge, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be subscription, batch, stream, record, purge or error)", s)
	}
}
