package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/relaymux/relaymux-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByLayer    map[log.Layer]int
	EventsByCategory map[log.Category]int
	Streams          map[string]*StreamStats
	Subscriptions    map[string]bool
	BatchesFlushed   int
	RequestsBatched  int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// StreamStats holds statistics for a single network subscription.
type StreamStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Records   int
	Forced    bool
	Relays    []string
}

// CollectStats reads the log file and aggregates its events.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:    make(map[log.Layer]int),
		EventsByCategory: make(map[log.Category]int),
		Streams:          make(map[string]*StreamStats),
		Subscriptions:    make(map[string]bool),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.Subscription != nil && event.Subscription.Action == log.SubscriptionRegistered {
			stats.Subscriptions[event.SubscriptionID] = true
		}
		if event.Batch != nil && event.Batch.Action == log.BatchFlushed {
			stats.BatchesFlushed++
			stats.RequestsBatched += event.Batch.Requests
		}

		if event.StreamID != "" {
			st, ok := stats.Streams[event.StreamID]
			if !ok {
				st = &StreamStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
				stats.Streams[event.StreamID] = st
			}
			if event.Timestamp.After(st.LastSeen) {
				st.LastSeen = event.Timestamp
			}
			if len(st.Relays) == 0 && len(event.Relays) > 0 {
				st.Relays = event.Relays
			}
			if event.Stream != nil && event.Stream.Forced {
				st.Forced = true
			}
			if event.Record != nil {
				st.Records++
			}
		}

		if event.Error != nil {
			stats.Errors++
		}
	}

	return stats, nil
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== relaymux Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerPool, log.LayerTransport} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{
		log.CategorySubscription, log.CategoryBatch, log.CategoryStream,
		log.CategoryRecord, log.CategoryPurge, log.CategoryError,
	} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Subscriptions: %d\n", len(stats.Subscriptions))
	if stats.BatchesFlushed > 0 {
		fmt.Fprintf(w, "Batches:       %d (%d requests, %.1f per batch)\n",
			stats.BatchesFlushed, stats.RequestsBatched,
			float64(stats.RequestsBatched)/float64(stats.BatchesFlushed))
	}

	fmt.Fprintf(w, "Streams:       %d\n", len(stats.Streams))
	if len(stats.Streams) > 0 {
		type streamInfo struct {
			id    string
			stats *StreamStats
		}
		streams := make([]streamInfo, 0, len(stats.Streams))
		for id, st := range stats.Streams {
			streams = append(streams, streamInfo{id, st})
		}
		sort.Slice(streams, func(i, j int) bool {
			return streams[i].stats.FirstSeen.Before(streams[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range streams {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			kind := "batch"
			if s.stats.Forced {
				kind = "forced"
			}
			fmt.Fprintf(w, "  [%s] %s, %d records, duration %s\n", shortenID(s.id), kind, s.stats.Records, duration)
			for _, r := range s.stats.Relays {
				fmt.Fprintf(w, "           %s\n", r)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
