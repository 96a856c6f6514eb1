package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaymux/relaymux-go/pkg/log"
)

const streamID = "0f8e2c4a-1111-4222-8333-444455556666"

func writeSampleLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session"+log.FileExtension)

	logger, err := log.NewFileLogger(path)
	require.NoError(t, err)

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Category: log.CategorySubscription, SubscriptionID: "notes",
			Subscription: &log.SubscriptionEvent{Action: log.SubscriptionRegistered, Filters: 1}},
		{Category: log.CategorySubscription, SubscriptionID: "dms",
			Subscription: &log.SubscriptionEvent{Action: log.SubscriptionRegistered, Filters: 2}},
		{Category: log.CategoryBatch,
			Batch: &log.BatchEvent{Action: log.BatchFlushed, Requests: 2, Filters: 3}},
		{Layer: log.LayerTransport, Category: log.CategoryStream, StreamID: streamID, Relays: []string{"wss://r.example"},
			Stream: &log.StreamEvent{State: log.StreamOpened, Filters: 3}},
		{Layer: log.LayerTransport, Category: log.CategoryRecord, StreamID: streamID,
			Record: &log.RecordEvent{EventID: "abcdef0123456789", Kind: 1}},
		{Layer: log.LayerTransport, Category: log.CategoryError, StreamID: streamID,
			Error: &log.ErrorEventData{Layer: log.LayerTransport, Message: "relay closed", Op: "stream"}},
		{Category: log.CategoryPurge, SubscriptionID: "notes",
			Purge: &log.PurgeEvent{Removed: 1}},
	}
	for i, e := range events {
		e.Timestamp = base.Add(time.Duration(i) * 100 * time.Millisecond)
		logger.Log(e)
	}
	require.NoError(t, logger.Close())
	return path
}

func TestRunView(t *testing.T) {
	path := writeSampleLog(t)

	var buf bytes.Buffer
	require.NoError(t, RunView(path, log.Filter{}, &buf))

	out := buf.String()
	assert.Contains(t, out, "Subscription REGISTERED sub=notes")
	assert.Contains(t, out, "Batch FLUSHED")
	assert.Contains(t, out, "[stream:0f8e2c4a] TRANSPORT Stream OPENED")
	assert.Contains(t, out, "Relays: wss://r.example")
	assert.Contains(t, out, "Event: abcdef01  Kind: 1")
	assert.Contains(t, out, "Message: relay closed")
	assert.Contains(t, out, "Removed: 1")
}

func TestRunViewFiltered(t *testing.T) {
	path := writeSampleLog(t)

	category := log.CategorySubscription
	var buf bytes.Buffer
	require.NoError(t, RunView(path, log.Filter{Category: &category}, &buf))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "Subscription REGISTERED"))
	assert.NotContains(t, out, "Batch")

	buf.Reset()
	require.NoError(t, RunView(path, log.Filter{SubscriptionID: "notes"}, &buf))
	assert.Contains(t, buf.String(), "Purge")
	assert.NotContains(t, buf.String(), "sub=dms")
}

func TestRunViewMissingFile(t *testing.T) {
	err := RunView(filepath.Join(t.TempDir(), "none.rlog"), log.Filter{}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestCollectStats(t *testing.T) {
	stats, err := CollectStats(writeSampleLog(t))
	require.NoError(t, err)

	assert.Equal(t, 7, stats.TotalEvents)
	assert.Equal(t, 4, stats.EventsByLayer[log.LayerPool])
	assert.Equal(t, 3, stats.EventsByLayer[log.LayerTransport])
	assert.Len(t, stats.Subscriptions, 2)
	assert.Equal(t, 1, stats.BatchesFlushed)
	assert.Equal(t, 2, stats.RequestsBatched)
	assert.Equal(t, 1, stats.Errors)

	require.Contains(t, stats.Streams, streamID)
	st := stats.Streams[streamID]
	assert.Equal(t, 1, st.Records)
	assert.Equal(t, []string{"wss://r.example"}, st.Relays)
	assert.Equal(t, 200*time.Millisecond, st.LastSeen.Sub(st.FirstSeen))
}

func TestRunStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RunStats(writeSampleLog(t), &buf))

	out := buf.String()
	assert.Contains(t, out, "Total Events: 7")
	assert.Contains(t, out, "Subscriptions: 2")
	assert.Contains(t, out, "Batches:       1 (2 requests, 2.0 per batch)")
	assert.Contains(t, out, "[0f8e2c4a] batch, 1 records")
	assert.Contains(t, out, "Errors: 1")
}

func TestRunExportJSONL(t *testing.T) {
	path := writeSampleLog(t)
	out := filepath.Join(t.TempDir(), "out.jsonl")

	require.NoError(t, RunExport(path, "jsonl", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 7)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "notes", first["SubscriptionID"])
}

func TestRunExportCSV(t *testing.T) {
	path := writeSampleLog(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, RunExport(path, "csv", out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, "timestamp", rows[0][0])
	assert.Equal(t, "Record", rows[5][5])
	assert.Equal(t, "abcdef0123456789", rows[5][6])
	assert.Equal(t, "2", rows[3][7])
}

func TestRunExportUnknownFormat(t *testing.T) {
	err := RunExport(writeSampleLog(t), "xml", filepath.Join(t.TempDir(), "x"))
	assert.ErrorContains(t, err, "unknown format")
}

func TestParseFlags(t *testing.T) {
	l, err := ParseLayerFlag("Transport")
	require.NoError(t, err)
	assert.Equal(t, log.LayerTransport, l)

	_, err = ParseLayerFlag("wire")
	assert.Error(t, err)

	c, err := ParseCategoryFlag("purge")
	require.NoError(t, err)
	assert.Equal(t, log.CategoryPurge, c)

	_, err = ParseCategoryFlag("frame")
	assert.Error(t, err)
}
