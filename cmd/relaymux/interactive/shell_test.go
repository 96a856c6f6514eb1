package interactive

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaymux/relaymux-go/pkg/filter"
	"github.com/relaymux/relaymux-go/pkg/pool"
	"github.com/relaymux/relaymux-go/pkg/registry"
	"github.com/relaymux/relaymux-go/pkg/store"
)

// fakePool records requests and serves a fixed store.
type fakePool struct {
	requests map[string]pool.Request
	order    []string
	records  *store.Store

	// onCancel runs inside Cancel, standing in for records that arrive
	// from live streams meanwhile.
	onCancel func()
}

func newFakePool() *fakePool {
	return &fakePool{requests: make(map[string]pool.Request), records: store.New()}
}

func (f *fakePool) NewSubscription(req pool.Request, subID string) error {
	if err := filter.ValidateAll(req.Filters); err != nil {
		return err
	}
	if _, ok := f.requests[subID]; ok {
		return registry.ErrDuplicateSubscription
	}
	f.requests[subID] = req
	f.order = append(f.order, subID)
	return nil
}

func (f *fakePool) Cancel(subID string) int {
	req, ok := f.requests[subID]
	if !ok {
		return 0
	}
	removed := f.records.Purge(req.Filters)
	delete(f.requests, subID)
	if f.onCancel != nil {
		f.onCancel()
	}
	return len(removed)
}

func (f *fakePool) Matching(subID string) ([]*nostr.Event, error) {
	req, ok := f.requests[subID]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return f.records.Unique(req.Filters...), nil
}

func (f *fakePool) Records() store.View { return f.records }

func (f *fakePool) Subscriptions() []string {
	var ids []string
	for _, id := range f.order {
		if _, ok := f.requests[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (f *fakePool) State() pool.State {
	if len(f.requests) > 0 {
		return pool.StateBatching
	}
	return pool.StateIdle
}

func (f *fakePool) Pending() int       { return len(f.requests) }
func (f *fakePool) ActiveStreams() int { return 0 }

func newTestShell() (*Shell, *fakePool, *bytes.Buffer) {
	p := newFakePool()
	var buf bytes.Buffer
	return newShell(p, []string{"wss://a.example"}, &buf), p, &buf
}

func TestSubCommand(t *testing.T) {
	s, p, out := newTestShell()

	assert.False(t, s.Execute(`sub notes {"kinds": [1], "limit": 20}`))
	require.Contains(t, p.requests, "notes")

	req := p.requests["notes"]
	assert.Equal(t, []int{1}, req.Filters[0].Kinds)
	assert.Equal(t, 20, req.Filters[0].Limit)
	assert.Equal(t, []string{"wss://a.example"}, req.Relays)
	assert.False(t, req.Options.Force)
	assert.Contains(t, out.String(), "Subscribed notes (1 filters, batch BATCHING, 1 pending)")
}

func TestSubCommandForcedArray(t *testing.T) {
	s, p, out := newTestShell()

	s.Execute(`sub profile [{"kinds":[0]},{"kinds":[3]}] FORCE`)
	require.Contains(t, p.requests, "profile")
	assert.True(t, p.requests["profile"].Options.Force)
	assert.Len(t, p.requests["profile"].Filters, 2)
	assert.Contains(t, out.String(), "forced")
}

func TestSubCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"usage", "sub onlyid", "Usage: sub"},
		{"bad json", "sub x {kinds", "Invalid filter"},
		{"empty array", "sub x []", "Invalid filter"},
		{"invalid filter", `sub x {"authors":["nothex"]}`, "Subscribe failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p, out := newTestShell()
			s.Execute(tt.line)
			assert.Contains(t, out.String(), tt.want)
			assert.Empty(t, p.requests)
		})
	}
}

func TestSubCommandDuplicate(t *testing.T) {
	s, _, out := newTestShell()
	s.Execute(`sub a {"kinds":[1]}`)
	s.Execute(`sub a {"kinds":[1]}`)
	assert.Contains(t, out.String(), "subscription already registered")
}

func TestSubRequiresRelays(t *testing.T) {
	p := newFakePool()
	var out bytes.Buffer
	s := newShell(p, nil, &out)

	s.Execute(`sub a {"kinds":[1]}`)
	assert.Contains(t, out.String(), "No relays configured")
	assert.Empty(t, p.requests)

	out.Reset()
	s.Execute("relays wss://x.example wss://y.example")
	assert.Contains(t, out.String(), "wss://y.example")
	s.Execute(`sub a {"kinds":[1]}`)
	assert.Equal(t, []string{"wss://x.example", "wss://y.example"}, p.requests["a"].Relays)
}

func TestListCancelAndRecords(t *testing.T) {
	s, p, out := newTestShell()

	s.Execute(`sub notes {"kinds":[1]}`)
	p.records.Add(
		&nostr.Event{ID: "1111111111", Kind: 1, PubKey: "aaaa", Content: "hello nostr"},
		&nostr.Event{ID: "2222222222", Kind: 7, PubKey: "bbbb", Content: "+"},
	)

	out.Reset()
	s.Execute("list")
	assert.Contains(t, out.String(), "Subscriptions (1):")
	assert.Regexp(t, `notes\s+1 records`, out.String())

	out.Reset()
	s.Execute("records")
	assert.Contains(t, out.String(), "2 records")

	out.Reset()
	s.Execute(`records kind == 1 && content.contains("nostr")`)
	assert.Contains(t, out.String(), "1 records")
	assert.Contains(t, out.String(), "11111111 kind=1")

	out.Reset()
	s.Execute("records kind ==")
	assert.Contains(t, out.String(), "Invalid expression")

	out.Reset()
	s.Execute("cancel notes")
	assert.Contains(t, out.String(), "Cancelled notes (1 records purged)")

	out.Reset()
	s.Execute("list")
	assert.Contains(t, out.String(), "No live subscriptions")
}

func TestCancelReportsPurgedCount(t *testing.T) {
	s, p, out := newTestShell()

	s.Execute(`sub notes {"kinds":[1]}`)
	p.records.Add(&nostr.Event{ID: "1111111111", Kind: 1, PubKey: "aaaa"})
	p.onCancel = func() {
		p.records.Add(
			&nostr.Event{ID: "3333333333", Kind: 7, PubKey: "cccc"},
			&nostr.Event{ID: "4444444444", Kind: 7, PubKey: "dddd"},
		)
	}

	out.Reset()
	s.Execute("cancel notes")
	assert.Contains(t, out.String(), "Cancelled notes (1 records purged)")
	assert.Equal(t, 2, p.records.Len())

	out.Reset()
	s.Execute("cancel notes")
	assert.Contains(t, out.String(), "Cancelled notes (0 records purged)")
}

func TestStatusHelpAndQuit(t *testing.T) {
	s, _, out := newTestShell()

	s.Execute("status")
	assert.Contains(t, out.String(), "State:          IDLE")

	out.Reset()
	s.Execute("help")
	assert.Contains(t, out.String(), "records [cel-expr]")

	out.Reset()
	s.Execute("bogus")
	assert.Contains(t, out.String(), "Unknown command: bogus")

	assert.False(t, s.Execute("   "))
	assert.True(t, s.Execute("quit"))
}

func TestFormatRecord(t *testing.T) {
	ev := &nostr.Event{
		ID:        strings.Repeat("f", 64),
		PubKey:    strings.Repeat("e", 64),
		Kind:      1,
		CreatedAt: 0,
		Content:   strings.Repeat("word ", 30),
	}
	got := FormatRecord(ev)
	assert.True(t, strings.HasPrefix(got, "ffffffff kind=1     eeeeeeee 1970-01-01T00:00:00Z"))
	assert.Contains(t, got, `..."`)
}
