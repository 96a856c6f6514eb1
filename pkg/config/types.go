package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"gopkg.in/yaml.v3"

	"github.com/relaymux/relaymux-go/pkg/pool"
)

// Config is the top-level configuration file.
type Config struct {
	// Relays is the default relay set for subscriptions without their own.
	Relays []string `yaml:"relays"`

	// BatchingInterval is the pool default batch window.
	BatchingInterval time.Duration `yaml:"batching_interval"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// ProtocolLog is the path of a protocol capture file, if any.
	ProtocolLog string `yaml:"protocol_log"`

	// Timeout bounds a non-interactive run. Zero runs until interrupted.
	Timeout time.Duration `yaml:"timeout"`

	// Subscriptions are submitted in order at startup.
	Subscriptions []Subscription `yaml:"subscriptions"`
}

// Subscription is a named subscription request.
type Subscription struct {
	ID               string        `yaml:"id"`
	Filters          []FilterSpec  `yaml:"filters"`
	Relays           []string      `yaml:"relays"`
	Force            bool          `yaml:"force"`
	BatchingInterval time.Duration `yaml:"batching_interval"`

	// line is the position in the source file, for error reports.
	line int
}

// FilterSpec is the YAML form of a filter.
type FilterSpec struct {
	IDs     []string            `yaml:"ids"`
	Kinds   []int               `yaml:"kinds"`
	Authors []string            `yaml:"authors"`
	Tags    map[string][]string `yaml:"tags"`
	Since   *Timestamp          `yaml:"since"`
	Until   *Timestamp          `yaml:"until"`
	Limit   int                 `yaml:"limit"`
	Search  string              `yaml:"search"`
}

// Filter converts the YAML filter to a nostr filter.
func (f FilterSpec) Filter() nostr.Filter {
	out := nostr.Filter{
		IDs:     f.IDs,
		Kinds:   f.Kinds,
		Authors: f.Authors,
		Limit:   f.Limit,
		Search:  f.Search,
	}
	if len(f.Tags) > 0 {
		out.Tags = make(nostr.TagMap, len(f.Tags))
		for k, v := range f.Tags {
			out.Tags[k] = v
		}
	}
	if f.Since != nil {
		ts := nostr.Timestamp(*f.Since)
		out.Since = &ts
	}
	if f.Until != nil {
		ts := nostr.Timestamp(*f.Until)
		out.Until = &ts
	}
	return out
}

// NostrFilters converts every filter of the subscription.
func (s Subscription) NostrFilters() []nostr.Filter {
	out := make([]nostr.Filter, len(s.Filters))
	for i, f := range s.Filters {
		out[i] = f.Filter()
	}
	return out
}

// Request builds the pool request, using defaultRelays when the
// subscription names none.
func (s Subscription) Request(defaultRelays []string) pool.Request {
	relays := s.Relays
	if len(relays) == 0 {
		relays = defaultRelays
	}
	return pool.Request{
		Filters: s.NostrFilters(),
		Relays:  relays,
		Options: pool.Options{
			Force:            s.Force,
			BatchingInterval: s.BatchingInterval,
		},
	}
}

// Timestamp is a unix timestamp that decodes from an integer or an
// RFC 3339 string.
type Timestamp int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Timestamp) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timestamp must be a scalar", node.Line)
	}
	if n, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
		*t = Timestamp(n)
		return nil
	}
	ts, err := time.Parse(time.RFC3339, node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid timestamp %q", node.Line, node.Value)
	}
	*t = Timestamp(ts.Unix())
	return nil
}

// LoadError provides details about a configuration loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Line is the line number where the error occurred (0 if unknown).
	Line int

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	switch {
	case e.File != "" && e.Line > 0:
		return e.File + ":" + strconv.Itoa(e.Line) + ": " + msg
	case e.File != "":
		return e.File + ": " + msg
	case e.Line > 0:
		return "line " + strconv.Itoa(e.Line) + ": " + msg
	default:
		return msg
	}
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
