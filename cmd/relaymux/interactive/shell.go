// Package interactive provides the interactive command-line interface
// for relaymux.
package interactive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/nbd-wtf/go-nostr"

	"github.com/relaymux/relaymux-go/pkg/config"
	"github.com/relaymux/relaymux-go/pkg/pool"
	"github.com/relaymux/relaymux-go/pkg/query"
	"github.com/relaymux/relaymux-go/pkg/store"
)

// Pool is the part of *pool.Pool the shell drives.
type Pool interface {
	NewSubscription(req pool.Request, subID string) error
	Cancel(subID string) int
	Matching(subID string) ([]*nostr.Event, error)
	Records() store.View
	Subscriptions() []string
	State() pool.State
	Pending() int
	ActiveStreams() int
}

var _ Pool = (*pool.Pool)(nil)

// maxListed bounds the records printed by one command.
const maxListed = 50

// Shell handles interactive mode for relaymux.
type Shell struct {
	pool   Pool
	relays []string
	out    io.Writer
	rl     *readline.Instance
}

// New creates an interactive shell reading from the terminal. Requests
// created with sub go to relays unless changed with the relays command.
// The pool is attached with SetPool before Run, so loggers can be built on
// Stdout first.
func New(relays []string) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "relaymux> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	s := newShell(nil, relays, rl.Stdout())
	s.rl = rl
	return s, nil
}

// SetPool attaches the pool the commands operate on.
func (s *Shell) SetPool(p Pool) {
	s.pool = p
}

func newShell(p Pool, relays []string, out io.Writer) *Shell {
	return &Shell{
		pool:   p,
		relays: append([]string(nil), relays...),
		out:    out,
	}
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if quit := s.Execute(line); quit {
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns true when the shell should exit.
func (s *Shell) Execute(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "sub", "s":
		s.cmdSub(args)

	case "cancel", "c":
		s.cmdCancel(args)

	case "list", "ls":
		s.cmdList()

	case "records", "r":
		s.cmdRecords(strings.TrimSpace(strings.TrimPrefix(input, parts[0])))

	case "relays":
		s.cmdRelays(args)

	case "status":
		s.cmdStatus()

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}

	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Commands:
  sub <id> <filter-json> [force]  Subscribe; filter is an object or an array
  cancel <id>                     Cancel a subscription
  list                            List live subscriptions
  records [cel-expr]              Show stored records, optionally filtered
  relays [url...]                 Show or set relays for new subscriptions
  status                          Show pool status
  help                            Show this help
  quit                            Exit

Examples:
  sub notes {"kinds":[1],"limit":20}
  sub profile [{"kinds":[0],"authors":["<hex>"]}] force
  records kind == 1 && content.contains("nostr")`)
}

func (s *Shell) cmdSub(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: sub <id> <filter-json> [force]")
		return
	}

	id := args[0]
	rest := args[1:]
	force := false
	if strings.EqualFold(rest[len(rest)-1], "force") {
		force = true
		rest = rest[:len(rest)-1]
	}

	filters, err := parseFilters(strings.Join(rest, " "))
	if err != nil {
		fmt.Fprintf(s.out, "Invalid filter: %v\n", err)
		return
	}
	if len(s.relays) == 0 {
		fmt.Fprintln(s.out, "No relays configured (use: relays <url...>)")
		return
	}

	req := pool.Request{
		Filters: filters,
		Relays:  s.relays,
		Options: pool.Options{Force: force},
	}
	if err := s.pool.NewSubscription(req, id); err != nil {
		fmt.Fprintf(s.out, "Subscribe failed: %v\n", err)
		return
	}

	if force {
		fmt.Fprintf(s.out, "Subscribed %s (%d filters, forced)\n", id, len(filters))
	} else {
		fmt.Fprintf(s.out, "Subscribed %s (%d filters, batch %s, %d pending)\n",
			id, len(filters), s.pool.State(), s.pool.Pending())
	}
}

func (s *Shell) cmdCancel(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: cancel <id>")
		return
	}
	purged := s.pool.Cancel(args[0])
	fmt.Fprintf(s.out, "Cancelled %s (%d records purged)\n", args[0], purged)
}

func (s *Shell) cmdList() {
	ids := s.pool.Subscriptions()
	if len(ids) == 0 {
		fmt.Fprintln(s.out, "No live subscriptions")
		return
	}
	fmt.Fprintf(s.out, "Subscriptions (%d):\n", len(ids))
	for _, id := range ids {
		n := 0
		if records, err := s.pool.Matching(id); err == nil {
			n = len(records)
		}
		fmt.Fprintf(s.out, "  %-20s %d records\n", id, n)
	}
}

func (s *Shell) cmdRecords(expr string) {
	pred, err := query.Compile(expr)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid expression: %v\n", err)
		return
	}

	records := pred.Select(s.pool.Records().All())
	fmt.Fprintf(s.out, "%d records\n", len(records))
	for i, ev := range records {
		if i == maxListed {
			fmt.Fprintf(s.out, "  ... %d more\n", len(records)-maxListed)
			break
		}
		fmt.Fprintf(s.out, "  %s\n", FormatRecord(ev))
	}
}

func (s *Shell) cmdRelays(args []string) {
	if len(args) > 0 {
		s.relays = config.SplitRelays(strings.Join(args, ","))
	}
	if len(s.relays) == 0 {
		fmt.Fprintln(s.out, "No relays configured")
		return
	}
	fmt.Fprintln(s.out, "Relays:")
	for _, r := range s.relays {
		fmt.Fprintf(s.out, "  %s\n", r)
	}
}

func (s *Shell) cmdStatus() {
	fmt.Fprintln(s.out, "Pool Status:")
	fmt.Fprintf(s.out, "  State:          %s\n", s.pool.State())
	fmt.Fprintf(s.out, "  Pending:        %d\n", s.pool.Pending())
	fmt.Fprintf(s.out, "  Subscriptions:  %d\n", len(s.pool.Subscriptions()))
	fmt.Fprintf(s.out, "  Streams:        %d\n", s.pool.ActiveStreams())
	fmt.Fprintf(s.out, "  Records:        %d\n", s.pool.Records().Len())
}

// parseFilters accepts one filter object or an array of filters.
func parseFilters(s string) ([]nostr.Filter, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var filters []nostr.Filter
		if err := json.Unmarshal([]byte(s), &filters); err != nil {
			return nil, err
		}
		if len(filters) == 0 {
			return nil, errors.New("empty filter list")
		}
		return filters, nil
	}
	var f nostr.Filter
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		return nil, err
	}
	return []nostr.Filter{f}, nil
}

// FormatRecord renders a record on one line.
func FormatRecord(ev *nostr.Event) string {
	content := strings.Join(strings.Fields(ev.Content), " ")
	if len(content) > 60 {
		content = content[:57] + "..."
	}
	ts := time.Unix(int64(ev.CreatedAt), 0).UTC().Format(time.RFC3339)
	return fmt.Sprintf("%s kind=%-5d %s %s %q", short(ev.ID), ev.Kind, short(ev.PubKey), ts, content)
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
