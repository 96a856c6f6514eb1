package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/nbd-wtf/go-nostr"
)

// ErrInvalidExpression is returned when an expression fails to compile or
// does not evaluate to a bool.
var ErrInvalidExpression = errors.New("invalid expression")

// Predicate is a compiled expression. An empty expression matches every
// record.
type Predicate struct {
	expr    string
	prog    cel.Program
	enabled bool
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("pubkey", cel.StringType),
		cel.Variable("kind", cel.IntType),
		cel.Variable("created_at", cel.IntType),
		cel.Variable("content", cel.StringType),
		cel.Variable("tags", cel.ListType(cel.ListType(cel.StringType))),
		cel.Variable("tag", cel.MapType(cel.StringType, cel.ListType(cel.StringType))),
		cel.Variable("now", cel.IntType),
	)
}

// Compile parses and type-checks expr.
func Compile(expr string) (*Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &Predicate{}, nil
	}

	env, err := newEnv()
	if err != nil {
		return nil, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, iss.Err())
	}
	checked, iss := env.Check(ast)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, iss.Err())
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: result type %s, want bool", ErrInvalidExpression, checked.OutputType())
	}
	prog, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	return &Predicate{expr: expr, prog: prog, enabled: true}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Predicate {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source expression.
func (p *Predicate) String() string {
	return p.expr
}

// Match evaluates the predicate. Evaluation errors and nil events do not
// match.
func (p *Predicate) Match(event *nostr.Event) bool {
	if event == nil {
		return false
	}
	if !p.enabled {
		return true
	}

	out, _, err := p.prog.Eval(activation(event, time.Now()))
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// Select returns the events that match, in order.
func (p *Predicate) Select(events []*nostr.Event) []*nostr.Event {
	var out []*nostr.Event
	for _, e := range events {
		if p.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

func activation(event *nostr.Event, now time.Time) map[string]any {
	tags := make([][]string, 0, len(event.Tags))
	byName := make(map[string][]string)
	for _, t := range event.Tags {
		tags = append(tags, []string(t))
		if len(t) >= 2 {
			byName[t[0]] = append(byName[t[0]], t[1])
		}
	}

	return map[string]any{
		"id":         event.ID,
		"pubkey":     event.PubKey,
		"kind":       int64(event.Kind),
		"created_at": int64(event.CreatedAt),
		"content":    event.Content,
		"tags":       tags,
		"tag":        byName,
		"now":        now.Unix(),
	}
}
