package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/relaymux/relaymux-go/pkg/filter"
	"github.com/relaymux/relaymux-go/pkg/pool"
)

// Default returns an empty configuration with pool defaults.
func Default() *Config {
	return &Config{
		BatchingInterval: pool.DefaultBatchingInterval,
		LogLevel:         "info",
	}
}

// Parse parses and validates a configuration from YAML bytes. Unset fields
// keep the values of Default.
func Parse(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}

	cfg := Default()
	if root.Kind == 0 {
		return cfg, nil
	}
	if err := root.Decode(cfg); err != nil {
		return nil, &LoadError{
			Message: "failed to decode configuration",
			Cause:   err,
		}
	}

	lines := subscriptionLines(&root)
	for i := range cfg.Subscriptions {
		if i < len(lines) {
			cfg.Subscriptions[i].line = lines[i]
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{
			File:    path,
			Message: err.Error(),
		}
	}

	return cfg, nil
}

// Validate checks the configuration. Every error is a *LoadError.
func (c *Config) Validate() error {
	if c.BatchingInterval < 0 {
		return &LoadError{Message: "batching_interval must not be negative"}
	}
	if c.Timeout < 0 {
		return &LoadError{Message: "timeout must not be negative"}
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return &LoadError{Message: "invalid log_level", Cause: err}
	}

	seen := make(map[string]bool, len(c.Subscriptions))
	for i, s := range c.Subscriptions {
		if s.ID == "" {
			return &LoadError{Line: s.line, Message: fmt.Sprintf("subscription %d: id is required", i)}
		}
		if seen[s.ID] {
			return &LoadError{Line: s.line, Message: fmt.Sprintf("subscription %q: duplicate id", s.ID)}
		}
		seen[s.ID] = true

		if len(s.Filters) == 0 {
			return &LoadError{Line: s.line, Message: fmt.Sprintf("subscription %q: at least one filter is required", s.ID)}
		}
		if err := filter.ValidateAll(s.NostrFilters()); err != nil {
			return &LoadError{Line: s.line, Message: fmt.Sprintf("subscription %q", s.ID), Cause: err}
		}
		if s.BatchingInterval < 0 {
			return &LoadError{Line: s.line, Message: fmt.Sprintf("subscription %q: batching_interval must not be negative", s.ID)}
		}
		if len(s.Relays) == 0 && len(c.Relays) == 0 {
			return &LoadError{Line: s.line, Message: fmt.Sprintf("subscription %q: no relays", s.ID)}
		}
	}

	return nil
}

// ParseLogLevel maps a level name to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// SplitRelays parses a comma-separated relay list, dropping blanks.
func SplitRelays(s string) []string {
	var relays []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			relays = append(relays, r)
		}
	}
	return relays
}

// subscriptionLines returns the source line of each subscription entry.
func subscriptionLines(root *yaml.Node) []int {
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "subscriptions" {
			continue
		}
		list := doc.Content[i+1]
		if list.Kind != yaml.SequenceNode {
			return nil
		}
		lines := make([]int, len(list.Content))
		for j, item := range list.Content {
			lines[j] = item.Line
		}
		return lines
	}
	return nil
}
