// Command relaymux-log views and analyzes relaymux protocol capture files.
//
// Capture files are written by relaymux with the -protocol-log flag.
//
// Usage:
//
//	relaymux-log <command> [flags] <file.rlog>
//
// Commands:
//
//	view     View events in human-readable format
//	export   Export events to JSONL or CSV
//	stats    Show statistics about batches and streams
//
// Examples:
//
//	# View only batch events
//	relaymux-log view -category batch session.rlog
//
//	# Follow one subscription
//	relaymux-log view -sub-id notes session.rlog
//
//	# Export to CSV
//	relaymux-log export -format csv -o session.csv session.rlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/relaymux/relaymux-go/cmd/relaymux-log/commands"
	"github.com/relaymux/relaymux-go/pkg/log"
)

const usage = `relaymux-log - relaymux Protocol Log Analyzer

Usage:
  relaymux-log <command> [flags] <file.rlog>

Commands:
  view     View events in human-readable format
  export   Export events to JSONL or CSV
  stats    Show statistics about batches and streams

Use "relaymux-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `relaymux-log view - View events in human-readable format

Usage:
  relaymux-log view [flags] <file.rlog>

Flags:
`)
		fs.PrintDefaults()
	}

	layer := fs.String("layer", "", "Filter by layer (pool, transport)")
	category := fs.String("category", "", "Filter by category (subscription, batch, stream, record, purge, error)")
	subID := fs.String("sub-id", "", "Filter by subscription ID")
	streamID := fs.String("stream-id", "", "Filter by stream ID")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	path := requirePath(fs)

	filter := log.Filter{
		SubscriptionID: *subID,
		StreamID:       *streamID,
	}

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Layer = &l
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `relaymux-log export - Export events to JSONL or CSV

Usage:
  relaymux-log export [flags] <file.rlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	path := requirePath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `relaymux-log stats - Show statistics about batches and streams

Usage:
  relaymux-log stats <file.rlog>
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}
