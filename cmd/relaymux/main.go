// Command relaymux subscribes to nostr relays through a batching
// subscription pool.
//
// Subscriptions come from a YAML configuration file and, in interactive
// mode, from the command prompt. Requests arriving within the batching
// interval are merged into one relay subscription.
//
// Usage:
//
//	relaymux [flags]
//
// Flags:
//
//	-config string             Configuration file path
//	-relays string             Comma-separated default relays
//	-batching-interval dur     Default batch window (default 500ms)
//	-log-level string          Log level: debug, info, warn, error (default "info")
//	-protocol-log string       File path for protocol event logging (CBOR format)
//	-interactive               Enable interactive command mode
//	-timeout dur               Exit after this long (0 waits for a signal)
//
// Examples:
//
//	# Run the subscriptions of a config file for 30 seconds
//	relaymux -config relaymux.yaml -timeout 30s
//
//	# Explore a relay interactively and capture pool events
//	relaymux -relays wss://relay.damus.io -interactive -protocol-log session.rlog
//
// Interactive Commands:
//
//	sub <id> <filter-json> [force] - Subscribe
//	cancel <id>                    - Cancel a subscription
//	list                           - List live subscriptions
//	records [cel-expr]             - Show stored records
//	status                         - Show pool status
//	quit                           - Exit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relaymux/relaymux-go/cmd/relaymux/interactive"
	"github.com/relaymux/relaymux-go/pkg/config"
	rlog "github.com/relaymux/relaymux-go/pkg/log"
	"github.com/relaymux/relaymux-go/pkg/pool"
	"github.com/relaymux/relaymux-go/pkg/transport"
)

// Flags holds the command-line flags.
type Flags struct {
	ConfigFile       string
	Relays           string
	BatchingInterval time.Duration
	LogLevel         string
	ProtocolLog      string
	Interactive      bool
	Timeout          time.Duration
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.Relays, "relays", "", "Comma-separated default relays")
	flag.DurationVar(&flags.BatchingInterval, "batching-interval", pool.DefaultBatchingInterval, "Default batch window")
	flag.StringVar(&flags.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.ProtocolLog, "protocol-log", "", "File path for protocol event logging (CBOR format)")
	flag.BoolVar(&flags.Interactive, "interactive", false, "Enable interactive command mode")
	flag.DurationVar(&flags.Timeout, "timeout", 0, "Exit after this long (0 waits for a signal)")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	var logOut io.Writer = os.Stderr

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up protocol logging if requested
	var fileLogger *rlog.FileLogger
	if cfg.ProtocolLog != "" {
		fileLogger, err = rlog.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to create protocol logger: %v", err)
		}
		log.Printf("Protocol logging to: %s", cfg.ProtocolLog)
	}

	tr := transport.NewRelayTransport(ctx, transport.RelayTransportConfig{Label: "relaymux"})

	var shell *interactive.Shell
	if flags.Interactive {
		shell, err = interactive.New(cfg.Relays)
		if err != nil {
			log.Fatalf("Failed to create interactive shell: %v", err)
		}
		// Redirect log output through readline to avoid interfering with input
		logOut = shell.Stdout()
		log.SetOutput(logOut)
	}

	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	poolConfig := pool.DefaultConfig()
	poolConfig.Transport = tr
	poolConfig.DefaultBatchingInterval = cfg.BatchingInterval
	poolConfig.Logger = logger
	poolConfig.ProtocolLogger = protocolLogger(fileLogger, logger, level)

	p, err := pool.New(poolConfig)
	if err != nil {
		log.Fatalf("Failed to create pool: %v", err)
	}
	if shell != nil {
		shell.SetPool(p)
	}

	p.OnError(func(err error) {
		log.Printf("[ERROR] %v", err)
	})
	if shell == nil {
		p.Watch(func(c pool.Change) {
			if c.Kind != pool.ChangeAdded {
				return
			}
			for _, ev := range c.Records {
				fmt.Fprintln(logOut, interactive.FormatRecord(ev))
			}
		})
	}

	for _, sub := range cfg.Subscriptions {
		if err := p.NewSubscription(sub.Request(cfg.Relays), sub.ID); err != nil {
			log.Printf("Subscription %s rejected: %v", sub.ID, err)
			continue
		}
		log.Printf("Subscribed %s (%d filters)", sub.ID, len(sub.Filters))
	}

	if shell != nil {
		go shell.Run(ctx, cancel)
	}

	if cfg.Timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, cfg.Timeout)
		defer timeoutCancel()
	}

	// Wait for shutdown signal or context cancellation
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")

	if err := p.Close(); err != nil {
		log.Printf("Error closing pool: %v", err)
	}
	tr.Close()

	printSummary(logOut, p)

	if fileLogger != nil {
		if n := fileLogger.Dropped(); n > 0 {
			log.Printf("Warning: %d protocol events could not be written", n)
		}
		fileLogger.Close()
	}
}

// loadConfig reads the config file, if any, and applies flags set on the
// command line on top of it.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if flags.ConfigFile != "" {
		loaded, err := config.Load(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "relays":
			cfg.Relays = config.SplitRelays(flags.Relays)
		case "batching-interval":
			cfg.BatchingInterval = flags.BatchingInterval
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "protocol-log":
			cfg.ProtocolLog = flags.ProtocolLog
		case "timeout":
			cfg.Timeout = flags.Timeout
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// protocolLogger combines the capture file with console output at debug
// level.
func protocolLogger(file *rlog.FileLogger, logger *slog.Logger, level slog.Level) rlog.Logger {
	var loggers []rlog.Logger
	// Only append when non-nil to avoid typed-nil interface issue.
	if file != nil {
		loggers = append(loggers, file)
	}
	if level <= slog.LevelDebug {
		loggers = append(loggers, rlog.NewSlogAdapter(logger))
	}
	switch len(loggers) {
	case 0:
		return rlog.NoopLogger{}
	case 1:
		return loggers[0]
	default:
		return rlog.NewMultiLogger(loggers...)
	}
}

func printSummary(w io.Writer, p *pool.Pool) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records stored: %d\n", p.Records().Len())
	for _, id := range p.Subscriptions() {
		records, err := p.Matching(id)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  %-20s %d unique records\n", id, len(records))
	}
}
