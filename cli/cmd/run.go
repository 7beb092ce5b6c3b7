package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/spoolworks/spool/adapter"
	"github.com/spoolworks/spool/adapter/redis"
	"github.com/spoolworks/spool/adapter/webhook"
	"github.com/spoolworks/spool/cli/config"
	"github.com/spoolworks/spool/cli/render"
	"github.com/spoolworks/spool/journal"
	"github.com/spoolworks/spool/log"
	"github.com/spoolworks/spool/metrics"
	"github.com/spoolworks/spool/pipeline"
	"github.com/spoolworks/spool/runtime"
	"github.com/spoolworks/spool/types"
)

// RunCommand returns the run command: ingest a fragment record stream and
// print the reassembled pipelines.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Ingest a fragment stream and print reassembled pipelines",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Input file path (\"-\" for stdin)",
				Value:   "-",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Discard fragments whose id does not match the declared next id",
			},
			&cli.StringFlag{
				Name:  "journal",
				Usage: "Write accepted fragments to a journal file",
			},
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "Run summary adapter: redis or webhook",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Adapter endpoint URL",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis pub/sub channel (redis adapter only)",
			},
			FormatFlag,
			ConfigFlag,
			QuietFlag,
			RunIDFlag,
		},
		Action: runAction,
	}
}

// runOptions holds the merged flag and config file settings.
// Flags always win over config file values.
type runOptions struct {
	input   string
	format  string
	strict  bool
	journal string
	runID   string
	quiet   bool

	adapterType    string
	adapterURL     string
	adapterChannel string
	adapterHeaders map[string]string
	adapterTimeout time.Duration
	adapterRetries *int
}

// resolveRunOptions merges CLI flags over the config file.
func resolveRunOptions(c *cli.Context) (*runOptions, error) {
	cfg := &config.Config{}

	path := c.String("config")
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if _, err := os.Stat(defaultConfigPath); err == nil {
		loaded, err := config.Load(defaultConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	opts := &runOptions{
		input:          stringOr(c, "input", cfg.Input),
		format:         stringOr(c, "format", cfg.Format),
		journal:        stringOr(c, "journal", cfg.Journal),
		runID:          c.String("run-id"),
		quiet:          c.Bool("quiet"),
		adapterType:    stringOr(c, "adapter", cfg.Adapter.Type),
		adapterURL:     stringOr(c, "adapter-url", cfg.Adapter.URL),
		adapterChannel: stringOr(c, "adapter-channel", cfg.Adapter.Channel),
		adapterHeaders: cfg.Adapter.Headers,
		adapterTimeout: cfg.Adapter.Timeout.Duration,
		adapterRetries: cfg.Adapter.Retries,
	}

	opts.strict = cfg.Strict
	if c.IsSet("strict") {
		opts.strict = c.Bool("strict")
	}

	switch opts.adapterType {
	case "", "redis", "webhook":
	default:
		return nil, fmt.Errorf("invalid adapter: %q (must be redis or webhook)", opts.adapterType)
	}
	if opts.adapterType != "" && opts.adapterURL == "" {
		return nil, fmt.Errorf("adapter %q requires a URL", opts.adapterType)
	}

	return opts, nil
}

// stringOr returns the flag value when set, the config value otherwise.
func stringOr(c *cli.Context, name, configValue string) string {
	if c.IsSet(name) || configValue == "" {
		return c.String(name)
	}
	return configValue
}

func runAction(c *cli.Context) error {
	opts, err := resolveRunOptions(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("spool: %v", err), exitUsage)
	}

	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return cli.Exit(fmt.Sprintf("spool: %v", err), exitUsage)
	}

	if opts.runID == "" {
		opts.runID = uuid.NewString()
	}
	runMeta := &types.RunMeta{
		RunID: opts.runID,
		Input: inputName(opts.input),
	}
	logger := log.NewLogger(runMeta)

	policyConfig := pipeline.Config{DiscardInvalidNext: opts.strict}
	collector := metrics.NewCollector(policyConfig.Mode(), runMeta.RunID, runMeta.Input)

	var sink pipeline.Sink
	if opts.journal != "" {
		w, err := journal.Create(opts.journal, runMeta.RunID)
		if err != nil {
			return cli.Exit(fmt.Sprintf("spool: %v", err), exitUsage)
		}
		defer func() { _ = w.Close() }()
		sink = w
	}

	registry := pipeline.NewRegistry(policyConfig, logger, collector, sink)
	session := runtime.NewSession(registry, logger, collector)

	in, closeIn, err := openInput(opts.input)
	if err != nil {
		return cli.Exit(fmt.Sprintf("spool: %v", err), exitUsage)
	}
	defer closeIn()

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	if err := session.Ingest(ctx, in); err != nil {
		return cli.Exit(fmt.Sprintf("spool: run failed: %v", err), exitRunFailure)
	}

	stats := session.Stats()
	renderer := render.NewRendererWithWriter(format, os.Stdout)
	if err := renderer.Results(session.Results()); err != nil {
		return cli.Exit(fmt.Sprintf("spool: render failed: %v", err), exitRunFailure)
	}

	summary := buildSummary(runMeta, policyConfig.Mode(), collector.Snapshot(), stats, start)
	if !opts.quiet {
		logSummary(logger, summary)
	}
	publishSummary(logger, opts, summary)

	return nil
}

// signalContext returns a context canceled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

// inputName is the run metadata label for the input source.
func inputName(input string) string {
	if input == "" || input == "-" {
		return "stdin"
	}
	return input
}

// openInput opens the input source. "-" or empty means stdin.
func openInput(input string) (io.Reader, func(), error) {
	if input == "" || input == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// buildSummary assembles the end-of-run summary event.
func buildSummary(runMeta *types.RunMeta, mode string, snap metrics.Snapshot, stats pipeline.Stats, start time.Time) *adapter.RunSummaryEvent {
	return &adapter.RunSummaryEvent{
		Version:          types.Version,
		EventType:        "run_summary",
		RunID:            runMeta.RunID,
		Input:            runMeta.Input,
		Mode:             mode,
		Pipelines:        stats.Pipelines,
		ClosedPipelines:  stats.ClosedPipelines,
		FragmentsStored:  snap.FragmentsStored,
		RecordsRead:      snap.RecordsRead,
		RecordsDiscarded: snap.Discarded(),
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		DurationMs:       time.Since(start).Milliseconds(),
	}
}

// logSummary emits the run summary as a structured diagnostic.
// Summaries go to stderr with the other diagnostics; stdout carries only
// the rendered pipelines.
func logSummary(logger *log.Logger, summary *adapter.RunSummaryEvent) {
	logger.Info("run complete", map[string]any{
		"mode":              summary.Mode,
		"pipelines":         summary.Pipelines,
		"closed_pipelines":  summary.ClosedPipelines,
		"fragments_stored":  summary.FragmentsStored,
		"records_read":      summary.RecordsRead,
		"records_discarded": summary.RecordsDiscarded,
		"duration_ms":       summary.DurationMs,
	})
}

// publishSummary sends the summary through the configured adapter, if any.
// Publish failures are diagnostics, never run failures.
func publishSummary(logger *log.Logger, opts *runOptions, summary *adapter.RunSummaryEvent) {
	if opts.adapterType == "" {
		return
	}

	a, err := buildAdapter(opts)
	if err != nil {
		logger.Error("adapter setup failed", map[string]any{
			"adapter": opts.adapterType,
			"error":   err.Error(),
		})
		return
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Publish(ctx, summary); err != nil {
		logger.Error("summary publish failed", map[string]any{
			"adapter": opts.adapterType,
			"error":   err.Error(),
		})
		return
	}
	logger.Debug("summary published", map[string]any{
		"adapter": opts.adapterType,
	})
}

// buildAdapter constructs the configured run-notification adapter.
func buildAdapter(opts *runOptions) (adapter.Adapter, error) {
	switch opts.adapterType {
	case "redis":
		retries := redis.DefaultRetries
		if opts.adapterRetries != nil {
			retries = *opts.adapterRetries
		}
		return redis.New(redis.Config{
			URL:     opts.adapterURL,
			Channel: opts.adapterChannel,
			Timeout: opts.adapterTimeout,
			Retries: retries,
		})
	case "webhook":
		retries := webhook.DefaultRetries
		if opts.adapterRetries != nil {
			retries = *opts.adapterRetries
		}
		return webhook.New(webhook.Config{
			URL:     opts.adapterURL,
			Headers: opts.adapterHeaders,
			Timeout: opts.adapterTimeout,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter: %s", opts.adapterType)
	}
}
