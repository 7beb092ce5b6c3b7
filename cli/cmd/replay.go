package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/spoolworks/spool/cli/render"
	"github.com/spoolworks/spool/journal"
	"github.com/spoolworks/spool/log"
	"github.com/spoolworks/spool/metrics"
	"github.com/spoolworks/spool/pipeline"
	"github.com/spoolworks/spool/runtime"
	"github.com/spoolworks/spool/types"
)

// ReplayCommand returns the replay command: re-render a previous run from
// its journal without re-applying acceptance policy.
func ReplayCommand() *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "Re-render a run from its fragment journal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "journal",
				Usage:    "Journal file to replay",
				Required: true,
			},
			FormatFlag,
			QuietFlag,
			RunIDFlag,
		},
		Action: replayAction,
	}
}

func replayAction(c *cli.Context) error {
	format, err := render.ParseFormat(c.String("format"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("spool: %v", err), exitUsage)
	}

	runID := c.String("run-id")
	if runID == "" {
		runID = uuid.NewString()
	}
	path := c.String("journal")
	runMeta := &types.RunMeta{RunID: runID, Input: path}
	logger := log.NewLogger(runMeta)

	// Replay bypasses acceptance policy; the config is inert.
	policyConfig := pipeline.Config{}
	collector := metrics.NewCollector("replay", runMeta.RunID, runMeta.Input)
	registry := pipeline.NewRegistry(policyConfig, logger, collector, nil)
	session := runtime.NewSession(registry, logger, collector)

	reader, closer, err := journal.Open(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("spool: %v", err), exitUsage)
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	if err := session.Replay(ctx, reader); err != nil {
		return cli.Exit(fmt.Sprintf("spool: replay failed: %v", err), exitRunFailure)
	}

	stats := session.Stats()
	renderer := render.NewRendererWithWriter(format, os.Stdout)
	if err := renderer.Results(session.Results()); err != nil {
		return cli.Exit(fmt.Sprintf("spool: render failed: %v", err), exitRunFailure)
	}

	if !c.Bool("quiet") {
		logSummary(logger, buildSummary(runMeta, "replay", collector.Snapshot(), stats, start))
	}

	return nil
}
