// Package cmd provides CLI commands for the spool binary.
package cmd

import "github.com/urfave/cli/v2"

// Exit codes.
const (
	exitSuccess    = 0
	exitRunFailure = 1
	exitUsage      = 2
)

// defaultConfigPath is loaded when present and --config is not given.
const defaultConfigPath = "spool.yaml"

// Shared flags.
var (
	// FormatFlag selects output format: text, json, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, json, yaml",
	}

	// ConfigFlag points at a spool.yaml config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file (default: spool.yaml if present)",
	}

	// QuietFlag suppresses the end-of-run summary log.
	QuietFlag = &cli.BoolFlag{
		Name:  "quiet",
		Usage: "Suppress run summary output",
	}

	// RunIDFlag overrides the generated run id.
	RunIDFlag = &cli.StringFlag{
		Name:  "run-id",
		Usage: "Run ID (default: generated UUID)",
	}
)
