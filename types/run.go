// Package types holds leaf types shared across spool packages.
package types

// RunMeta identifies a single ingestion run.
// Every log line, journal frame, and adapter event carries the run id.
type RunMeta struct {
	// RunID uniquely identifies the run. Generated when not supplied.
	RunID string
	// Input names the record source ("stdin" or a file path).
	Input string
}
