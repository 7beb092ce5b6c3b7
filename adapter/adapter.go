// Package adapter defines the run-notification boundary.
//
// Adapters publish an end-of-run summary to downstream systems once the
// reassembled output has been rendered. The session owns adapter lifecycle;
// users provide configuration only.
package adapter

import "context"

// RunSummaryEvent is the payload published when an ingestion run finishes.
type RunSummaryEvent struct {
	Version          string `json:"version"`
	EventType        string `json:"event_type"` // always "run_summary"
	RunID            string `json:"run_id"`
	Input            string `json:"input"`
	Mode             string `json:"mode"` // strict or permissive
	Pipelines        int    `json:"pipelines"`
	ClosedPipelines  int    `json:"closed_pipelines"`
	FragmentsStored  int64  `json:"fragments_stored"`
	RecordsRead      int64  `json:"records_read"`
	RecordsDiscarded int64  `json:"records_discarded"`
	Timestamp        string `json:"timestamp"` // ISO 8601
	DurationMs       int64  `json:"duration_ms"`
}

// Adapter publishes run summary events to a downstream system.
// Implementations must be safe for single-use per run.
type Adapter interface {
	// Publish sends a run summary event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *RunSummaryEvent) error

	// Close releases adapter resources.
	Close() error
}
