// Package metrics provides per-run metrics collection.
//
// The Collector accumulates counters during a single ingestion run. It is a
// leaf package with no internal dependencies. Counters are recorded live by
// the registry and the session; the Snapshot feeds the end-of-run summary and
// the adapter event.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all run counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Ingestion
	RecordsRead int64
	ParseErrors int64

	// Acceptance
	FragmentsStored  int64
	DecodeErrors     int64
	RejectedClosed   int64
	RejectedSequence int64

	// Pipelines
	PipelinesOpened int64
	PipelinesClosed int64

	// Journal
	JournalWrites      int64
	JournalWriteErrors int64

	// Dimensions (informational, set at construction)
	Mode  string
	RunID string
	Input string
}

// Discarded is the total number of records that contributed no fragment.
func (s Snapshot) Discarded() int64 {
	return s.ParseErrors + s.DecodeErrors + s.RejectedClosed + s.RejectedSequence
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe,
// so callers never need to guard against an absent collector.
type Collector struct {
	mu sync.Mutex

	recordsRead int64
	parseErrors int64

	fragmentsStored  int64
	decodeErrors     int64
	rejectedClosed   int64
	rejectedSequence int64

	pipelinesOpened int64
	pipelinesClosed int64

	journalWrites      int64
	journalWriteErrors int64

	mode  string
	runID string
	input string
}

// NewCollector creates a Collector with dimension labels.
// mode is "strict" or "permissive"; runID and input are informational.
func NewCollector(mode, runID, input string) *Collector {
	return &Collector{
		mode:  mode,
		runID: runID,
		input: input,
	}
}

// --- Ingestion ---

// IncRecordsRead records a non-blank input line handed to the parser.
func (c *Collector) IncRecordsRead() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.recordsRead++
	c.mu.Unlock()
}

// IncParseErrors records a line the parser could not decompose.
func (c *Collector) IncParseErrors() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.parseErrors++
	c.mu.Unlock()
}

// --- Acceptance ---

// IncFragmentsStored records a fragment accepted into a pipeline store.
func (c *Collector) IncFragmentsStored() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fragmentsStored++
	c.mu.Unlock()
}

// IncDecodeErrors records a record whose payload failed to decode.
func (c *Collector) IncDecodeErrors() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeErrors++
	c.mu.Unlock()
}

// IncRejectedClosed records a record discarded because its pipeline was closed.
func (c *Collector) IncRejectedClosed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rejectedClosed++
	c.mu.Unlock()
}

// IncRejectedSequence records a record discarded by strict sequencing.
func (c *Collector) IncRejectedSequence() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rejectedSequence++
	c.mu.Unlock()
}

// --- Pipelines ---

// IncPipelinesOpened records a pipeline created on first reference.
func (c *Collector) IncPipelinesOpened() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.pipelinesOpened++
	c.mu.Unlock()
}

// IncPipelinesClosed records a pipeline transitioning to its terminal state.
func (c *Collector) IncPipelinesClosed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.pipelinesClosed++
	c.mu.Unlock()
}

// --- Journal ---

// IncJournalWrites records a fragment frame appended to the journal.
func (c *Collector) IncJournalWrites() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.journalWrites++
	c.mu.Unlock()
}

// IncJournalWriteErrors records a failed journal append.
func (c *Collector) IncJournalWriteErrors() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.journalWriteErrors++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all counters.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		RecordsRead: c.recordsRead,
		ParseErrors: c.parseErrors,

		FragmentsStored:  c.fragmentsStored,
		DecodeErrors:     c.decodeErrors,
		RejectedClosed:   c.rejectedClosed,
		RejectedSequence: c.rejectedSequence,

		PipelinesOpened: c.pipelinesOpened,
		PipelinesClosed: c.pipelinesClosed,

		JournalWrites:      c.journalWrites,
		JournalWriteErrors: c.journalWriteErrors,

		Mode:  c.mode,
		RunID: c.runID,
		Input: c.input,
	}
}
