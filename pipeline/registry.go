package pipeline

import (
	"sort"

	"github.com/spoolworks/spool/log"
	"github.com/spoolworks/spool/metrics"
	"github.com/spoolworks/spool/record"
)

// Config controls the registry acceptance policy.
type Config struct {
	// DiscardInvalidNext enables strict sequencing: a fragment whose id does
	// not match the pipeline's tracked expectation is discarded outright.
	// When disabled, a mismatch does not block acceptance.
	DiscardInvalidNext bool
}

// Mode returns the config's mode label for metrics and summaries.
func (c Config) Mode() string {
	if c.DiscardInvalidNext {
		return "strict"
	}
	return "permissive"
}

// Disposition is the outcome of inserting one record.
type Disposition int

const (
	// Stored means the fragment was decoded and stored.
	Stored Disposition = iota
	// DecodeFailed means the payload was discarded but the record's
	// sequence and closure effects were still applied.
	DecodeFailed
	// RejectedClosed means the record targeted a closed pipeline.
	// No state changed.
	RejectedClosed
	// RejectedSequence means strict sequencing discarded the record.
	// No state changed, including the expectation.
	RejectedSequence
)

// String returns the disposition name for diagnostics.
func (d Disposition) String() string {
	switch d {
	case Stored:
		return "stored"
	case DecodeFailed:
		return "decode_failed"
	case RejectedClosed:
		return "rejected_closed"
	case RejectedSequence:
		return "rejected_sequence"
	default:
		return "unknown"
	}
}

// Result is one pipeline's drained output.
type Result struct {
	// ID is the pipeline id.
	ID uint8
	// Closed reports whether the pipeline saw its closing sentinel.
	Closed bool
	// Fragments are the stored fragments in non-decreasing id order.
	Fragments []Fragment
}

// Stats is a non-destructive registry summary.
type Stats struct {
	Pipelines       int
	ClosedPipelines int
	StoredFragments int
}

// Registry owns all pipelines and applies the acceptance policy per record.
// Pipelines are created lazily on first reference and never removed.
//
// Not safe for concurrent use: records are processed strictly one at a time
// in arrival order by a single ingestion loop.
type Registry struct {
	config    Config
	logger    *log.Logger
	collector *metrics.Collector
	sink      Sink

	pipelines map[uint8]*Pipeline
}

// NewRegistry creates a registry. collector and sink may be nil; logger must
// not be.
func NewRegistry(config Config, logger *log.Logger, collector *metrics.Collector, sink Sink) *Registry {
	return &Registry{
		config:    config,
		logger:    logger,
		collector: collector,
		sink:      sink,
		pipelines: make(map[uint8]*Pipeline),
	}
}

// Insert applies the acceptance policy to one parsed record.
//
// Policy order matters and is observable:
//  1. a closed pipeline rejects everything, with no state change;
//  2. strict sequencing rejects a mismatched fragment id, with no state
//     change — the expectation tracks accepted records only;
//  3. a decode failure discards the payload but still applies the record's
//     declared next id and closure, so a corrupt body cannot stall closure;
//  4. the decoded fragment is stored and, when a sink is configured,
//     appended to it.
//
// Never fails the run; every discard is a diagnostic.
func (r *Registry) Insert(rec record.Raw) Disposition {
	p, ok := r.pipelines[rec.PipelineID]
	if !ok {
		p = newPipeline(rec.PipelineID)
		r.pipelines[rec.PipelineID] = p
		r.collector.IncPipelinesOpened()
	}

	if p.closed {
		r.logger.Warn("record ignored, pipeline closed", map[string]any{
			"pipeline_id": rec.PipelineID,
			"fragment_id": rec.FragmentID,
		})
		r.collector.IncRejectedClosed()
		return RejectedClosed
	}

	if p.next != nil && rec.FragmentID != *p.next && r.config.DiscardInvalidNext {
		r.logger.Warn("record ignored, unexpected fragment id", map[string]any{
			"pipeline_id": rec.PipelineID,
			"fragment_id": rec.FragmentID,
			"expected_id": *p.next,
		})
		r.collector.IncRejectedSequence()
		return RejectedSequence
	}

	disposition := Stored
	body, err := record.Decode(rec.Encoding, rec.Payload)
	if err != nil {
		r.logger.Warn("record payload discarded, decode failed", map[string]any{
			"pipeline_id": rec.PipelineID,
			"fragment_id": rec.FragmentID,
			"encoding":    rec.Encoding,
			"error":       err.Error(),
		})
		r.collector.IncDecodeErrors()
		disposition = DecodeFailed
	}

	// The expectation tracks the declared next id regardless of whether the
	// payload decoded.
	p.next = rec.Next
	if rec.Next == nil {
		p.closed = true
		r.collector.IncPipelinesClosed()
		r.logger.Debug("pipeline closed", map[string]any{
			"pipeline_id": rec.PipelineID,
		})
	}

	if disposition != Stored {
		return disposition
	}

	p.store = append(p.store, Fragment{ID: rec.FragmentID, Body: body})
	r.collector.IncFragmentsStored()

	if r.sink != nil {
		frag := p.store[len(p.store)-1]
		if err := r.sink.Append(rec.PipelineID, frag); err != nil {
			r.logger.Error("journal append failed", map[string]any{
				"pipeline_id": rec.PipelineID,
				"fragment_id": rec.FragmentID,
				"error":       err.Error(),
			})
			r.collector.IncJournalWriteErrors()
		} else {
			r.collector.IncJournalWrites()
		}
	}

	return Stored
}

// Drain empties every pipeline store, returning results in ascending
// pipeline id order with each pipeline's fragments in non-decreasing
// fragment id order. Destructive: a second call returns empty stores.
func (r *Registry) Drain() []Result {
	ids := make([]int, 0, len(r.pipelines))
	for id := range r.pipelines {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		p := r.pipelines[uint8(id)]
		results = append(results, Result{ID: p.id, Closed: p.closed, Fragments: p.drain()})
	}
	return results
}

// Snapshot returns non-destructive registry counts.
// Separate from Drain: rendering is destructive, the summary is not.
func (r *Registry) Snapshot() Stats {
	stats := Stats{Pipelines: len(r.pipelines)}
	for _, p := range r.pipelines {
		if p.closed {
			stats.ClosedPipelines++
		}
		stats.StoredFragments += p.Len()
	}
	return stats
}

// Pipeline returns the pipeline for id, or nil if it was never referenced.
// Exposed for tests and the replay path.
func (r *Registry) Pipeline(id uint8) *Pipeline {
	return r.pipelines[id]
}

// Restore stores an already-decoded fragment directly, bypassing the
// acceptance policy. Used by replay to rebuild a registry from journal
// frames that were accepted in a previous run.
func (r *Registry) Restore(pipelineID uint8, frag Fragment) {
	p, ok := r.pipelines[pipelineID]
	if !ok {
		p = newPipeline(pipelineID)
		r.pipelines[pipelineID] = p
		r.collector.IncPipelinesOpened()
	}
	p.store = append(p.store, frag)
	r.collector.IncFragmentsStored()
}
