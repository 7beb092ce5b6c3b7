// Package runtime drives a single resequencing run: it reads fragment
// records line by line, feeds them through the pipeline registry's
// acceptance policy, and exposes the reassembled results.
package runtime

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spoolworks/spool/journal"
	"github.com/spoolworks/spool/log"
	"github.com/spoolworks/spool/metrics"
	"github.com/spoolworks/spool/pipeline"
	"github.com/spoolworks/spool/record"
)

// maxLineSize bounds a single input line (1 MiB). Payloads are tokens on a
// line, so anything larger indicates a runaway input.
const maxLineSize = 1024 * 1024

// SessionErrorKind classifies session errors for outcome determination.
type SessionErrorKind int

const (
	// SessionErrorRead indicates an input read failure.
	SessionErrorRead SessionErrorKind = iota
	// SessionErrorJournal indicates a journal frame failure during replay.
	SessionErrorJournal
	// SessionErrorCanceled indicates context cancellation.
	SessionErrorCanceled
)

// SessionError classifies a fatal session error. Malformed records are never
// fatal; they surface as diagnostics and counters instead.
type SessionError struct {
	Kind SessionErrorKind
	Err  error
}

func (e *SessionError) Error() string {
	return e.Err.Error()
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// IsCanceledError returns true if the error is due to context cancellation.
func IsCanceledError(err error) bool {
	var sessErr *SessionError
	if errors.As(err, &sessErr) {
		return sessErr.Kind == SessionErrorCanceled
	}
	return false
}

// Session owns one run's ingestion loop over a fragment record stream.
//
// Input handling:
//   - Records are processed strictly in arrival order
//   - A blank line or EOF terminates ingestion cleanly
//   - Unparseable lines are skipped with a diagnostic; the run continues
type Session struct {
	registry    *pipeline.Registry
	logger      *log.Logger
	collector   *metrics.Collector
	recordsRead int64
}

// NewSession creates a session over an existing registry.
func NewSession(registry *pipeline.Registry, logger *log.Logger, collector *metrics.Collector) *Session {
	return &Session{
		registry:  registry,
		logger:    logger,
		collector: collector,
	}
}

// Ingest runs the ingestion loop until a blank line, EOF, or fatal error.
// Returns:
//   - nil: input ended cleanly (blank line or EOF)
//   - *SessionError with Kind=SessionErrorRead: input read failure
//   - *SessionError with Kind=SessionErrorCanceled: context canceled
func (s *Session) Ingest(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return &SessionError{
				Kind: SessionErrorCanceled,
				Err:  ctx.Err(),
			}
		default:
		}

		line := scanner.Text()
		if line == "" {
			// Blank line is the explicit end-of-input marker.
			s.logger.Debug("blank line, ingestion complete", nil)
			return nil
		}

		s.recordsRead++
		s.collector.IncRecordsRead()

		rec, err := record.Parse(line)
		if err != nil {
			s.logger.Warn("record skipped, parse failed", map[string]any{
				"line":  line,
				"error": err.Error(),
			})
			s.collector.IncParseErrors()
			continue
		}

		s.registry.Insert(rec)
	}

	if err := scanner.Err(); err != nil {
		s.logger.Error("input read failed", map[string]any{
			"error": err.Error(),
		})
		return &SessionError{
			Kind: SessionErrorRead,
			Err:  fmt.Errorf("read input: %w", err),
		}
	}

	s.logger.Debug("input exhausted, ingestion complete", nil)
	return nil
}

// Replay restores fragments from a journal stream, bypassing the acceptance
// policy: the frames were accepted by a previous run.
// Returns:
//   - nil: journal ended cleanly
//   - *SessionError with Kind=SessionErrorJournal: corrupt or truncated frame
//   - *SessionError with Kind=SessionErrorCanceled: context canceled
func (s *Session) Replay(ctx context.Context, r *journal.Reader) error {
	for {
		select {
		case <-ctx.Done():
			return &SessionError{
				Kind: SessionErrorCanceled,
				Err:  ctx.Err(),
			}
		default:
		}

		frame, err := r.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.logger.Error("journal frame failed", map[string]any{
				"error": err.Error(),
			})
			return &SessionError{
				Kind: SessionErrorJournal,
				Err:  fmt.Errorf("replay journal: %w", err),
			}
		}

		s.recordsRead++
		s.collector.IncRecordsRead()
		s.registry.Restore(frame.PipelineID, pipeline.Fragment{
			ID:   frame.FragmentID,
			Body: frame.Body,
		})
	}
}

// Results drains the registry, returning reassembled pipelines in ascending
// id order. Destructive; call once, after ingestion.
func (s *Session) Results() []pipeline.Result {
	return s.registry.Drain()
}

// Stats returns a non-destructive registry summary. Valid only before
// Results has drained the stores.
func (s *Session) Stats() pipeline.Stats {
	return s.registry.Snapshot()
}

// RecordsRead returns the number of non-blank records consumed.
func (s *Session) RecordsRead() int64 {
	return s.recordsRead
}
