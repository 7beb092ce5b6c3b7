package journal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/spoolworks/spool/pipeline"
)

// Writer appends fragment frames to a journal stream.
// Not safe for concurrent use; the single ingestion loop owns it.
type Writer struct {
	w     io.Writer
	runID string
}

// NewWriter creates a journal writer over w, stamping frames with runID.
func NewWriter(w io.Writer, runID string) *Writer {
	return &Writer{w: w, runID: runID}
}

// Create opens (truncating) a journal file at path and returns a writer over it.
func Create(path, runID string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create journal %q: %w", path, err)
	}
	return NewWriter(f, runID), nil
}

// Append writes one accepted fragment as a framed record.
// Implements pipeline.Sink.
func (j *Writer) Append(pipelineID uint8, frag pipeline.Fragment) error {
	payload, err := encodeFragment(&FragmentFrame{
		RunID:      j.runID,
		PipelineID: pipelineID,
		FragmentID: frag.ID,
		Body:       frag.Body,
	})
	if err != nil {
		return err
	}

	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(payload)))
	if _, err := j.w.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("write frame prefix: %w", err)
	}
	if _, err := j.w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// Close closes the underlying writer when it is an io.Closer.
func (j *Writer) Close() error {
	if c, ok := j.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Verify Writer implements the sink interface.
var _ pipeline.Sink = (*Writer)(nil)
