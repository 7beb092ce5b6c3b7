// Package journal persists accepted fragments as length-prefixed msgpack
// frames. A run appends one frame per stored fragment; replay reads the
// frames back and re-renders the run without re-applying acceptance policy.
package journal

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum frame size (16 MiB), including length prefix.
	MaxFrameSize = 16 * 1024 * 1024
	// MaxPayloadSize is the maximum payload size (MaxFrameSize - 4 bytes).
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// FragmentFrame is the journal record for one accepted fragment.
type FragmentFrame struct {
	RunID      string `msgpack:"run_id"`
	PipelineID uint8  `msgpack:"pipeline_id"`
	FragmentID uint8  `msgpack:"fragment_id"`
	Body       []byte `msgpack:"body"`
}

// FrameErrorKind classifies frame errors.
type FrameErrorKind int

const (
	// FrameErrorPartial indicates a truncated or incomplete frame.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge indicates a frame exceeding MaxFrameSize.
	FrameErrorTooLarge
	// FrameErrorDecode indicates a msgpack decoding error.
	FrameErrorDecode
)

// FrameError represents a journal frame error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFrameError returns the FrameError in err's chain, if any.
func IsFrameError(err error) (*FrameError, bool) {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr, true
	}
	return nil, false
}

// encodeFragment marshals a fragment frame payload.
func encodeFragment(frame *FragmentFrame) ([]byte, error) {
	payload, err := msgpack.Marshal(frame)
	if err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to encode fragment frame",
			Err:  err,
		}
	}
	if len(payload) > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), MaxPayloadSize),
		}
	}
	return payload, nil
}

// decodeFragment unmarshals a fragment frame payload.
func decodeFragment(payload []byte) (*FragmentFrame, error) {
	var frame FragmentFrame
	if err := msgpack.Unmarshal(payload, &frame); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode fragment frame",
			Err:  err,
		}
	}
	return &frame, nil
}
