package journal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Reader decodes fragment frames from a journal stream.
type Reader struct {
	r io.Reader
}

// NewReader creates a journal reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Open opens a journal file at path for reading.
// The returned closer is the underlying file.
func Open(path string) (*Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal %q: %w", path, err)
	}
	return NewReader(f), f, nil
}

// ReadFrame reads a single fragment frame from the stream.
//
// Errors:
//   - io.EOF: stream ended cleanly (no more frames)
//   - *FrameError with Kind=FrameErrorPartial: incomplete frame
//   - *FrameError with Kind=FrameErrorTooLarge: frame exceeds limit
//   - *FrameError with Kind=FrameErrorDecode: msgpack decode failure
func (d *Reader) ReadFrame() (*FragmentFrame, error) {
	var lengthBuf [LengthPrefixSize]byte
	if _, err := io.ReadFull(d.r, lengthBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read payload",
			Err:  err,
		}
	}

	return decodeFragment(payload)
}
