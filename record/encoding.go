// Package record implements the wire format for pipeline fragment records:
// parsing one raw input line into a structured record, and decoding a record
// payload under its declared encoding.
package record

import (
	"encoding/hex"
	"fmt"
)

// Encoding identifies how a record payload is encoded on the wire.
type Encoding uint8

// Known payload encodings. Any other tag value is a decode-time error.
const (
	// EncodingASCII payloads are already the content.
	EncodingASCII Encoding = 0
	// EncodingHex payloads are hexadecimal strings decoding to bytes,
	// high nibble first. Odd length or non-hex characters are errors.
	EncodingHex Encoding = 1
)

// String returns the encoding name for diagnostics.
func (e Encoding) String() string {
	switch e {
	case EncodingASCII:
		return "ascii"
	case EncodingHex:
		return "hex"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

// DecodeErrorKind classifies payload decode errors.
type DecodeErrorKind int

const (
	// DecodeErrorHex indicates a payload that is not valid even-length hex.
	DecodeErrorHex DecodeErrorKind = iota
	// DecodeErrorEncoding indicates an encoding tag outside the known set.
	DecodeErrorEncoding
)

// DecodeError represents a payload decode failure.
// Decode failures are reported, never raised as panics; the acceptance step
// still applies the record's sequence effect after one.
type DecodeError struct {
	Kind     DecodeErrorKind
	Encoding uint8
	Msg      string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode transforms a raw payload under its declared encoding tag.
// Stateless and side-effect free.
//
// Errors:
//   - *DecodeError with Kind=DecodeErrorEncoding: tag outside the known set
//   - *DecodeError with Kind=DecodeErrorHex: odd-length or non-hex payload
func Decode(encoding uint8, payload string) ([]byte, error) {
	switch Encoding(encoding) {
	case EncodingASCII:
		return []byte(payload), nil
	case EncodingHex:
		body, err := hex.DecodeString(payload)
		if err != nil {
			return nil, &DecodeError{
				Kind:     DecodeErrorHex,
				Encoding: encoding,
				Msg:      "payload is not valid hex",
				Err:      err,
			}
		}
		return body, nil
	default:
		return nil, &DecodeError{
			Kind:     DecodeErrorEncoding,
			Encoding: encoding,
			Msg:      fmt.Sprintf("unknown encoding tag %d", encoding),
		}
	}
}
