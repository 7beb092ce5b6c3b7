package record

import (
	"fmt"
	"strconv"
	"strings"
)

// tokenCount is the number of tokens a record line must carry:
// pipeline id, fragment id, encoding, payload, next id.
// Tokens past the fifth are ignored.
const tokenCount = 5

// NextNone is the sentinel token declaring "no further fragment expected".
// A record carrying it closes its pipeline.
const NextNone = "-1"

// Raw is a parsed but not yet decoded fragment record.
// Mapping the Encoding field to a concrete encoding is deferred to decode
// time, so a record with an unknown tag still parses.
type Raw struct {
	// PipelineID keys the pipeline this fragment belongs to.
	PipelineID uint8
	// FragmentID orders the fragment within its pipeline.
	FragmentID uint8
	// Encoding is the raw encoding tag, validated at decode time.
	Encoding uint8
	// Payload is the opaque payload token (no embedded whitespace).
	Payload string
	// Next is the declared next fragment id; nil means the sentinel was
	// present and the pipeline closes after this record.
	Next *uint8
}

// ParseErrorKind classifies record parse errors.
type ParseErrorKind int

const (
	// ParseErrorTokens indicates a line with fewer than five tokens.
	ParseErrorTokens ParseErrorKind = iota
	// ParseErrorField indicates a numeric token outside 0-255.
	ParseErrorField
)

// ParseError represents a line that could not be decomposed into a record.
// The line is skipped and processing continues.
type ParseError struct {
	Kind  ParseErrorKind
	Field string
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ParseErrorTokens:
		return "record needs 5 whitespace-separated tokens"
	default:
		return fmt.Sprintf("invalid %s %q", e.Field, e.Token)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse decomposes one input line into a Raw record.
// Pure function of the line; no side effects.
//
// Errors:
//   - *ParseError with Kind=ParseErrorTokens: fewer than five tokens
//   - *ParseError with Kind=ParseErrorField: a numeric token outside 0-255
func Parse(line string) (Raw, error) {
	tokens := strings.Fields(line)
	if len(tokens) < tokenCount {
		return Raw{}, &ParseError{Kind: ParseErrorTokens}
	}

	pipelineID, err := parseByte("pipeline_id", tokens[0])
	if err != nil {
		return Raw{}, err
	}
	fragmentID, err := parseByte("fragment_id", tokens[1])
	if err != nil {
		return Raw{}, err
	}
	encoding, err := parseByte("encoding", tokens[2])
	if err != nil {
		return Raw{}, err
	}
	next, err := parseNext(tokens[4])
	if err != nil {
		return Raw{}, err
	}

	return Raw{
		PipelineID: pipelineID,
		FragmentID: fragmentID,
		Encoding:   encoding,
		Payload:    tokens[3],
		Next:       next,
	}, nil
}

// parseByte parses a decimal token into the 0-255 range.
func parseByte(field, token string) (uint8, error) {
	v, err := strconv.ParseUint(token, 10, 8)
	if err != nil {
		return 0, &ParseError{
			Kind:  ParseErrorField,
			Field: field,
			Token: token,
			Err:   err,
		}
	}
	return uint8(v), nil
}

// parseNext parses the next-id token, honoring the NextNone sentinel.
func parseNext(token string) (*uint8, error) {
	if token == NextNone {
		return nil, nil
	}
	v, err := parseByte("next_id", token)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
