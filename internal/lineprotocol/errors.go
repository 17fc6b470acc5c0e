package lineprotocol

import (
	"errors"
	"fmt"
)

// Parse failure reasons. Every error returned by Parse wraps exactly one of them.
var (
	ErrMalformedLine    = errors.New("malformed line")
	ErrUnterminatedTags = errors.New("unterminated tag set")
	ErrInvalidTag       = errors.New("invalid tag")
	ErrMissingName      = errors.New("missing metric name")
	ErrInvalidValue     = errors.New("invalid metric value")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// ParseError describes a line that could not be turned into a metric.
type ParseError struct {
	Line string // Offending input line.
	Err  error  // One of the Err* sentinels.
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Line)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(line string, err error) error {
	return &ParseError{Line: line, Err: err}
}

// Kind returns a short label for the parse failure, suitable as a metric label.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedLine):
		return "malformed_line"
	case errors.Is(err, ErrUnterminatedTags):
		return "unterminated_tags"
	case errors.Is(err, ErrInvalidTag):
		return "invalid_tag"
	case errors.Is(err, ErrMissingName):
		return "missing_name"
	case errors.Is(err, ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, ErrInvalidTimestamp):
		return "invalid_timestamp"
	default:
		return "unknown"
	}
}
