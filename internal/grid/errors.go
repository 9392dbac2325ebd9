package grid

import (
	"errors"
	"fmt"
)

// Grid errors.
var (
	// ErrMalformedGrid is returned when plaintext does not match the 8x8x3 layout.
	ErrMalformedGrid = errors.New("malformed grid")

	// ErrInvalidCoordinate is returned for a character or token outside the coordinate vocabulary.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidFormat is returned for separators that cannot describe a card.
	ErrInvalidFormat = errors.New("invalid grid format")

	// ErrOutOfBounds is returned when a resolved index falls outside the grid or channel range.
	ErrOutOfBounds = errors.New("index out of bounds")
)

// ParseError describes where decoding stopped. Line and Column are 1-based;
// zero means the failure is not tied to that position.
type ParseError struct {
	Line    int
	Column  int
	Channel int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	switch {
	case e.Channel > 0:
		return fmt.Sprintf("%s: line %d, cell %d, channel %d: %s", ErrMalformedGrid, e.Line, e.Column, e.Channel, msg)
	case e.Column > 0:
		return fmt.Sprintf("%s: line %d, cell %d: %s", ErrMalformedGrid, e.Line, e.Column, msg)
	case e.Line > 0:
		return fmt.Sprintf("%s: line %d: %s", ErrMalformedGrid, e.Line, msg)
	default:
		return fmt.Sprintf("%s: %s", ErrMalformedGrid, msg)
	}
}

// Is reports ErrMalformedGrid so callers can match on the sentinel.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedGrid
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
