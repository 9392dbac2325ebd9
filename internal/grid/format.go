package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Format describes the plaintext card layout: Size lines of Size cells joined
// by CellSeparator, each cell holding Channels integers joined by
// ChannelSeparator. An empty ChannelSeparator selects the compact layout in
// which every channel is exactly one character ("123").
type Format struct {
	CellSeparator    string
	ChannelSeparator string
}

// DefaultFormat is space between cells, comma between channels.
var DefaultFormat = Format{CellSeparator: " ", ChannelSeparator: ","}

// CompactFormat is the single-digit layout: "123 456 ...".
var CompactFormat = Format{CellSeparator: " ", ChannelSeparator: ""}

// Parse decodes text with DefaultFormat.
func Parse(text string) (*Matrix, error) {
	return DefaultFormat.Parse(text)
}

// Validate checks that the separators can be told apart from the values and
// from each other.
func (f Format) Validate() error {
	if f.CellSeparator == "" {
		return fmt.Errorf("%w: cell separator must not be empty", ErrInvalidFormat)
	}
	if f.CellSeparator == f.ChannelSeparator {
		return fmt.Errorf("%w: cell and channel separators must differ (both %q)", ErrInvalidFormat, f.CellSeparator)
	}
	for _, sep := range []string{f.CellSeparator, f.ChannelSeparator} {
		if strings.ContainsAny(sep, "0123456789-+\r\n") {
			return fmt.Errorf("%w: separator %q must not contain digits, signs or line breaks", ErrInvalidFormat, sep)
		}
	}
	return nil
}

// Parse decodes text into a Matrix. Row is the line position and column the
// cell position within the line. One trailing line terminator is accepted.
// Any failure returns a nil Matrix: ErrInvalidFormat when f itself is
// unusable, otherwise a *ParseError.
func (f Format) Parse(text string) (*Matrix, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	lines := strings.Split(text, "\n")
	if len(lines) != Size {
		return nil, &ParseError{Message: fmt.Sprintf("found %d lines, want %d", len(lines), Size)}
	}

	var cells [Size][Size]Cell
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		tokens := strings.Split(line, f.CellSeparator)
		if len(tokens) != Size {
			return nil, &ParseError{Line: i + 1, Message: fmt.Sprintf("found %d cells, want %d", len(tokens), Size)}
		}
		for j, token := range tokens {
			cell, err := f.parseCell(token, i+1, j+1)
			if err != nil {
				return nil, err
			}
			cells[i][j] = cell
		}
	}

	return NewMatrix(cells), nil
}

func (f Format) parseCell(token string, line, column int) (Cell, error) {
	var parts []string
	if f.ChannelSeparator == "" {
		parts = strings.Split(token, "")
	} else {
		parts = strings.Split(token, f.ChannelSeparator)
	}
	if len(parts) != Channels {
		return Cell{}, &ParseError{
			Line:    line,
			Column:  column,
			Message: fmt.Sprintf("cell %q has %d channels, want %d", token, len(parts), Channels),
		}
	}

	var cell Cell
	for k, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Cell{}, &ParseError{
				Line:    line,
				Column:  column,
				Channel: k + 1,
				Message: fmt.Sprintf("channel %q is not an integer", p),
				Err:     err,
			}
		}
		cell[k] = v
	}
	return cell, nil
}

// Encode renders m in this format, one "\n"-terminated line per row.
// Parse(Encode(m)) reproduces m for any matrix the format can represent;
// the compact layout only represents single-digit, non-negative values.
func (f Format) Encode(m *Matrix) string {
	var b strings.Builder
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if col > 0 {
				b.WriteString(f.CellSeparator)
			}
			cell := m.cells[row][col]
			for k, v := range cell {
				if k > 0 {
					b.WriteString(f.ChannelSeparator)
				}
				b.WriteString(strconv.Itoa(v))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
