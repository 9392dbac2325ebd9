package grid

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleMatrix gives every channel a distinct value, including negatives.
func sampleMatrix() *Matrix {
	var cells [Size][Size]Cell
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			base := (r*Size + c) * Channels
			cells[r][c] = NewCell(base, -(base + 1), base+2)
		}
	}
	return NewMatrix(cells)
}

// digitMatrix only holds values the compact layout can represent.
func digitMatrix() *Matrix {
	var cells [Size][Size]Cell
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			cells[r][c] = NewCell(r, c, (r+c)%10)
		}
	}
	return NewMatrix(cells)
}

func TestFormat_RoundTrip(t *testing.T) {
	formats := map[string]struct {
		format Format
		matrix *Matrix
	}{
		"default":   {DefaultFormat, sampleMatrix()},
		"semicolon": {Format{CellSeparator: ";", ChannelSeparator: ","}, sampleMatrix()},
		"compact":   {CompactFormat, digitMatrix()},
	}

	for name, tc := range formats {
		t.Run(name, func(t *testing.T) {
			text := tc.format.Encode(tc.matrix)
			got, err := tc.format.Parse(text)
			require.NoError(t, err)

			if diff := cmp.Diff(tc.matrix.Cells(), got.Cells()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			assert.True(t, tc.matrix.Equal(got))
		})
	}
}

func TestParse_Orientation(t *testing.T) {
	m := sampleMatrix()
	text := DefaultFormat.Encode(m)

	firstLine := strings.SplitN(text, "\n", 2)[0]
	assert.True(t, strings.HasPrefix(firstLine, "0,-1,2 3,-4,5"), "row 0 is the first line, got %q", firstLine)

	got, err := Parse(text)
	require.NoError(t, err)

	cell, err := got.Cell(7, 0)
	require.NoError(t, err)
	assert.Equal(t, NewCell(168, -169, 170), cell)
}

func TestParse_LineEndings(t *testing.T) {
	text := DefaultFormat.Encode(sampleMatrix())

	noTrailing := strings.TrimSuffix(text, "\n")
	_, err := Parse(noTrailing)
	assert.NoError(t, err)

	crlf := strings.ReplaceAll(text, "\n", "\r\n")
	got, err := Parse(crlf)
	require.NoError(t, err)
	assert.True(t, sampleMatrix().Equal(got))
}

func TestParse_Malformed(t *testing.T) {
	valid := strings.Split(strings.TrimSuffix(DefaultFormat.Encode(sampleMatrix()), "\n"), "\n")

	join := func(lines []string) string { return strings.Join(lines, "\n") + "\n" }
	replaceLine := func(i int, line string) string {
		lines := append([]string(nil), valid...)
		lines[i] = line
		return join(lines)
	}

	tests := []struct {
		name string
		text string
		line int
	}{
		{"empty", "", 0},
		{"seven lines", join(valid[:7]), 0},
		{"nine lines", join(append(append([]string(nil), valid...), valid[0])), 0},
		{"blank trailing line", join(valid) + "\n", 0},
		{"seven cells", replaceLine(2, strings.Join(strings.Split(valid[2], " ")[:7], " ")), 3},
		{"nine cells", replaceLine(4, valid[4]+" 1,2,3"), 5},
		{"double separator", replaceLine(0, strings.Replace(valid[0], " ", "  ", 1)), 1},
		{"two channels", replaceLine(5, "1,2 "+strings.SplitN(valid[5], " ", 2)[1]), 6},
		{"four channels", replaceLine(6, "1,2,3,4 "+strings.SplitN(valid[6], " ", 2)[1]), 7},
		{"not a number", replaceLine(7, "1,x,3 "+strings.SplitN(valid[7], " ", 2)[1]), 8},
		{"float", replaceLine(1, "1,2.5,3 "+strings.SplitN(valid[1], " ", 2)[1]), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.text)
			assert.Nil(t, m, "no partial matrix may be returned")
			require.ErrorIs(t, err, ErrMalformedGrid)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestParse_Compact(t *testing.T) {
	line := strings.TrimSuffix(strings.Repeat("123 ", Size), " ")
	text := strings.Repeat(line+"\n", Size)

	m, err := CompactFormat.Parse(text)
	require.NoError(t, err)

	cell, err := m.Cell(3, 3)
	require.NoError(t, err)
	assert.Equal(t, NewCell(1, 2, 3), cell)

	_, err = CompactFormat.Parse(strings.Replace(text, "123", "1234", 1))
	assert.ErrorIs(t, err, ErrMalformedGrid)
}

func TestFormat_Validate(t *testing.T) {
	assert.NoError(t, DefaultFormat.Validate())
	assert.NoError(t, CompactFormat.Validate())
	assert.ErrorIs(t, Format{CellSeparator: "", ChannelSeparator: ","}.Validate(), ErrInvalidFormat)
	assert.ErrorIs(t, Format{CellSeparator: ",", ChannelSeparator: ","}.Validate(), ErrInvalidFormat)
	assert.ErrorIs(t, Format{CellSeparator: "1", ChannelSeparator: ","}.Validate(), ErrInvalidFormat)
	assert.ErrorIs(t, Format{CellSeparator: " ", ChannelSeparator: "-"}.Validate(), ErrInvalidFormat)
}

func TestFormat_ParseRejectsInvalidFormat(t *testing.T) {
	m, err := Format{CellSeparator: ",", ChannelSeparator: ","}.Parse(DefaultFormat.Encode(sampleMatrix()))
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.NotErrorIs(t, err, ErrMalformedGrid, "a bad format is not a bad card")

	var pe *ParseError
	assert.False(t, errors.As(err, &pe))
}

func TestMatrix_Bounds(t *testing.T) {
	m := sampleMatrix()

	_, err := m.Cell(8, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = m.Cell(0, -1)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	v, err := m.Value(Coordinate{Token: "A12", Row: 0, Column: 0, Channel: 1})
	require.NoError(t, err)
	assert.Equal(t, -1, v)

	_, err = m.Value(Coordinate{Token: "A14", Row: 0, Column: 0, Channel: 3})
	assert.ErrorIs(t, err, ErrOutOfBounds)
}
