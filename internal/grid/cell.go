package grid

import "fmt"

const (
	// Size is the number of rows and columns on a card.
	Size = 8

	// Channels is the number of values held by each cell.
	Channels = 3
)

// Cell is one grid position. It is a value type; copies are independent.
type Cell [Channels]int

// NewCell builds a cell from its three channel values.
func NewCell(a, b, c int) Cell {
	return Cell{a, b, c}
}

// Channel returns the value stored at channel i.
func (c Cell) Channel(i int) (int, error) {
	if i < 0 || i >= Channels {
		return 0, fmt.Errorf("%w: channel %d (valid 0-%d)", ErrOutOfBounds, i, Channels-1)
	}
	return c[i], nil
}

// Matrix is a fully populated Size x Size grid of cells. It is read-only
// once built.
type Matrix struct {
	cells [Size][Size]Cell
}

// NewMatrix wraps a complete cell array.
func NewMatrix(cells [Size][Size]Cell) *Matrix {
	return &Matrix{cells: cells}
}

// Cell returns the cell at (row, column).
func (m *Matrix) Cell(row, column int) (Cell, error) {
	if row < 0 || row >= Size || column < 0 || column >= Size {
		return Cell{}, fmt.Errorf("%w: row %d, column %d (valid 0-%d)", ErrOutOfBounds, row, column, Size-1)
	}
	return m.cells[row][column], nil
}

// Value returns the channel value addressed by a resolved coordinate.
func (m *Matrix) Value(c Coordinate) (int, error) {
	cell, err := m.Cell(c.Row, c.Column)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", c.Token, err)
	}
	v, err := cell.Channel(c.Channel)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", c.Token, err)
	}
	return v, nil
}

// Cells returns a copy of the underlying array.
func (m *Matrix) Cells() [Size][Size]Cell {
	return m.cells
}

// Equal reports whether both matrices hold the same values everywhere.
func (m *Matrix) Equal(other *Matrix) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.cells == other.cells
}
