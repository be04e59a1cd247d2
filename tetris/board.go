package tetris

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultWidth and DefaultHeight match the classic agent playfield.
const (
	DefaultWidth  = 10
	DefaultHeight = 19
)

// Board is a Width x Height occupancy grid. Row 0 is the floor and column 0
// is the left wall. The zero value is not usable; call NewBoard.
type Board struct {
	width  int
	height int
	cells  []bool
}

// NewBoard creates an empty board.
func NewBoard(width, height int) (*Board, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Board{
		width:  width,
		height: height,
		cells:  make([]bool, width*height),
	}, nil
}

// MustBoard is like NewBoard but panics on invalid dimensions.
func MustBoard(width, height int) *Board {
	b, err := NewBoard(width, height)
	if err != nil {
		panic(err)
	}
	return b
}

// Width returns the number of columns.
func (b *Board) Width() int { return b.width }

// Height returns the number of rows.
func (b *Board) Height() int { return b.height }

// InBounds reports whether (col, row) lies on the grid.
func (b *Board) InBounds(col, row int) bool {
	return col >= 0 && col < b.width && row >= 0 && row < b.height
}

// IsOccupied reports whether (col, row) holds a locked cell. Out of bounds
// coordinates report false; use InBounds to tell the two apart.
func (b *Board) IsOccupied(col, row int) bool {
	if !b.InBounds(col, row) {
		return false
	}
	return b.cells[row*b.width+col]
}

// Fits reports whether every cell is on the grid and empty.
func (b *Board) Fits(cells Cells) bool {
	for _, c := range cells {
		if !b.InBounds(c.Col, c.Row) || b.cells[c.Row*b.width+c.Col] {
			return false
		}
	}
	return true
}

// Set marks a single cell. Out of bounds coordinates are ignored.
func (b *Board) Set(col, row int, occupied bool) {
	if b.InBounds(col, row) {
		b.cells[row*b.width+col] = occupied
	}
}

// Place marks all four cells occupied. Callers validate the cells with
// Simulate first; out of bounds cells are skipped.
func (b *Board) Place(cells Cells) {
	for _, c := range cells {
		b.Set(c.Col, c.Row, true)
	}
}

func (b *Board) rowFull(row int) bool {
	for _, occupied := range b.cells[row*b.width : (row+1)*b.width] {
		if !occupied {
			return false
		}
	}
	return true
}

// CountFullRows returns how many rows are completely filled without
// modifying the board.
func (b *Board) CountFullRows() int {
	n := 0
	for row := range b.height {
		if b.rowFull(row) {
			n++
		}
	}
	return n
}

// ClearLines removes every full row in a single pass and compacts the rows
// above it downwards. It returns the number of rows removed and the lowest
// removed row index, or (0, Height) if nothing was cleared.
func (b *Board) ClearLines() (count, minRow int) {
	minRow = b.height
	write := 0
	for read := range b.height {
		if b.rowFull(read) {
			count++
			minRow = min(minRow, read)
			continue
		}
		if write != read {
			copy(b.cells[write*b.width:(write+1)*b.width], b.cells[read*b.width:(read+1)*b.width])
		}
		write++
	}
	clear(b.cells[write*b.width:])
	return count, minRow
}

// Clone returns a deep copy that shares no memory with b.
func (b *Board) Clone() *Board {
	return &Board{
		width:  b.width,
		height: b.height,
		cells:  slices.Clone(b.cells),
	}
}

// CopyFrom overwrites b with the contents of src. The dimensions must match.
func (b *Board) CopyFrom(src *Board) {
	if b.width != src.width || b.height != src.height {
		panic("board dimensions differ")
	}
	copy(b.cells, src.cells)
}

// Equal reports whether both boards have the same size and occupancy.
func (b *Board) Equal(other *Board) bool {
	return b.width == other.width && b.height == other.height && slices.Equal(b.cells, other.cells)
}

// ColumnHeights returns, per column, one plus the topmost occupied row, or
// zero for an empty column.
func (b *Board) ColumnHeights() []int {
	heights := make([]int, b.width)
	b.fillHeights(heights)
	return heights
}

func (b *Board) fillHeights(heights []int) {
	for col := range b.width {
		heights[col] = 0
		for row := b.height - 1; row >= 0; row-- {
			if b.cells[row*b.width+col] {
				heights[col] = row + 1
				break
			}
		}
	}
}

// Snapshot returns a copy of the grid indexed as [col][row].
func (b *Board) Snapshot() [][]bool {
	grid := make([][]bool, b.width)
	for col := range grid {
		grid[col] = make([]bool, b.height)
		for row := range b.height {
			grid[col][row] = b.cells[row*b.width+col]
		}
	}
	return grid
}

// Flatten returns the grid as a column-major vector of 0/1 values, the layout
// used for raw board observations.
func (b *Board) Flatten() []float32 {
	flat := make([]float32, 0, b.width*b.height)
	for col := range b.width {
		for row := range b.height {
			if b.cells[row*b.width+col] {
				flat = append(flat, 1)
			} else {
				flat = append(flat, 0)
			}
		}
	}
	return flat
}

// Filled returns the number of occupied cells.
func (b *Board) Filled() int {
	n := 0
	for _, occupied := range b.cells {
		if occupied {
			n++
		}
	}
	return n
}

// Hash returns an FNV-1a hash of the dimensions and occupancy.
func (b *Board) Hash() uint64 {
	const (
		offset64 uint64 = 14695981039346656037
		prime64  uint64 = 1099511628211
	)
	h := offset64
	mix := func(v uint64) {
		h ^= v
		h *= prime64
	}
	mix(uint64(b.width))
	mix(uint64(b.height))

	var word uint64
	var bit uint
	for _, occupied := range b.cells {
		if occupied {
			word |= 1 << bit
		}
		bit++
		if bit == 64 {
			mix(word)
			word, bit = 0, 0
		}
	}
	if bit > 0 {
		mix(word)
	}
	return h
}

// String renders the board top row first, '#' for occupied cells.
func (b *Board) String() string {
	var sb strings.Builder
	sb.Grow((b.width + 1) * b.height)
	for row := b.height - 1; row >= 0; row-- {
		for col := range b.width {
			if b.cells[row*b.width+col] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// BoardFromRows builds a board from text rows given top row first, using
// '#' or 'X' for occupied cells. All rows must be the same width.
func BoardFromRows(rows ...string) (*Board, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidDimensions)
	}
	b, err := NewBoard(len(rows[0]), len(rows))
	if err != nil {
		return nil, err
	}
	for i, line := range rows {
		if len(line) != b.width {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", ErrInvalidDimensions, i, len(line), b.width)
		}
		row := b.height - 1 - i
		for col := range b.width {
			switch line[col] {
			case '#', 'X', 'x':
				b.cells[row*b.width+col] = true
			}
		}
	}
	return b, nil
}
