package tetris

// Placement is the result of hard-dropping a piece.
type Placement struct {
	Cells Cells
	// Distance is how many rows the piece fell from the spawn row.
	Distance int
	Valid    bool
}

// Simulate hard-drops shape at the given rotation from (column, spawnRow)
// without modifying board. The placement is invalid only when the spawn
// cells are off the grid or already occupied. A piece that cannot move at
// all rests on the spawn row and is still valid. An unknown shape yields an
// invalid placement.
func Simulate(board *Board, shape Shape, rotation, column, spawnRow int) Placement {
	if !shape.Valid() {
		return Placement{}
	}
	cells := Footprint(shape, rotation, column, spawnRow)
	if !board.Fits(cells) {
		return Placement{Cells: cells}
	}

	distance := 0
	for {
		next := cells.Shift(0, -1)
		if !board.Fits(next) {
			break
		}
		cells = next
		distance++
	}
	return Placement{Cells: cells, Distance: distance, Valid: true}
}
