package tetris

// NumRotations is the number of orientations enumerated for every shape.
const NumRotations = 4

// Offset is a cell position relative to a piece's origin.
type Offset struct {
	DX, DY int
}

// Coordinate is an absolute grid cell. Row 0 is the floor.
type Coordinate struct {
	Col, Row int
}

// Cells is the footprint of a single tetromino.
type Cells [4]Coordinate

// shapeDef describes a shape at rotation 0. The pivot is stored in half-cell
// units so that pieces like I and O can turn around a cell corner.
type shapeDef struct {
	segments [4]Offset
	pivotX2  int
	pivotY2  int
}

var shapeDefs = [NumShapes]shapeDef{
	I: {segments: [4]Offset{{-1, 0}, {0, 0}, {1, 0}, {2, 0}}, pivotX2: 1, pivotY2: -1},
	J: {segments: [4]Offset{{-1, 1}, {-1, 0}, {0, 0}, {1, 0}}},
	L: {segments: [4]Offset{{1, 1}, {-1, 0}, {0, 0}, {1, 0}}},
	O: {segments: [4]Offset{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, pivotX2: 1, pivotY2: 1},
	S: {segments: [4]Offset{{-1, 0}, {0, 0}, {0, 1}, {1, 1}}},
	T: {segments: [4]Offset{{-1, 0}, {0, 0}, {1, 0}, {0, 1}}},
	Z: {segments: [4]Offset{{-1, 1}, {0, 1}, {0, 0}, {1, 0}}},
}

// rotationTable is filled once at package init and never written again.
var rotationTable [NumShapes][NumRotations][4]Offset

func init() {
	for s := range NumShapes {
		def := shapeDefs[s]
		for r := range NumRotations {
			for i, seg := range def.segments {
				rotationTable[s][r][i] = rotateAroundPivot(seg, def.pivotX2, def.pivotY2, r)
			}
		}
	}
	for s := range NumShapes {
		for r := range NumRotations {
			seen := make(map[Offset]bool, 4)
			for _, o := range rotationTable[s][r] {
				if seen[o] {
					panic("rotation table for " + Shape(s).String() + " has overlapping cells")
				}
				seen[o] = true
			}
		}
	}
}

// rotateAroundPivot turns seg counter-clockwise by quarter*90 degrees around
// the half-unit pivot. All arithmetic is done on doubled integer coordinates.
func rotateAroundPivot(seg Offset, pivotX2, pivotY2, quarter int) Offset {
	x := 2*seg.DX - pivotX2
	y := 2*seg.DY - pivotY2
	for range quarter % NumRotations {
		x, y = -y, x
	}
	return Offset{
		DX: roundHalf(x + pivotX2),
		DY: roundHalf(y + pivotY2),
	}
}

// roundHalf divides a doubled coordinate by two, rounding halves away from zero.
func roundHalf(v2 int) int {
	if v2 >= 0 {
		return (v2 + 1) / 2
	}
	return -((-v2 + 1) / 2)
}

// Offsets returns the four cell offsets of shape at the given rotation index
// (0..3 for 0°, 90°, 180° and 270° counter-clockwise). shape must be Valid.
func Offsets(shape Shape, rotation int) [4]Offset {
	return rotationTable[shape][rotation&(NumRotations-1)]
}

// Extents returns the smallest and largest DX and DY any rotation of any
// shape reaches.
func Extents() (minDX, maxDX, minDY, maxDY int) {
	for s := range NumShapes {
		for r := range NumRotations {
			for _, o := range rotationTable[s][r] {
				minDX = min(minDX, o.DX)
				maxDX = max(maxDX, o.DX)
				minDY = min(minDY, o.DY)
				maxDY = max(maxDY, o.DY)
			}
		}
	}
	return minDX, maxDX, minDY, maxDY
}

// Footprint translates the offsets of shape/rotation to the absolute origin.
// It panics if shape is not Valid, as Offsets does.
func Footprint(shape Shape, rotation, col, row int) Cells {
	var cells Cells
	for i, o := range Offsets(shape, rotation) {
		cells[i] = Coordinate{Col: col + o.DX, Row: row + o.DY}
	}
	return cells
}

// Shift returns c moved by (dc, dr).
func (c Cells) Shift(dc, dr int) Cells {
	for i := range c {
		c[i].Col += dc
		c[i].Row += dr
	}
	return c
}
