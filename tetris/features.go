package tetris

// FeatureCount is the length of a feature vector.
const FeatureCount = 4

// Feature vector layout.
const (
	FeatureLines = iota
	FeatureHeight
	FeatureBumpiness
	FeatureHoles
)

// MaxLinesPerPiece bounds how many rows one tetromino can complete.
const MaxLinesPerPiece = 4

// Sentinel fills every slot of a masked placement's feature vector.
const Sentinel = -1.0

// FeatureVector is [lines, aggregateHeight, bumpiness, holes].
type FeatureVector [FeatureCount]float64

// MaskedFeatures is the vector stored for an illegal placement.
var MaskedFeatures = FeatureVector{Sentinel, Sentinel, Sentinel, Sentinel}

// RawFeatures are the unscaled surface measurements of a grid.
type RawFeatures struct {
	Lines           int
	AggregateHeight int
	Bumpiness       int
	Holes           int
}

// Extract measures board as it stands. Lines counts full rows without
// clearing them, so heights and holes describe the grid before the clear.
// Weights tuned on post-clear measurements will rate line clears
// differently here, since the cleared rows still count towards height.
func Extract(board *Board) RawFeatures {
	heights := make([]int, board.width)
	return extractInto(board, heights)
}

func extractInto(board *Board, heights []int) RawFeatures {
	board.fillHeights(heights)

	f := RawFeatures{Lines: board.CountFullRows()}
	for col, h := range heights {
		f.AggregateHeight += h
		for row := 0; row < h-1; row++ {
			if !board.cells[row*board.width+col] {
				f.Holes++
			}
		}
		if col > 0 {
			f.Bumpiness += abs(heights[col-1] - h)
		}
	}
	return f
}

// Normalize scales the raw features into [0, 1]: lines by MaxLinesPerPiece
// and the rest by the number of cells on a width x height grid.
func (f RawFeatures) Normalize(width, height int) FeatureVector {
	size := float64(width * height)
	return FeatureVector{
		float64(f.Lines) / MaxLinesPerPiece,
		float64(f.AggregateHeight) / size,
		float64(f.Bumpiness) / size,
		float64(f.Holes) / size,
	}
}

// Masked reports whether v is the sentinel vector.
func (v FeatureVector) Masked() bool {
	return v[FeatureLines] == Sentinel
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
