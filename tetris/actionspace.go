package tetris

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// EncodeAction maps (column, rotation) to a flat action index. Columns are
// the outer dimension: index = column*NumRotations + rotation.
func EncodeAction(column, rotation int) int {
	return column*NumRotations + rotation
}

// DecodeAction is the inverse of EncodeAction.
func DecodeAction(index int) (column, rotation int) {
	return index / NumRotations, index % NumRotations
}

// NumActions returns the size of the action space for a board width.
func NumActions(width int) int {
	return width * NumRotations
}

// Candidate is one enumerated placement.
type Candidate struct {
	Column    int
	Rotation  int
	Placement Placement
	Raw       RawFeatures
}

// ActionSpace holds every placement of one shape on one board. Entries are
// indexed by EncodeAction. Mask[i] is true when action i is illegal.
type ActionSpace struct {
	Shape      Shape
	Width      int
	Height     int
	Features   []FeatureVector
	Mask       []bool
	Candidates []Candidate
}

func newActionSpace(shape Shape, width, height int) *ActionSpace {
	n := NumActions(width)
	return &ActionSpace{
		Shape:      shape,
		Width:      width,
		Height:     height,
		Features:   make([]FeatureVector, n),
		Mask:       make([]bool, n),
		Candidates: make([]Candidate, n),
	}
}

// Len returns the number of actions.
func (a *ActionSpace) Len() int {
	return len(a.Mask)
}

// AllMasked reports whether no action is legal, which ends the game.
func (a *ActionSpace) AllMasked() bool {
	for _, masked := range a.Mask {
		if !masked {
			return false
		}
	}
	return true
}

// Legal returns the indices of every unmasked action in ascending order.
func (a *ActionSpace) Legal() []int {
	legal := make([]int, 0, len(a.Mask))
	for i, masked := range a.Mask {
		if !masked {
			legal = append(legal, i)
		}
	}
	return legal
}

// Check returns an error if index is out of range or masked.
func (a *ActionSpace) Check(index int) error {
	if index < 0 || index >= len(a.Mask) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrActionOutOfRange, index, len(a.Mask))
	}
	if a.Mask[index] {
		col, rot := DecodeAction(index)
		return fmt.Errorf("%w: %d (column %d, rotation %d)", ErrActionMasked, index, col, rot)
	}
	return nil
}

// Flat returns the features as one vector of Len()*FeatureCount values.
func (a *ActionSpace) Flat() []float32 {
	flat := make([]float32, 0, len(a.Features)*FeatureCount)
	for _, v := range a.Features {
		for _, x := range v {
			flat = append(flat, float32(x))
		}
	}
	return flat
}

// Equal reports whether two spaces hold identical features and masks.
func (a *ActionSpace) Equal(other *ActionSpace) bool {
	if a.Shape != other.Shape || a.Width != other.Width || a.Height != other.Height || len(a.Mask) != len(other.Mask) {
		return false
	}
	for i := range a.Mask {
		if a.Mask[i] != other.Mask[i] || a.Features[i] != other.Features[i] {
			return false
		}
	}
	return true
}

// Enumerator evaluates every (rotation, column) placement of a shape.
// The zero value runs sequentially.
type Enumerator struct {
	// SpawnRow is the row every piece starts its drop from.
	SpawnRow int
	// Workers bounds how many columns are simulated concurrently. Values
	// below two run on the calling goroutine.
	Workers int
	// Cache, if set, memoizes results per board and shape.
	Cache *EnumerationCache
}

// Enumerate evaluates every placement of shape on board. board is never
// modified. The returned space is complete: it is built behind a barrier
// and never exposed partially.
func (e *Enumerator) Enumerate(ctx context.Context, board *Board, shape Shape) (*ActionSpace, error) {
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownShape, shape)
	}
	if e.Cache != nil {
		if space, ok := e.Cache.Get(board, shape, e.SpawnRow); ok {
			return space, nil
		}
	}

	space := newActionSpace(shape, board.width, board.height)
	if e.Workers < 2 {
		scratch := newScratch(board)
		for col := range board.width {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			scratch.evaluateColumn(space, board, col, e.SpawnRow)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.Workers)
		for col := range board.width {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				newScratch(board).evaluateColumn(space, board, col, e.SpawnRow)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	if e.Cache != nil {
		e.Cache.Put(board, shape, e.SpawnRow, space)
	}
	return space, nil
}

// Enumerate runs a sequential enumeration without caching.
func Enumerate(board *Board, shape Shape, spawnRow int) *ActionSpace {
	e := Enumerator{SpawnRow: spawnRow}
	space, err := e.Enumerate(context.Background(), board, shape)
	if err != nil {
		panic(err)
	}
	return space
}

// scratch is a per-task clone of the board that placements are committed
// into and reset from.
type scratch struct {
	board   *Board
	heights []int
}

func newScratch(board *Board) *scratch {
	return &scratch{
		board:   board.Clone(),
		heights: make([]int, board.width),
	}
}

func (s *scratch) evaluateColumn(space *ActionSpace, board *Board, col, spawnRow int) {
	for rot := range NumRotations {
		idx := EncodeAction(col, rot)
		p := Simulate(board, space.Shape, rot, col, spawnRow)
		cand := Candidate{Column: col, Rotation: rot, Placement: p}
		if !p.Valid {
			space.Mask[idx] = true
			space.Features[idx] = MaskedFeatures
			space.Candidates[idx] = cand
			continue
		}

		s.board.Place(p.Cells)
		cand.Raw = extractInto(s.board, s.heights)
		for _, c := range p.Cells {
			s.board.Set(c.Col, c.Row, false)
		}

		space.Features[idx] = cand.Raw.Normalize(board.width, board.height)
		space.Candidates[idx] = cand
	}
}
