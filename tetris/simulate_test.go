package tetris_test

import (
	"testing"

	"github.com/plus3/tetrisai/tetris"
	"github.com/stretchr/testify/assert"
)

func TestSimulateDropsToFloor(t *testing.T) {
	b := tetris.MustBoard(10, 19)

	p := tetris.Simulate(b, tetris.O, 0, 4, 16)
	assert.True(t, p.Valid)
	assert.Equal(t, 16, p.Distance)
	assert.ElementsMatch(t, []tetris.Coordinate{
		{Col: 4, Row: 0}, {Col: 5, Row: 0}, {Col: 4, Row: 1}, {Col: 5, Row: 1},
	}, p.Cells[:])
	assert.Equal(t, 0, b.Filled(), "simulation must not touch the board")
}

func TestSimulateLandsOnStack(t *testing.T) {
	b := tetris.MustBoard(10, 19)
	for row := range 5 {
		b.Set(4, row, true)
	}

	p := tetris.Simulate(b, tetris.I, 1, 4, 16)
	assert.True(t, p.Valid)
	rows := make([]int, 0, 4)
	for _, c := range p.Cells {
		assert.Equal(t, 4, c.Col)
		rows = append(rows, c.Row)
	}
	assert.ElementsMatch(t, []int{5, 6, 7, 8}, rows)
}

func TestSimulateRestsAtSpawnWhenItCannotMove(t *testing.T) {
	b := tetris.MustBoard(10, 19)
	// Fill directly beneath the O at spawn.
	b.Set(4, 15, true)

	p := tetris.Simulate(b, tetris.O, 0, 4, 16)
	assert.True(t, p.Valid)
	assert.Equal(t, 0, p.Distance)
	assert.Equal(t, tetris.Footprint(tetris.O, 0, 4, 16), p.Cells)
}

func TestSimulateSpawnBlocked(t *testing.T) {
	b := tetris.MustBoard(10, 19)
	b.Set(4, 16, true)

	p := tetris.Simulate(b, tetris.O, 0, 4, 16)
	assert.False(t, p.Valid)
}

func TestSimulateOutOfBoundsColumns(t *testing.T) {
	b := tetris.MustBoard(10, 19)

	assert.False(t, tetris.Simulate(b, tetris.I, 0, 0, 16).Valid, "I reaches column -1")
	assert.False(t, tetris.Simulate(b, tetris.I, 0, 8, 16).Valid, "I reaches column 10")
	assert.True(t, tetris.Simulate(b, tetris.I, 0, 1, 16).Valid)
	assert.True(t, tetris.Simulate(b, tetris.I, 0, 7, 16).Valid)
	assert.True(t, tetris.Simulate(b, tetris.I, 1, 0, 16).Valid)
}

func TestSimulateUnknownShape(t *testing.T) {
	b := tetris.MustBoard(10, 19)

	p := tetris.Simulate(b, tetris.Shape(42), 0, 4, 16)
	assert.False(t, p.Valid)
	assert.Equal(t, tetris.Placement{}, p)
}
