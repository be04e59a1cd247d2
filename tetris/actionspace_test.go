package tetris_test

import (
	"context"
	"testing"

	"github.com/plus3/tetrisai/tetris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionIndexRoundTrip(t *testing.T) {
	for index := range tetris.NumActions(tetris.DefaultWidth) {
		col, rot := tetris.DecodeAction(index)
		assert.GreaterOrEqual(t, col, 0)
		assert.Less(t, col, tetris.DefaultWidth)
		assert.GreaterOrEqual(t, rot, 0)
		assert.Less(t, rot, tetris.NumRotations)
		assert.Equal(t, index, tetris.EncodeAction(col, rot))
	}
	assert.Equal(t, 16, tetris.EncodeAction(4, 0))
}

func TestEnumerateEmptyBoard(t *testing.T) {
	b := tetris.MustBoard(10, 19)
	space := tetris.Enumerate(b, tetris.T, tetris.DefaultSpawnRow)

	require.Equal(t, 40, space.Len())
	require.Len(t, space.Features, 40)
	assert.False(t, space.AllMasked())
	assert.Equal(t, 0, b.Filled(), "enumeration must not touch the board")

	for i, masked := range space.Mask {
		col, rot := tetris.DecodeAction(i)
		c := space.Candidates[i]
		assert.Equal(t, col, c.Column)
		assert.Equal(t, rot, c.Rotation)
		if masked {
			assert.Equal(t, tetris.MaskedFeatures, space.Features[i])
			assert.False(t, c.Placement.Valid)
			continue
		}
		for _, v := range space.Features[i] {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}

	// The flat-lying T (rotation 0) cannot sit in the first or last column.
	assert.True(t, space.Mask[tetris.EncodeAction(0, 0)])
	assert.True(t, space.Mask[tetris.EncodeAction(9, 0)])
	assert.False(t, space.Mask[tetris.EncodeAction(1, 0)])
	// Rotation 1 points left and needs a column on the left.
	assert.True(t, space.Mask[tetris.EncodeAction(0, 1)])
	assert.False(t, space.Mask[tetris.EncodeAction(9, 1)])
}

func TestEnumerateFeatureValues(t *testing.T) {
	b := tetris.MustBoard(10, 19)
	space := tetris.Enumerate(b, tetris.O, tetris.DefaultSpawnRow)

	idx := tetris.EncodeAction(0, 0)
	require.False(t, space.Mask[idx])
	raw := space.Candidates[idx].Raw
	assert.Equal(t, tetris.RawFeatures{Lines: 0, AggregateHeight: 4, Bumpiness: 2, Holes: 0}, raw)
	assert.Equal(t, raw.Normalize(10, 19), space.Features[idx])
}

func TestEnumerateCountsCompletedLine(t *testing.T) {
	b := tetris.MustBoard(10, 19)
	for col := 2; col < 10; col++ {
		b.Set(col, 0, true)
	}
	space := tetris.Enumerate(b, tetris.O, tetris.DefaultSpawnRow)

	idx := tetris.EncodeAction(0, 0)
	require.False(t, space.Mask[idx])
	assert.Equal(t, 1, space.Candidates[idx].Raw.Lines)
	assert.InDelta(t, 0.25, space.Features[idx][tetris.FeatureLines], 1e-12)
	assert.Equal(t, 8, b.Filled())
}

func TestEnumerateIsDeterministic(t *testing.T) {
	b := mustRows(t,
		"..........",
		"....#.....",
		"#..###..#.",
		"##.####.##",
	)
	for _, shape := range tetris.AllShapes {
		first := tetris.Enumerate(b, shape, 2)
		second := tetris.Enumerate(b, shape, 2)
		assert.True(t, first.Equal(second), shape.String())
		assert.Equal(t, first.Features, second.Features)
		assert.Equal(t, first.Mask, second.Mask)
	}
}

func TestEnumerateParallelMatchesSequential(t *testing.T) {
	b := tetris.MustBoard(10, 19)
	for col := range 10 {
		for row := range col % 5 {
			b.Set(col, row, true)
		}
	}

	parallel := tetris.Enumerator{SpawnRow: tetris.DefaultSpawnRow, Workers: 4}
	for _, shape := range tetris.AllShapes {
		got, err := parallel.Enumerate(context.Background(), b, shape)
		require.NoError(t, err)
		want := tetris.Enumerate(b, shape, tetris.DefaultSpawnRow)
		assert.True(t, want.Equal(got), shape.String())
		assert.Equal(t, want.Candidates, got.Candidates)
	}
}

func TestEnumerateSpawnBlockedColumn(t *testing.T) {
	b := tetris.MustBoard(10, 19)
	// A tower in column 4 reaching the spawn row blocks every rotation
	// whose footprint covers it.
	for row := 0; row <= tetris.DefaultSpawnRow+1; row++ {
		b.Set(4, row, true)
	}
	space := tetris.Enumerate(b, tetris.I, tetris.DefaultSpawnRow)

	for rot := range tetris.NumRotations {
		idx := tetris.EncodeAction(4, rot)
		if rot == 3 {
			// Rotation 3 stands in the column to the right of the origin.
			continue
		}
		assert.True(t, space.Mask[idx], "rotation %d", rot)
		assert.Equal(t, tetris.FeatureVector{-1, -1, -1, -1}, space.Features[idx])
	}
	assert.False(t, space.AllMasked())
}

func TestEnumerateOSpawnBlockedAllRotations(t *testing.T) {
	b := tetris.MustBoard(10, 19)
	b.Set(4, tetris.DefaultSpawnRow, true)
	space := tetris.Enumerate(b, tetris.O, tetris.DefaultSpawnRow)

	for rot := range tetris.NumRotations {
		idx := tetris.EncodeAction(4, rot)
		assert.True(t, space.Mask[idx], "rotation %d", rot)
		assert.Equal(t, tetris.MaskedFeatures, space.Features[idx])
	}
}

func TestEnumerateFullGridIsAllMasked(t *testing.T) {
	b := tetris.MustBoard(10, 19)
	for col := range 10 {
		for row := range 19 {
			if row%2 == 0 || col != row%10 {
				b.Set(col, row, true)
			}
		}
	}
	for _, shape := range tetris.AllShapes {
		space := tetris.Enumerate(b, shape, tetris.DefaultSpawnRow)
		assert.True(t, space.AllMasked(), shape.String())
		assert.Empty(t, space.Legal())
	}
}

func TestEnumerateRejectsUnknownShape(t *testing.T) {
	var e tetris.Enumerator
	_, err := e.Enumerate(context.Background(), tetris.MustBoard(10, 19), tetris.Shape(42))
	assert.ErrorIs(t, err, tetris.ErrUnknownShape)
}

func TestEnumerateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{0, 4} {
		e := tetris.Enumerator{SpawnRow: tetris.DefaultSpawnRow, Workers: workers}
		_, err := e.Enumerate(ctx, tetris.MustBoard(10, 19), tetris.L)
		assert.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
	}
}

func TestActionSpaceCheck(t *testing.T) {
	space := tetris.Enumerate(tetris.MustBoard(10, 19), tetris.I, tetris.DefaultSpawnRow)

	assert.ErrorIs(t, space.Check(-1), tetris.ErrActionOutOfRange)
	assert.ErrorIs(t, space.Check(40), tetris.ErrActionOutOfRange)
	assert.ErrorIs(t, space.Check(tetris.EncodeAction(0, 0)), tetris.ErrActionMasked)
	assert.NoError(t, space.Check(tetris.EncodeAction(4, 0)))

	flat := space.Flat()
	assert.Len(t, flat, 40*tetris.FeatureCount)
	assert.Equal(t, float32(-1), flat[0])
}

func TestEnumerationCache(t *testing.T) {
	cache := tetris.NewEnumerationCache(2)
	e := tetris.Enumerator{SpawnRow: tetris.DefaultSpawnRow, Cache: cache}
	b := tetris.MustBoard(10, 19)
	ctx := context.Background()

	first, err := e.Enumerate(ctx, b, tetris.S)
	require.NoError(t, err)
	second, err := e.Enumerate(ctx, b.Clone(), tetris.S)
	require.NoError(t, err)
	assert.Same(t, first, second)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	other, err := e.Enumerate(ctx, b, tetris.Z)
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, tetris.Z, other.Shape)

	b.Set(0, 0, true)
	changed, err := e.Enumerate(ctx, b, tetris.S)
	require.NoError(t, err)
	assert.NotSame(t, first, changed)
	assert.False(t, first.Equal(changed))
	assert.LessOrEqual(t, cache.Stats().Entries, 2)
}
