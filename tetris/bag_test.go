package tetris_test

import (
	"math/rand/v2"
	"testing"

	"github.com/plus3/tetrisai/tetris"
	"github.com/stretchr/testify/assert"
)

func TestBagDealsEveryShapeOncePerRun(t *testing.T) {
	for seed := uint64(1); seed <= 50; seed++ {
		bag := tetris.NewSeededBag(seed)
		for run := range 3 {
			seen := make(map[tetris.Shape]int)
			for range tetris.NumShapes {
				seen[bag.Next()]++
			}
			assert.Len(t, seen, tetris.NumShapes, "seed %d run %d", seed, run)
			for shape, n := range seen {
				assert.Equal(t, 1, n, "seed %d run %d shape %s", seed, run, shape)
			}
		}
	}
}

func TestBagPeekDoesNotConsume(t *testing.T) {
	bag := tetris.NewSeededBag(7)
	assert.Equal(t, 0, bag.Remaining())

	peeked := bag.Peek()
	assert.Equal(t, tetris.NumShapes, bag.Remaining())
	assert.Equal(t, peeked, bag.Peek())
	assert.Equal(t, peeked, bag.Next())
	assert.Equal(t, tetris.NumShapes-1, bag.Remaining())
}

func TestBagPeekRefillsWhenEmpty(t *testing.T) {
	bag := tetris.NewSeededBag(3)
	for range tetris.NumShapes {
		bag.Next()
	}
	assert.Equal(t, 0, bag.Remaining())

	next := bag.Peek()
	assert.Equal(t, tetris.NumShapes, bag.Remaining())
	assert.Equal(t, next, bag.Next())
}

func TestBagIsDeterministicPerSeed(t *testing.T) {
	a := tetris.NewBag(rand.New(rand.NewPCG(1, 2)))
	b := tetris.NewBag(rand.New(rand.NewPCG(1, 2)))
	for range 5 * tetris.NumShapes {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestUnseededBag(t *testing.T) {
	bag := tetris.NewBag(nil)
	seen := make(map[tetris.Shape]bool)
	for range tetris.NumShapes {
		seen[bag.Next()] = true
	}
	assert.Len(t, seen, tetris.NumShapes)
}
