package tetris

import "math/rand/v2"

// Bag deals shapes in shuffled runs of seven so that every shape appears
// exactly once per run.
type Bag struct {
	rng     *rand.Rand
	pending []Shape
}

// NewBag creates a bag drawing from rng. A nil rng uses an unseeded PCG
// source.
func NewBag(rng *rand.Rand) *Bag {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Bag{
		rng:     rng,
		pending: make([]Shape, 0, NumShapes),
	}
}

// NewSeededBag creates a bag with a deterministic shuffle sequence.
func NewSeededBag(seed uint64) *Bag {
	return NewBag(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func (b *Bag) refill() {
	if len(b.pending) > 0 {
		return
	}
	b.pending = append(b.pending[:0], AllShapes[:]...)
	b.rng.Shuffle(len(b.pending), func(i, j int) {
		b.pending[i], b.pending[j] = b.pending[j], b.pending[i]
	})
}

// Next removes and returns the next shape, reshuffling when the run is
// exhausted.
func (b *Bag) Next() Shape {
	b.refill()
	s := b.pending[0]
	b.pending = b.pending[1:]
	return s
}

// Peek returns the shape Next would return without consuming it.
func (b *Bag) Peek() Shape {
	b.refill()
	return b.pending[0]
}

// Remaining returns how many shapes are left in the current run.
func (b *Bag) Remaining() int {
	return len(b.pending)
}
