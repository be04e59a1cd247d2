package agent

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/plus3/tetrisai/tetris"
)

var (
	// ErrNoLegalAction is returned by a policy asked to choose from a fully
	// masked action space.
	ErrNoLegalAction = errors.New("agent: no legal action")
	// ErrUnknownPolicy is returned by NewPolicy for an unrecognised name.
	ErrUnknownPolicy = errors.New("agent: unknown policy")
)

// Policy picks one action index from an action space.
type Policy interface {
	Choose(space *tetris.ActionSpace) (int, error)
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(space *tetris.ActionSpace) (int, error)

func (f PolicyFunc) Choose(space *tetris.ActionSpace) (int, error) {
	return f(space)
}

// Weights scores a normalised feature vector linearly.
type Weights struct {
	Lines     float64 `json:"lines"`
	Height    float64 `json:"height"`
	Bumpiness float64 `json:"bumpiness"`
	Holes     float64 `json:"holes"`
}

// DefaultWeights rewards cleared lines and penalises height, bumpiness and
// holes.
var DefaultWeights = Weights{
	Lines:     0.760666,
	Height:    -0.510066,
	Bumpiness: -0.184483,
	Holes:     -0.35663,
}

// Score returns the weighted sum of v.
func (w Weights) Score(v tetris.FeatureVector) float64 {
	return w.Lines*v[tetris.FeatureLines] +
		w.Height*v[tetris.FeatureHeight] +
		w.Bumpiness*v[tetris.FeatureBumpiness] +
		w.Holes*v[tetris.FeatureHoles]
}

// HeuristicPolicy picks the unmasked action with the highest weighted
// score. Ties go to the lowest index.
type HeuristicPolicy struct {
	Weights Weights
}

// NewHeuristicPolicy returns a greedy policy using w.
func NewHeuristicPolicy(w Weights) *HeuristicPolicy {
	return &HeuristicPolicy{Weights: w}
}

func (p *HeuristicPolicy) Choose(space *tetris.ActionSpace) (int, error) {
	best := -1
	var bestScore float64
	for i, v := range space.Features {
		if space.Mask[i] {
			continue
		}
		if score := p.Weights.Score(v); best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return 0, ErrNoLegalAction
	}
	return best, nil
}

// RandomPolicy picks uniformly among unmasked actions.
type RandomPolicy struct {
	rng *rand.Rand
}

// NewRandomPolicy returns a random policy with a fixed seed.
func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

func (p *RandomPolicy) Choose(space *tetris.ActionSpace) (int, error) {
	legal := space.Legal()
	if len(legal) == 0 {
		return 0, ErrNoLegalAction
	}
	return legal[p.rng.IntN(len(legal))], nil
}

// NewPolicy builds a policy by name: "heuristic" or "random".
func NewPolicy(name string, w Weights, seed uint64) (Policy, error) {
	switch strings.ToLower(name) {
	case "heuristic", "":
		return NewHeuristicPolicy(w), nil
	case "random":
		return NewRandomPolicy(seed), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}
