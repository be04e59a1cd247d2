package agent

import "github.com/plus3/tetrisai/tetris"

// RewardConfig sets the per-turn rewards handed to a learning agent.
type RewardConfig struct {
	// BlockPlaced is paid for a placement that clears nothing.
	BlockPlaced float64 `json:"block_placed"`
	// GameOver is added on the turn that ends the episode.
	GameOver float64 `json:"game_over"`
	// LinePoints are paid for clearing 1, 2, 3 or 4 lines, divided by 100.
	LinePoints [tetris.MaxLinesPerPiece]float64 `json:"line_points"`
	// RowBonus scales the extra reward for clearing lines near the floor.
	RowBonus float64 `json:"row_bonus"`
}

// DefaultRewards pays the game's own score table for clears.
func DefaultRewards() RewardConfig {
	var points [tetris.MaxLinesPerPiece]float64
	for i, p := range tetris.PointsTable {
		points[i] = float64(p)
	}
	return RewardConfig{
		BlockPlaced: 0.01,
		GameOver:    -1,
		LinePoints:  points,
		RowBonus:    0.5,
	}
}

// Reward computes the reward of one outcome on a board of the given height.
func (c RewardConfig) Reward(outcome tetris.Outcome, height int) float64 {
	var r float64
	if outcome.Lines > 0 {
		lines := min(outcome.Lines, tetris.MaxLinesPerPiece)
		r = c.LinePoints[lines-1] / 100
		if height > 0 {
			r += c.RowBonus * float64(height-outcome.MinClearedRow) / float64(height)
		}
	} else {
		r = c.BlockPlaced
	}
	if outcome.Terminal {
		r += c.GameOver
	}
	return r
}

// RewardShaper accumulates the reward of each turn.
type RewardShaper struct {
	Config RewardConfig

	// Last is the reward of the most recent turn.
	Last    float64
	Episode float64
	Total   float64
	episode int
}

// NewRewardShaper returns a shaper using cfg.
func NewRewardShaper(cfg RewardConfig) *RewardShaper {
	return &RewardShaper{Config: cfg, episode: -1}
}

func (s *RewardShaper) Execute(frame *TurnFrame) {
	if frame.Episode != s.episode {
		s.episode = frame.Episode
		s.Episode = 0
	}
	s.Last = s.Config.Reward(frame.Outcome, frame.Height)
	s.Episode += s.Last
	s.Total += s.Last
}
