package agent

import (
	"slices"

	"github.com/plus3/tetrisai/tetris"
)

// EpisodeResult summarises one finished episode.
type EpisodeResult struct {
	Episode    int
	Score      int
	Lines      int
	Pieces     int
	LineCounts [tetris.MaxLinesPerPiece]int
}

// EpisodeRecorder collects an EpisodeResult whenever an episode ends.
type EpisodeRecorder struct {
	// AutoReset starts the next episode as soon as one ends.
	AutoReset bool
	// OnEpisode, if set, is called with each result after it was recorded.
	OnEpisode func(EpisodeResult)

	results []EpisodeResult
}

func (r *EpisodeRecorder) Execute(frame *TurnFrame) {
	if !frame.Outcome.Terminal {
		return
	}
	score, lines := frame.Session.Score()
	result := EpisodeResult{
		Episode:    frame.Episode,
		Score:      score,
		Lines:      lines,
		Pieces:     frame.Session.Pieces(),
		LineCounts: frame.Session.LineCounts(),
	}
	r.results = append(r.results, result)
	if r.OnEpisode != nil {
		r.OnEpisode(result)
	}
	if r.AutoReset {
		frame.Commands.Reset()
	}
}

// Results returns a copy of the recorded episodes.
func (r *EpisodeRecorder) Results() []EpisodeResult {
	return slices.Clone(r.results)
}

// Best returns the highest scoring episode, or false if none finished.
func (r *EpisodeRecorder) Best() (EpisodeResult, bool) {
	if len(r.results) == 0 {
		return EpisodeResult{}, false
	}
	return slices.MaxFunc(r.results, func(a, b EpisodeResult) int {
		return a.Score - b.Score
	}), true
}
