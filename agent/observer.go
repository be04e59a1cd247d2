package agent

import "github.com/plus3/tetrisai/tetris"

// Observer reacts to each resolved turn. Observers that need to change the
// session do so through frame.Commands.
type Observer interface {
	Execute(frame *TurnFrame)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(frame *TurnFrame)

func (f ObserverFunc) Execute(frame *TurnFrame) {
	f(frame)
}

// TurnFrame describes one resolved turn.
type TurnFrame struct {
	Episode int
	// Turn is the zero-based index of the turn within its episode.
	Turn    int
	Action  int
	Space   *tetris.ActionSpace
	Outcome tetris.Outcome
	Session *tetris.Session
	// Height of the board, for reward shaping.
	Height   int
	Commands *Commands
}
