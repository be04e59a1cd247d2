package tetris

import "errors"

var (
	ErrUnknownShape       = errors.New("unknown shape")
	ErrInvalidDimensions  = errors.New("invalid board dimensions")
	ErrInvalidSpawn       = errors.New("spawn position does not fit the board")
	ErrActionOutOfRange   = errors.New("action index out of range")
	ErrActionMasked       = errors.New("action is masked")
	ErrNotAwaitingAction  = errors.New("session is not awaiting an action")
	ErrTerminal           = errors.New("session is terminal")
	ErrEpisodeReset       = errors.New("episode was reset during enumeration")
	ErrStaleTurn          = errors.New("turn was played during enumeration")
	ErrSimulationDiverged = errors.New("placement differs from enumerated candidate")
)
