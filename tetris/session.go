package tetris

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/kamstrup/intmap"
)

// Default spawn position for a 10x19 board: fifth column, seventeenth row.
const (
	DefaultSpawnColumn = 4
	DefaultSpawnRow    = 16
)

// PointsTable holds the score awarded for clearing 1, 2, 3 or 4 lines.
var PointsTable = [MaxLinesPerPiece]int{40, 100, 300, 1200}

// PointsFor returns the score for clearing lines rows with one piece.
func PointsFor(lines int) int {
	if lines <= 0 {
		return 0
	}
	return PointsTable[min(lines, MaxLinesPerPiece)-1]
}

// State is a phase of the turn state machine.
type State int

const (
	Spawning State = iota
	AwaitingAction
	Resolving
	Terminal
)

func (s State) String() string {
	switch s {
	case Spawning:
		return "spawning"
	case AwaitingAction:
		return "awaiting-action"
	case Resolving:
		return "resolving"
	case Terminal:
		return "terminal"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config describes a session.
type Config struct {
	Width       int
	Height      int
	SpawnColumn int
	SpawnRow    int
	// Workers bounds concurrent simulations during enumeration.
	Workers int
	// Seed fixes the bag shuffles. Zero picks a random seed per episode.
	Seed uint64
	// Cache is optional and may be shared between sessions.
	Cache *EnumerationCache
}

// DefaultConfig returns the classic 10x19 configuration.
func DefaultConfig() Config {
	return Config{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		SpawnColumn: DefaultSpawnColumn,
		SpawnRow:    DefaultSpawnRow,
	}
}

// ValidateSpawn checks that every rotation of every shape fits vertically at
// spawnRow and that rotation 0 of every shape fits horizontally at
// spawnColumn.
func ValidateSpawn(width, height, spawnColumn, spawnRow int) error {
	if width < 4 || height < 4 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	_, _, minDY, maxDY := Extents()
	if spawnRow+minDY < 0 || spawnRow+maxDY >= height {
		return fmt.Errorf("%w: row %d on height %d", ErrInvalidSpawn, spawnRow, height)
	}
	for _, shape := range AllShapes {
		for _, o := range Offsets(shape, 0) {
			if c := spawnColumn + o.DX; c < 0 || c >= width {
				return fmt.Errorf("%w: column %d on width %d (%s)", ErrInvalidSpawn, spawnColumn, width, shape)
			}
		}
	}
	return nil
}

type enumerator interface {
	Enumerate(ctx context.Context, board *Board, shape Shape) (*ActionSpace, error)
}

// Outcome reports the effect of one applied action.
type Outcome struct {
	Action        int
	Column        int
	Rotation      int
	Shape         Shape
	Cells         Cells
	Lines         int
	MinClearedRow int
	Points        int
	Terminal      bool
}

// Session owns the authoritative board and bag of one game and advances it
// one turn at a time. All methods are safe for concurrent use, but only one
// turn is ever resolved at a time.
type Session struct {
	mu   sync.Mutex
	cfg  Config
	enum enumerator

	board   *Board
	bag     *Bag
	state   State
	current Shape
	space   *ActionSpace

	score     int
	lines     int
	pieces    int
	highScore int
	tally     *intmap.Map[int, int]

	episode int
	epoch   uint64
	// turn advances every time a new piece is drawn.
	turn   uint64
	epCtx  context.Context
	cancel context.CancelFunc
}

// StartSession creates a session with default settings for the given
// geometry and spawns its first piece.
func StartSession(width, height, spawnColumn, spawnRow int) (*Session, error) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = width, height
	cfg.SpawnColumn, cfg.SpawnRow = spawnColumn, spawnRow
	return NewSession(context.Background(), cfg)
}

// NewSession validates cfg, creates the session and spawns the first piece.
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	if err := ValidateSpawn(cfg.Width, cfg.Height, cfg.SpawnColumn, cfg.SpawnRow); err != nil {
		return nil, err
	}
	s := &Session{
		cfg: cfg,
		enum: &Enumerator{
			SpawnRow: cfg.SpawnRow,
			Workers:  cfg.Workers,
			Cache:    cfg.Cache,
		},
		episode: -1,
	}
	if err := s.Reset(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) newBag() *Bag {
	if s.cfg.Seed == 0 {
		return NewBag(nil)
	}
	return NewBag(rand.New(rand.NewPCG(s.cfg.Seed, uint64(s.episode))))
}

// Reset discards the current game and starts a new episode with a fresh
// board and bag. Any enumeration still running for the old episode is
// cancelled and its result dropped.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.highScore = max(s.highScore, s.score)
	s.epoch++
	s.episode++
	s.epCtx, s.cancel = context.WithCancel(context.Background())

	s.board = MustBoard(s.cfg.Width, s.cfg.Height)
	s.bag = s.newBag()
	s.score, s.lines, s.pieces = 0, 0, 0
	s.tally = intmap.New[int, int](MaxLinesPerPiece)
	s.space = nil
	s.draw()
	s.mu.Unlock()

	return s.Prepare(ctx)
}

// draw pulls the next shape from the bag. Callers hold mu.
func (s *Session) draw() {
	s.current = s.bag.Next()
	s.turn++
	s.space = nil
	s.state = Spawning
}

// Prepare enumerates the action space of the current piece if that has not
// happened yet, moving the session to AwaitingAction or Terminal. It blocks
// until every placement has been evaluated. A result is only stored for the
// turn it was computed for: if the episode was reset meanwhile Prepare
// returns ErrEpisodeReset, if the turn was already played it returns
// ErrStaleTurn, and if another caller prepared the turn first it returns nil.
func (s *Session) Prepare(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Spawning {
		s.mu.Unlock()
		return nil
	}
	epoch, turn := s.epoch, s.turn
	board := s.board.Clone()
	shape := s.current
	epCtx := s.epCtx
	s.mu.Unlock()

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	unregister := context.AfterFunc(epCtx, stop)
	defer unregister()

	space, err := s.enum.Enumerate(ctx, board, shape)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return ErrEpisodeReset
	}
	if s.turn != turn {
		return fmt.Errorf("%w: %s", ErrStaleTurn, shape)
	}
	if s.state != Spawning {
		// Another caller prepared this turn first.
		return nil
	}
	if err != nil {
		return fmt.Errorf("enumerate %s: %w", shape, err)
	}
	s.space = space
	if space.AllMasked() {
		s.state = Terminal
		s.highScore = max(s.highScore, s.score)
	} else {
		s.state = AwaitingAction
	}
	return nil
}

// ActionSpace returns the enumerated placements of the current piece. It is
// available once the session is AwaitingAction, and stays readable (fully
// masked) after the game ended.
func (s *Session) ActionSpace() (*ActionSpace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.space == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAwaitingAction, s.state)
	}
	return s.space, nil
}

// ApplyAction commits the chosen action to the board, clears lines, scores
// the turn and spawns the next piece. Out of range and masked indices fail
// without touching the board.
func (s *Session) ApplyAction(ctx context.Context, index int) (Outcome, error) {
	outcome, err := s.resolve(index)
	if err != nil {
		return outcome, err
	}
	if err := s.Prepare(ctx); err != nil {
		return outcome, err
	}

	s.mu.Lock()
	outcome.Terminal = s.state == Terminal
	s.mu.Unlock()
	return outcome, nil
}

func (s *Session) resolve(index int) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Terminal:
		return Outcome{Terminal: true}, ErrTerminal
	case AwaitingAction:
	default:
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotAwaitingAction, s.state)
	}
	if err := s.space.Check(index); err != nil {
		return Outcome{}, err
	}

	s.state = Resolving
	col, rot := DecodeAction(index)
	p := Simulate(s.board, s.current, rot, col, s.cfg.SpawnRow)
	if want := s.space.Candidates[index].Placement; p != want {
		s.state = AwaitingAction
		return Outcome{}, fmt.Errorf("%w: action %d landed at %v, enumerated %v", ErrSimulationDiverged, index, p.Cells, want.Cells)
	}

	s.board.Place(p.Cells)
	lines, minRow := s.board.ClearLines()
	points := PointsFor(lines)
	s.score += points
	s.lines += lines
	s.pieces++
	if lines > 0 {
		n, _ := s.tally.Get(lines)
		s.tally.Put(lines, n+1)
	}

	outcome := Outcome{
		Action:        index,
		Column:        col,
		Rotation:      rot,
		Shape:         s.current,
		Cells:         p.Cells,
		Lines:         lines,
		MinClearedRow: minRow,
		Points:        points,
	}
	s.draw()
	return outcome, nil
}

// Snapshot returns a copy of the board indexed as [col][row].
func (s *Session) Snapshot() [][]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Snapshot()
}

// Board returns a copy of the authoritative board.
func (s *Session) Board() *Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone()
}

// Score returns the points and total lines of the current episode.
func (s *Session) Score() (points, totalLines int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score, s.lines
}

// HighScore returns the best score of any episode played so far.
func (s *Session) HighScore() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return max(s.highScore, s.score)
}

// LineCounts returns how many single, double, triple and four-line clears
// happened this episode.
func (s *Session) LineCounts() [MaxLinesPerPiece]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var counts [MaxLinesPerPiece]int
	s.tally.ForEach(func(lines, n int) bool {
		if lines >= 1 && lines <= MaxLinesPerPiece {
			counts[lines-1] = n
		}
		return true
	})
	return counts
}

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Terminal reports whether the episode is over.
func (s *Session) Terminal() bool {
	return s.State() == Terminal
}

// Current returns the shape awaiting placement.
func (s *Session) Current() Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Peek returns the shape that follows the current one.
func (s *Session) Peek() Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bag.Peek()
}

// Pieces returns the number of pieces placed this episode.
func (s *Session) Pieces() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pieces
}

// Episode returns the zero-based episode counter.
func (s *Session) Episode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.episode
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// SpawnAction is the action that drops the current piece unrotated at the
// spawn column.
func (s *Session) SpawnAction() int {
	return EncodeAction(s.cfg.SpawnColumn, 0)
}

// Close cancels any in-flight enumeration. The session stays readable.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// IsReset reports whether err means the episode was replaced mid-turn.
func IsReset(err error) bool {
	return errors.Is(err, ErrEpisodeReset)
}

// IsStale reports whether err means an enumeration finished after its turn
// was already played, by a reset or by another caller.
func IsStale(err error) bool {
	return errors.Is(err, ErrEpisodeReset) || errors.Is(err, ErrStaleTurn)
}
