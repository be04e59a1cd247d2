package agent

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/plus3/tetrisai/tetris"
)

// ErrStopped is returned by Once when an observer called Commands.Stop.
var ErrStopped = errors.New("agent: stopped by observer")

// DriverStats provides statistics about driver execution.
type DriverStats struct {
	ObserverCount int
	Turns         int64
	Episodes      int
	Policy        StageStats
	Apply         StageStats
	Observers     []StageStats
}

// StageStats provides timing statistics for one stage of a turn.
type StageStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type stageStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func newStageStats(name string) *stageStatsInternal {
	return &stageStatsInternal{
		name:        name,
		minDuration: time.Duration(1<<63 - 1),
	}
}

func (s *stageStatsInternal) record(d time.Duration) {
	s.executionCount++
	s.lastDuration = d
	s.totalDuration += d
	s.minDuration = min(s.minDuration, d)
	s.maxDuration = max(s.maxDuration, d)
}

func (s *stageStatsInternal) snapshot() StageStats {
	out := StageStats{
		Name:           s.name,
		ExecutionCount: s.executionCount,
		MinDuration:    s.minDuration,
		MaxDuration:    s.maxDuration,
		LastDuration:   s.lastDuration,
		TotalDuration:  s.totalDuration,
	}
	if s.executionCount > 0 {
		out.AvgDuration = s.totalDuration / time.Duration(s.executionCount)
	} else {
		out.MinDuration = 0
	}
	return out
}

// Driver plays a session turn by turn: the policy picks an action, the
// session resolves it, and every registered observer runs in registration
// order. A Driver is not safe for concurrent use; run one per session.
type Driver struct {
	session   *tetris.Session
	policy    Policy
	observers []Observer

	policyStats   *stageStatsInternal
	applyStats    *stageStatsInternal
	observerStats []*stageStatsInternal

	commands *Commands
	turns    int64
	episodes int
}

// NewDriver creates a driver for session using policy.
func NewDriver(session *tetris.Session, policy Policy) *Driver {
	return &Driver{
		session:     session,
		policy:      policy,
		observers:   make([]Observer, 0),
		policyStats: newStageStats("policy"),
		applyStats:  newStageStats("apply"),
		commands:    newCommands(),
	}
}

// Register adds an observer.
func (d *Driver) Register(observer Observer) {
	d.observers = append(d.observers, observer)

	observerType := reflect.TypeOf(observer)
	if observerType.Kind() == reflect.Ptr {
		observerType = observerType.Elem()
	}
	d.observerStats = append(d.observerStats, newStageStats(observerType.Name()))
}

// Session returns the driven session.
func (d *Driver) Session() *tetris.Session {
	return d.session
}

// Once plays a single turn. It returns tetris.ErrTerminal once the episode
// is over and ErrStopped if an observer asked to stop. If ctx ends after the
// piece was committed, the piece stays on the board but observers do not
// see the turn.
func (d *Driver) Once(ctx context.Context) error {
	if err := d.session.Prepare(ctx); err != nil {
		return err
	}
	if d.session.Terminal() {
		return tetris.ErrTerminal
	}
	space, err := d.session.ActionSpace()
	if err != nil {
		return err
	}

	start := time.Now()
	action, err := d.policy.Choose(space)
	d.policyStats.record(time.Since(start))
	if err != nil {
		return fmt.Errorf("choose %s: %w", space.Shape, err)
	}

	episode := d.session.Episode()
	start = time.Now()
	outcome, err := d.session.ApplyAction(ctx, action)
	d.applyStats.record(time.Since(start))
	if err != nil {
		return err
	}

	frame := &TurnFrame{
		Episode:  episode,
		Turn:     d.session.Pieces() - 1,
		Action:   action,
		Space:    space,
		Outcome:  outcome,
		Session:  d.session,
		Height:   d.session.Config().Height,
		Commands: d.commands,
	}
	for i, observer := range d.observers {
		start := time.Now()
		observer.Execute(frame)
		d.observerStats[i].record(time.Since(start))
	}

	d.turns++
	if outcome.Terminal {
		d.episodes++
	}

	reset, stop := d.commands.flush()
	if reset {
		if err := d.session.Reset(ctx); err != nil {
			return err
		}
	}
	if stop {
		return ErrStopped
	}
	return nil
}

// Run plays turns until episodes episodes have ended, an observer stops the
// driver or ctx is done. A terminal session is reset before the next turn.
// With episodes <= 0 Run plays until stopped.
func (d *Driver) Run(ctx context.Context, episodes int) error {
	for {
		if episodes > 0 && d.episodes >= episodes {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.session.Terminal() {
			if err := d.session.Reset(ctx); err != nil {
				return err
			}
		}

		err := d.Once(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrStopped):
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case tetris.IsStale(err):
		default:
			return err
		}
	}
}

// GetStats returns statistics about driver execution.
func (d *Driver) GetStats() *DriverStats {
	stats := &DriverStats{
		ObserverCount: len(d.observers),
		Turns:         d.turns,
		Episodes:      d.episodes,
		Policy:        d.policyStats.snapshot(),
		Apply:         d.applyStats.snapshot(),
		Observers:     make([]StageStats, len(d.observerStats)),
	}
	for i, internal := range d.observerStats {
		stats.Observers[i] = internal.snapshot()
	}
	return stats
}
