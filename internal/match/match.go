package match

import (
	"errors"
	"fmt"
	"slices"

	"github.com/npratt/voidhunter/internal/clock"
	"github.com/npratt/voidhunter/internal/probe"
)

// ResultsPerMatch is the number of results that complete a match.
const ResultsPerMatch = 2

// ErrIncompleteResult means Finished was reached without a tier, roster or
// result clock. The transition rules make this unreachable; seeing it is a bug.
var ErrIncompleteResult = errors.New("finished without complete result data")

// Result is the immutable record of one completed cycle.
type Result struct {
	Roster   probe.Roster `json:"roster"`
	Tier     probe.Tier   `json:"tier"`
	Clock    clock.Clock  `json:"clock"`
	Restarts uint         `json:"restarts"`
}

// TotalClock sums the clocks of results.
func TotalClock(results []Result) clock.Clock {
	var total uint64
	for _, r := range results {
		total += r.Clock.TotalSeconds()
	}
	return clock.FromSeconds(total)
}

// Step describes what one Update changed.
type Step struct {
	From, To     Stage
	ActionBefore Action
	Action       Action
	// Restarted is set when a restart was counted on this tick.
	Restarted bool
	// Result is set when a result was recorded on this tick.
	Result *Result
}

// StageChanged reports whether the stage moved.
func (s Step) StageChanged() bool { return s.From != s.To }

// Match owns the state of one match. It is not safe for concurrent use.
type Match struct {
	th      Thresholds
	state   State
	results []Result
}

// New creates a match in Pick.
func New(th Thresholds) *Match {
	return &Match{
		th:      th,
		state:   NewState(),
		results: make([]Result, 0, ResultsPerMatch),
	}
}

// Update folds one tick of readings into the state and advances the stage.
// Readings are applied in signal order regardless of the order given, so a
// confirm dialog always wins over the pause menu behind it.
func (m *Match) Update(readings []probe.Reading) (Step, error) {
	s := &m.state
	step := Step{From: s.Stage, ActionBefore: s.Action}

	ordered := slices.Clone(readings)
	slices.SortStableFunc(ordered, func(a, b probe.Reading) int { return int(a.Signal) - int(b.Signal) })
	for _, r := range ordered {
		s.apply(r)
	}
	s.settleAction()
	resumed := step.ActionBefore == ActionPause && s.Action == ActionNone

	out := Evaluate(*s, m.th, resumed)
	s.Tick = out.Tick
	s.RestartTicks = out.RestartTicks
	s.Dirty = out.Dirty
	if out.CountRestart {
		s.Restarts++
		step.Restarted = true
	}
	if out.ClearAction {
		s.Action = ActionNone
	}
	if out.Discard {
		m.state = NewState()
	}
	if out.Fired {
		s.Stage = out.Next
		s.Action = ActionNone
	}

	if s.Stage == Finished() {
		res, err := m.record()
		if err != nil {
			step.To = s.Stage
			step.Action = s.Action
			return step, err
		}
		step.Result = &res
	}

	step.To = s.Stage
	step.Action = s.Action
	return step, nil
}

// record moves the finished cycle into the result list.
func (m *Match) record() (Result, error) {
	s := &m.state
	if s.Tier == nil || s.Roster == nil || s.ResultClock == nil {
		return Result{}, fmt.Errorf("%w: tier=%v roster=%v clock=%v",
			ErrIncompleteResult, s.Tier != nil, s.Roster != nil, s.ResultClock != nil)
	}
	res := Result{
		Roster:   *s.Roster,
		Tier:     *s.Tier,
		Clock:    *s.ResultClock,
		Restarts: s.Restarts,
	}
	m.results = append(m.results, res)

	if len(m.results) < ResultsPerMatch {
		m.state = NewState()
		return res, nil
	}
	s.Tier, s.Roster, s.ResultClock = nil, nil, nil
	s.Stage = GameOver()
	return res, nil
}

// Stage returns the current stage.
func (m *Match) Stage() Stage { return m.state.Stage }

// Over reports whether every result has been recorded.
func (m *Match) Over() bool { return m.state.Stage == GameOver() }

// State returns a copy of the current state.
func (m *Match) State() State { return m.state.clone() }

// Results returns a copy of the recorded results.
func (m *Match) Results() []Result { return slices.Clone(m.results) }

// Reset discards all progress, including results.
func (m *Match) Reset() {
	m.state = NewState()
	m.results = m.results[:0]
}
