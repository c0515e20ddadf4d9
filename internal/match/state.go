package match

import (
	"github.com/npratt/voidhunter/internal/bitmap"
	"github.com/npratt/voidhunter/internal/clock"
	"github.com/npratt/voidhunter/internal/probe"
)

// Thresholds are the tunable debounce constants.
type Thresholds struct {
	// FirstHalfClear is the number of consecutive confirming ticks counted
	// before FirstHalf(Run) becomes Cleared; the transition fires on the tick
	// after the count is reached.
	FirstHalfClear int `mapstructure:"first_half_clear" yaml:"first_half_clear" json:"first_half_clear"`
	// SecondHalfClear is the same for SecondHalf(Run). The second half has no
	// screen where only the hp bar shows, so it needs a much longer run.
	SecondHalfClear int `mapstructure:"second_half_clear" yaml:"second_half_clear" json:"second_half_clear"`
	// Restart is the number of reload ticks after a restart dialog that count
	// as one restart.
	Restart int `mapstructure:"restart" yaml:"restart" json:"restart"`
	// PauseResumeTick seeds the clear counter when a pause ends in Run with
	// the clear condition already holding: the room was cleared right before
	// the pause menu covered it.
	PauseResumeTick int `mapstructure:"pause_resume_tick" yaml:"pause_resume_tick" json:"pause_resume_tick"`
}

// DefaultThresholds returns the tuned defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FirstHalfClear:  2,
		SecondHalfClear: 18,
		Restart:         6,
		PauseResumeTick: 1,
	}
}

// clearThreshold returns the Run debounce threshold for the half of s.
func (t Thresholds) clearThreshold(s Stage) int {
	if s.Phase == PhaseSecondHalf {
		return t.SecondHalfClear
	}
	return t.FirstHalfClear
}

// State is the mutable record of one pick-to-finish cycle.
// Nil pointers are values that have never been read.
type State struct {
	Stage  Stage
	Action Action

	Roster       *probe.Roster
	Tier         *probe.Tier
	InMatchClock *clock.Clock
	ResultClock  *clock.Clock

	Restarts uint
	// Dirty is set once the current half has been seen running.
	Dirty bool
	// Tick counts consecutive ticks the clear condition has held in Run.
	Tick int
	// RestartTicks counts consecutive reload ticks under a restart dialog.
	RestartTicks int

	Visible bitmap.Bitmap
}

// NewState returns the initial state: Pick, nothing known.
func NewState() State {
	return State{Stage: Pick()}
}

// apply folds one reading into the state. A present value replaces the
// last-known one; absence only clears the visibility bit.
func (s *State) apply(r probe.Reading) {
	s.Visible.Set(r.Signal, r.Present)
	if !r.Present {
		return
	}

	switch r.Signal {
	case bitmap.Tier:
		t := r.Tier
		s.Tier = &t
	case bitmap.Roster:
		ro := r.Roster
		s.Roster = &ro
	case bitmap.InMatchClock:
		c := r.Clock
		s.InMatchClock = &c
	case bitmap.ResultClock:
		c := r.Clock
		s.ResultClock = &c
	case bitmap.Pause:
		s.Action = ActionPause
		s.RestartTicks = 0
	case bitmap.ConfirmDialog:
		switch r.Dialog {
		case probe.DialogRestart:
			s.Action = ActionRestartDialog
		case probe.DialogExit:
			s.Action = ActionExitDialog
		}
	}
}

// settleAction ends the current action once the match HUD is back and no
// overlay is showing.
func (s *State) settleAction() {
	v := s.Visible
	if !v.Get(bitmap.Pause) && !v.Get(bitmap.ConfirmDialog) &&
		(v.Get(bitmap.Hp) || v.Get(bitmap.InMatchClock) || v.Get(bitmap.ResultClock)) {
		s.Action = ActionNone
	}
}

// clone returns a deep copy safe to hand to other goroutines.
func (s State) clone() State {
	out := s
	if s.Roster != nil {
		r := *s.Roster
		out.Roster = &r
	}
	if s.Tier != nil {
		t := *s.Tier
		out.Tier = &t
	}
	if s.InMatchClock != nil {
		c := *s.InMatchClock
		out.InMatchClock = &c
	}
	if s.ResultClock != nil {
		c := *s.ResultClock
		out.ResultClock = &c
	}
	return out
}
