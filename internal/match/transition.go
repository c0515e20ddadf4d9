package match

import "github.com/npratt/voidhunter/internal/bitmap"

// Outcome is what Evaluate decided for one tick.
type Outcome struct {
	// Next is the stage to move to when Fired is set.
	Next  Stage
	Fired bool

	Tick         int
	RestartTicks int
	Dirty        bool

	// CountRestart adds one to the restart count.
	CountRestart bool
	// ClearAction resets the player action to ActionNone.
	ClearAction bool
	// Discard drops everything learned in the current cycle.
	Discard bool
}

func stay(s State) Outcome {
	return Outcome{Tick: s.Tick, RestartTicks: s.RestartTicks, Dirty: s.Dirty}
}

func (o Outcome) to(next Stage) Outcome {
	o.Next = next
	o.Fired = true
	o.Tick = 0
	return o
}

// Evaluate decides the next stage from s. It does not modify s.
//
// resumed reports that a pause ended on this tick, which arms the named
// skip-ahead in the Run debounce.
func Evaluate(s State, th Thresholds, resumed bool) Outcome {
	switch {
	case s.Stage.Phase == PhasePick:
		return evalPick(s)
	case s.Stage.InHalf():
		return evalHalf(s, th, resumed)
	default:
		return stay(s)
	}
}

func evalPick(s State) Outcome {
	v := s.Visible
	out := stay(s)
	if s.Roster != nil && s.Tier != nil &&
		!v.Get(bitmap.Tier) && !v.Get(bitmap.Roster) &&
		(v.Get(bitmap.Challenge) || v.Get(bitmap.Hp)) {
		return out.to(FirstHalf(Prepare))
	}
	return out
}

// reloading is the screen shown while a restart or exit takes effect: the
// loading text without the match HUD.
func reloading(v bitmap.Bitmap) bool {
	return v.Get(bitmap.Loading) && !v.Get(bitmap.Hp) && !v.Get(bitmap.InMatchClock)
}

func evalHalf(s State, th Thresholds, resumed bool) Outcome {
	v := s.Visible
	out := stay(s)
	if s.Action != ActionRestartDialog {
		out.RestartTicks = 0
	}

	switch s.Action {
	case ActionRestartDialog:
		if !reloading(v) {
			out.RestartTicks = 0
			return out
		}
		out.RestartTicks++
		if out.RestartTicks < th.Restart {
			return out
		}
		out.RestartTicks = 0
		out.CountRestart = s.Dirty
		out.ClearAction = true
		out.Dirty = false
		return out.to(s.Stage.WithHalf(Prepare))
	case ActionExitDialog:
		if !reloading(v) {
			return out
		}
		out.ClearAction = true
		out.Discard = true
		return out.to(Pick())
	case ActionPause:
		return out
	}

	clockKnown := s.InMatchClock != nil
	hp := v.Get(bitmap.Hp)
	clockUp := v.Get(bitmap.InMatchClock)

	switch s.Stage.Half {
	case Prepare:
		out.Dirty = false
		if clockKnown && hp && clockUp {
			out.Dirty = true
			return out.to(s.Stage.WithHalf(Run))
		}
		return out

	case Run:
		out.Dirty = true
		if s.Stage.Phase == PhaseFirstHalf && v.Get(bitmap.Blackout) {
			return out.to(SecondHalf(Prepare))
		}
		if !runCleared(s) {
			out.Tick = 0
			return out
		}
		limit := th.clearThreshold(s.Stage)
		if resumed {
			out.Tick = max(out.Tick, min(th.PauseResumeTick, limit))
		}
		if out.Tick >= limit {
			return out.to(s.Stage.WithHalf(Cleared))
		}
		out.Tick++
		return out

	case Cleared:
		if s.Stage.Phase == PhaseFirstHalf {
			if clockKnown && !hp && !clockUp {
				return out.to(SecondHalf(Prepare))
			}
			return out
		}
		if s.ResultClock != nil && v.Get(bitmap.ResultClock) && !hp && !clockUp {
			return out.to(Finished())
		}
		return out
	}
	return out
}

// runCleared is the condition that, held long enough, marks a Run as cleared.
// The first half hides only the clock after a room clear; the second half
// hides the whole HUD and shows the result clock.
func runCleared(s State) bool {
	v := s.Visible
	if s.InMatchClock == nil || v.Get(bitmap.InMatchClock) {
		return false
	}
	if s.Stage.Phase == PhaseFirstHalf {
		return v.Get(bitmap.Hp)
	}
	return !v.Get(bitmap.Hp) && v.Get(bitmap.ResultClock)
}
