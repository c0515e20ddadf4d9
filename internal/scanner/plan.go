package scanner

import (
	"github.com/npratt/voidhunter/internal/bitmap"
	"github.com/npratt/voidhunter/internal/match"
)

var (
	pickPlan = []bitmap.Signal{bitmap.Tier, bitmap.Roster, bitmap.Challenge, bitmap.Hp}
	halfPlan = []bitmap.Signal{bitmap.InMatchClock, bitmap.Hp, bitmap.Loading, bitmap.Pause, bitmap.ConfirmDialog}
)

// Plan returns the probes worth running in stage. Signals outside the plan
// are reported absent for the tick.
func Plan(stage match.Stage) []bitmap.Signal {
	switch stage.Phase {
	case match.PhasePick:
		return pickPlan
	case match.PhaseFirstHalf:
		if stage.Half == match.Run {
			return append(halfPlan[:len(halfPlan):len(halfPlan)], bitmap.Blackout)
		}
		return halfPlan
	case match.PhaseSecondHalf:
		if stage.Half != match.Prepare {
			return append(halfPlan[:len(halfPlan):len(halfPlan)], bitmap.ResultClock)
		}
		return halfPlan
	}
	return nil
}
