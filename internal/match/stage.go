// Package match reconstructs match progress from per-tick probe readings.
//
// All state lives in a Match and is mutated by a single caller, one tick at a
// time, through Update.
package match

import (
	"fmt"
	"strings"
)

// Phase is the outer part of a Stage.
type Phase int

const (
	PhasePick Phase = iota
	PhaseFirstHalf
	PhaseSecondHalf
	PhaseFinished
	PhaseGameOver
)

var phaseNames = []string{"Pick", "FirstHalf", "SecondHalf", "Finished", "GameOver"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// HalfStage is the progress inside one half. It is only meaningful for
// PhaseFirstHalf and PhaseSecondHalf.
type HalfStage int

const (
	Prepare HalfStage = iota
	Run
	Cleared
)

var halfNames = []string{"Prepare", "Run", "Cleared"}

func (h HalfStage) String() string {
	if h < 0 || int(h) >= len(halfNames) {
		return fmt.Sprintf("HalfStage(%d)", int(h))
	}
	return halfNames[h]
}

// Stage is the authoritative progress pointer. Stages compare with ==.
type Stage struct {
	Phase Phase
	Half  HalfStage
}

// Pick is the team selection screen.
func Pick() Stage { return Stage{Phase: PhasePick} }

// FirstHalf returns the given step of the first half.
func FirstHalf(h HalfStage) Stage { return Stage{Phase: PhaseFirstHalf, Half: h} }

// SecondHalf returns the given step of the second half.
func SecondHalf(h HalfStage) Stage { return Stage{Phase: PhaseSecondHalf, Half: h} }

// Finished is reached when the result screen is confirmed.
func Finished() Stage { return Stage{Phase: PhaseFinished} }

// GameOver is terminal: both results have been recorded.
func GameOver() Stage { return Stage{Phase: PhaseGameOver} }

// InHalf reports whether s is one of the half stages.
func (s Stage) InHalf() bool {
	return s.Phase == PhaseFirstHalf || s.Phase == PhaseSecondHalf
}

// WithHalf returns the stage of the same half at h.
func (s Stage) WithHalf(h HalfStage) Stage {
	return Stage{Phase: s.Phase, Half: h}
}

// String renders the stage as "Pick" or "FirstHalf(Run)".
func (s Stage) String() string {
	if s.InHalf() {
		return fmt.Sprintf("%s(%s)", s.Phase, s.Half)
	}
	return s.Phase.String()
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	st, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseStage reverses Stage.String.
func ParseStage(text string) (Stage, error) {
	name, inner, hasInner := strings.Cut(text, "(")
	var phase Phase = -1
	for i, n := range phaseNames {
		if n == name {
			phase = Phase(i)
		}
	}
	if phase < 0 {
		return Stage{}, fmt.Errorf("unknown stage %q", text)
	}
	st := Stage{Phase: phase}
	if !st.InHalf() {
		if hasInner {
			return Stage{}, fmt.Errorf("unknown stage %q", text)
		}
		return st, nil
	}
	inner, ok := strings.CutSuffix(inner, ")")
	if !hasInner || !ok {
		return Stage{}, fmt.Errorf("unknown stage %q", text)
	}
	for i, n := range halfNames {
		if n == inner {
			st.Half = HalfStage(i)
			return st, nil
		}
	}
	return Stage{}, fmt.Errorf("unknown stage %q", text)
}

// Action is a modal overlay the player has opened. While it is not
// ActionNone, ordinary stage progression is suspended.
type Action int

const (
	ActionNone Action = iota
	ActionPause
	ActionRestartDialog
	ActionExitDialog
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionPause:
		return "Pause"
	case ActionRestartDialog:
		return "RestartDialog"
	case ActionExitDialog:
		return "ExitDialog"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
