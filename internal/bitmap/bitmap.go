// Package bitmap tracks which probes produced a value on the latest scan tick.
package bitmap

import "strings"

// Signal identifies one probe kind.
type Signal uint8

const (
	Tier Signal = iota
	Roster
	Hp
	InMatchClock
	ResultClock
	Loading
	Pause
	ConfirmDialog
	Challenge
	Blackout

	numSignals
)

var signalNames = [numSignals]string{
	Tier:          "tier",
	Roster:        "roster",
	Hp:            "hp",
	InMatchClock:  "clock",
	ResultClock:   "result_clock",
	Loading:       "loading",
	Pause:         "pause",
	ConfirmDialog: "dialog",
	Challenge:     "challenge",
	Blackout:      "blackout",
}

func (s Signal) String() string {
	if s >= numSignals {
		return "unknown"
	}
	return signalNames[s]
}

// Signals returns every tracked signal in bit order.
func Signals() []Signal {
	out := make([]Signal, 0, numSignals)
	for s := Signal(0); s < numSignals; s++ {
		out = append(out, s)
	}
	return out
}

// Bitmap holds one presence bit per Signal. The zero value has every bit clear.
// Bits are only ever overwritten individually; a signal that was not sampled
// keeps whatever answer it had before.
type Bitmap uint16

// Set overwrites the bit for s.
func (b *Bitmap) Set(s Signal, visible bool) {
	if s >= numSignals {
		return
	}
	if visible {
		*b |= 1 << s
	} else {
		*b &^= 1 << s
	}
}

// Get reports whether s was present on the latest sample that included it.
func (b Bitmap) Get(s Signal) bool {
	if s >= numSignals {
		return false
	}
	return b&(1<<s) != 0
}

// Visible returns the names of all set signals in bit order.
func (b Bitmap) Visible() []string {
	var out []string
	for _, s := range Signals() {
		if b.Get(s) {
			out = append(out, s.String())
		}
	}
	return out
}

// String renders the set signals as "hp|clock", or "-" when none are set.
func (b Bitmap) String() string {
	v := b.Visible()
	if len(v) == 0 {
		return "-"
	}
	return strings.Join(v, "|")
}
