package probe

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// RosterSize is the number of agent slots on the pick screen.
const RosterSize = 6

// Agent is a playable character recognised on the pick screen.
type Agent struct {
	Name string `json:"name"`
}

// Roster holds the six pick slots; nil marks an empty slot.
type Roster [RosterSize]*Agent

// Names returns the slot names, using "-" for empty slots.
func (r Roster) Names() []string {
	out := make([]string, len(r))
	for i, a := range r {
		if a == nil {
			out[i] = "-"
			continue
		}
		out[i] = a.Name
	}
	return out
}

// KnownAgents lists every name the roster parser accepts.
var KnownAgents = []string{
	"Trigger", "Hugo", "Yanagi", "Lighter", "Caesar", "Soldier 11",
	"Nekomata", "Ben", "Anton", "Corin", "Billy", "Harumasa", "Miyabi",
	"Pulchra", "Piper", "Seth", "Lucy", "Soukaku", "Nicole", "Anby",
	"Soldier 0 - Anby", "Vivian", "Evelyn", "Astra Yao", "Jane", "Qingyi",
	"Zhu Yuan", "Rina", "Ellen", "Grace", "Burnice", "Lycaon", "Koleda",
}

const emptySlot = "EMPTY"

// ParseRoster reads the six slot texts. Any slot that is neither a known agent
// nor the empty marker makes the whole roster unreadable.
func ParseRoster(slots []string) (Roster, bool) {
	var r Roster
	if len(slots) != RosterSize {
		return r, false
	}
	for i, raw := range slots {
		raw = strings.TrimSpace(raw)
		name, _, _ := strings.Cut(raw, "Lv.")
		name = strings.TrimSpace(name)
		switch {
		case slices.Contains(KnownAgents, name):
			r[i] = &Agent{Name: name}
		case raw == emptySlot:
			r[i] = nil
		default:
			return Roster{}, false
		}
	}
	return r, true
}

// Tier is the difficulty tier ("frontier") selected for the match.
type Tier int

const (
	TierNotPickable Tier = iota
	TierFifth
	TierSixth
	TierSeventh
)

var tierNames = map[Tier]string{
	TierNotPickable: "NotPickable",
	TierFifth:       "Fifth",
	TierSixth:       "Sixth",
	TierSeventh:     "Seventh",
}

func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// MarshalJSON encodes the tier by name.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a tier name.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for k, v := range tierNames {
		if v == s {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", s)
}

// ParseTier reads "<Ordinal> Frontier".
func ParseTier(text string) (Tier, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 || fields[1] != "Frontier" {
		return 0, false
	}
	switch fields[0] {
	case "First", "Second", "Third", "Fourth":
		return TierNotPickable, true
	case "Fifth":
		return TierFifth, true
	case "Sixth":
		return TierSixth, true
	case "Seventh":
		return TierSeventh, true
	}
	return 0, false
}

// Dialog classifies the confirm dialog shown over a match.
type Dialog int

const (
	// DialogOpaque is a confirm dialog whose intent is not a restart or exit.
	DialogOpaque Dialog = iota
	DialogRestart
	DialogExit
)

func (d Dialog) String() string {
	switch d {
	case DialogOpaque:
		return "Opaque"
	case DialogRestart:
		return "Restart"
	case DialogExit:
		return "Exit"
	}
	return fmt.Sprintf("Dialog(%d)", int(d))
}

// ParseDialog classifies confirm dialog text.
func ParseDialog(text string) (Dialog, bool) {
	switch {
	case strings.Contains(text, "Leave"):
		return DialogExit, true
	case strings.Contains(text, "Restart"):
		return DialogRestart, true
	case strings.Contains(text, "battle"):
		return DialogOpaque, true
	}
	return 0, false
}

// challengeKeywords holds, per banner line, words any of which counts as a match.
var challengeKeywords = [3][]string{
	{"More", "than", "300s", "remaining"},
	{"More", "than", "180s", "remaining"},
	{"Defeat", "all", "enemies"},
}

// ParseChallenge reports whether most of the three banner lines look like the
// challenge description.
func ParseChallenge(lines []string) bool {
	if len(lines) != len(challengeKeywords) {
		return false
	}
	score := 0
	for i, line := range lines {
		if slices.ContainsFunc(challengeKeywords[i], func(k string) bool { return strings.Contains(line, k) }) {
			score++
		} else {
			score--
		}
	}
	return score > 0
}

// ParseHp reports whether text looks like "<current>/<max>".
func ParseHp(text string) bool {
	cur, _, _ := strings.Cut(text, "/")
	_, err := strconv.ParseUint(strings.TrimSpace(cur), 10, 32)
	return err == nil
}

// ParseLoading reports whether text mentions loading.
func ParseLoading(text string) bool {
	return strings.Contains(strings.ToLower(text), "loading")
}

// ParsePause reports whether either pause menu button reads as expected.
func ParsePause(restart, exit string) bool {
	firstWord := func(s string) string {
		if f := strings.Fields(s); len(f) > 0 {
			return f[0]
		}
		return ""
	}
	return firstWord(restart) == "Restart" || firstWord(exit) == "Exit"
}
