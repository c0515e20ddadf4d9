package events

import (
	"fmt"
	"strings"
)

// Format converts an event to a human-readable line.
// Returns empty string for nil or unknown event types.
func Format(event Event) string {
	switch e := event.(type) {
	case *ScanStartEvent:
		return fmt.Sprintf("scan started (%s)", e.Target)
	case *ScanStopEvent:
		if e.Reason == "" {
			return "scan stopped"
		}
		return "scan stopped: " + e.Reason
	case *ScanStateChangedEvent:
		return fmt.Sprintf("scanner %s -> %s", e.From, e.To)
	case *TickEvent:
		return fmt.Sprintf("#%d %s [%s] %s tick=%d", e.Seq, e.Stage, e.Action, strings.Join(e.Visible, "|"), e.Tick)
	case *StageChangedEvent:
		return fmt.Sprintf("stage %s -> %s", e.From, e.To)
	case *ActionChangedEvent:
		return fmt.Sprintf("action %s -> %s", e.From, e.To)
	case *RestartCountedEvent:
		return fmt.Sprintf("restart #%d in %s", e.Restarts, e.Stage)
	case *ResultRecordedEvent:
		return fmt.Sprintf("result %d: %s %s restarts=%d [%s]",
			e.Index+1, e.Result.Tier, e.Result.Clock, e.Result.Restarts, strings.Join(e.Result.Roster.Names(), ", "))
	case *MatchOverEvent:
		return fmt.Sprintf("match over: %d results, total %s", len(e.Results), e.Total)
	case *ErrorEvent:
		return fmt.Sprintf("%s: %s", e.Severity, e.Message)
	}
	return ""
}
