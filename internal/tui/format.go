package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/voidhunter/internal/events"
)

// StyleForEvent returns the display style for an event.
func StyleForEvent(event events.Event) lipgloss.Style {
	switch event.(type) {
	case *events.ScanStartEvent, *events.ScanStopEvent, *events.ScanStateChangedEvent:
		return styles.Scan
	case *events.StageChangedEvent:
		return styles.Transition
	case *events.ActionChangedEvent, *events.RestartCountedEvent:
		return styles.Dialog
	case *events.ResultRecordedEvent, *events.MatchOverEvent:
		return styles.Outcome
	case *events.ErrorEvent:
		return styles.Error
	}
	return styles.Counter
}
