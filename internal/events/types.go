// Package events defines the event taxonomy emitted while watching a match and
// the router and sinks that carry them.
package events

import (
	"time"

	"github.com/npratt/voidhunter/internal/clock"
	"github.com/npratt/voidhunter/internal/match"
)

// EventType identifies the category and nature of an event.
type EventType string

const (
	// Scanner lifecycle
	EventScanStart        EventType = "scan.start"
	EventScanStop         EventType = "scan.stop"
	EventScanStateChanged EventType = "scan.state_changed"
	EventScanTick         EventType = "scan.tick"

	// Match progress
	EventStageChanged   EventType = "match.stage"
	EventActionChanged  EventType = "match.action"
	EventRestartCounted EventType = "match.restart"
	EventResultRecorded EventType = "match.result"
	EventMatchOver      EventType = "match.over"

	EventError EventType = "error"
)

// Source constants identify the origin of events.
const (
	SourceScanner  = "scanner"
	SourceInternal = "voidhunter"
)

// Event is the base interface for all events in the system.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	Source() string
}

// BaseEvent provides the common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"timestamp"`
	Src       string    `json:"source"`
	RunID     string    `json:"run_id,omitempty"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// Source returns the origin of the event.
func (e BaseEvent) Source() string {
	return e.Src
}

// ScanStartEvent is emitted when the scanner starts watching.
type ScanStartEvent struct {
	BaseEvent
	Target string `json:"target"`
}

// ScanStopEvent is emitted when the scanner exits.
type ScanStopEvent struct {
	BaseEvent
	Reason string `json:"reason,omitempty"`
}

// ScanStateChangedEvent is emitted when the scanner state changes, e.g. to
// "waiting" when the game window disappears.
type ScanStateChangedEvent struct {
	BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

// TickEvent is a per-tick diagnostic snapshot.
type TickEvent struct {
	BaseEvent
	Seq          uint64   `json:"seq"`
	Stage        string   `json:"stage"`
	Action       string   `json:"action"`
	Visible      []string `json:"visible"`
	Tick         int      `json:"tick"`
	RestartTicks int      `json:"restart_ticks"`
	DurationMs   int64    `json:"duration_ms"`
}

// StageChangedEvent is emitted on every stage transition.
type StageChangedEvent struct {
	BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

// ActionChangedEvent is emitted when the player opens or closes an overlay.
type ActionChangedEvent struct {
	BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

// RestartCountedEvent is emitted when a restart is counted.
type RestartCountedEvent struct {
	BaseEvent
	Stage    string `json:"stage"`
	Restarts uint   `json:"restarts"`
}

// ResultRecordedEvent is emitted when a cycle's result is recorded.
type ResultRecordedEvent struct {
	BaseEvent
	Index  int          `json:"index"`
	Result match.Result `json:"result"`
}

// MatchOverEvent is emitted once both results are in.
type MatchOverEvent struct {
	BaseEvent
	Results []match.Result `json:"results"`
	Total   clock.Clock    `json:"total"`
}

// Severity constants for error events.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
	SeverityFatal   = "fatal"
)

// ErrorEvent is emitted for any error condition.
type ErrorEvent struct {
	BaseEvent
	Message  string            `json:"message"`
	Severity string            `json:"severity"`
	Context  map[string]string `json:"context,omitempty"`
}

// NewEvent creates a BaseEvent with the given type and source.
func NewEvent(eventType EventType, source string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      time.Now(),
		Src:       source,
	}
}

// NewScannerEvent creates a BaseEvent from the scanner for run runID.
func NewScannerEvent(eventType EventType, runID string) BaseEvent {
	e := NewEvent(eventType, SourceScanner)
	e.RunID = runID
	return e
}
