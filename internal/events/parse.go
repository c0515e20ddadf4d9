package events

import (
	"encoding/json"
)

type eventEnvelope struct {
	Type EventType `json:"type"`
}

// ParseEvent parses a JSON line into a typed Event.
// Returns nil with no error for unknown event types.
func ParseEvent(line []byte) (Event, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, err
	}

	var ev Event
	switch envelope.Type {
	case EventScanStart:
		ev = &ScanStartEvent{}
	case EventScanStop:
		ev = &ScanStopEvent{}
	case EventScanStateChanged:
		ev = &ScanStateChangedEvent{}
	case EventScanTick:
		ev = &TickEvent{}
	case EventStageChanged:
		ev = &StageChangedEvent{}
	case EventActionChanged:
		ev = &ActionChangedEvent{}
	case EventRestartCounted:
		ev = &RestartCountedEvent{}
	case EventResultRecorded:
		ev = &ResultRecordedEvent{}
	case EventMatchOver:
		ev = &MatchOverEvent{}
	case EventError:
		ev = &ErrorEvent{}
	default:
		return nil, nil
	}

	if err := json.Unmarshal(line, ev); err != nil {
		return nil, err
	}
	return ev, nil
}
