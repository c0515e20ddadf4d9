package events

import (
	"encoding/json"
	"testing"

	"github.com/npratt/voidhunter/internal/clock"
	"github.com/npratt/voidhunter/internal/match"
	"github.com/npratt/voidhunter/internal/probe"
)

func TestParseEvent(t *testing.T) {
	result := sampleResult(probe.TierFifth, 61)

	tests := []struct {
		name  string
		event Event
		check func(t *testing.T, ev Event)
	}{
		{
			name:  "stage changed",
			event: stageEvent("Pick", "FirstHalf(Prepare)"),
			check: func(t *testing.T, ev Event) {
				e := ev.(*StageChangedEvent)
				if e.From != "Pick" || e.To != "FirstHalf(Prepare)" {
					t.Errorf("got %s -> %s", e.From, e.To)
				}
				if e.RunID != "run-1" {
					t.Errorf("RunID = %q, want %q", e.RunID, "run-1")
				}
			},
		},
		{
			name: "tick",
			event: &TickEvent{
				BaseEvent: NewScannerEvent(EventScanTick, "r"),
				Seq:       9, Stage: "FirstHalf(Run)", Visible: []string{"hp", "clock"}, Tick: 3,
			},
			check: func(t *testing.T, ev Event) {
				e := ev.(*TickEvent)
				if e.Seq != 9 || e.Tick != 3 || len(e.Visible) != 2 {
					t.Errorf("got %+v", e)
				}
			},
		},
		{
			name:  "result recorded",
			event: &ResultRecordedEvent{BaseEvent: NewScannerEvent(EventResultRecorded, "r"), Index: 1, Result: result},
			check: func(t *testing.T, ev Event) {
				e := ev.(*ResultRecordedEvent)
				if e.Result.Tier != probe.TierFifth {
					t.Errorf("Tier = %v, want %v", e.Result.Tier, probe.TierFifth)
				}
				if e.Result.Clock != clock.FromSeconds(61) {
					t.Errorf("Clock = %v, want 00:01:01", e.Result.Clock)
				}
				if e.Result.Roster[0] == nil || e.Result.Roster[0].Name != "Nekomata" {
					t.Errorf("Roster[0] = %v", e.Result.Roster[0])
				}
				if e.Result.Roster[1] != nil {
					t.Errorf("Roster[1] = %v, want nil", e.Result.Roster[1])
				}
			},
		},
		{
			name: "match over",
			event: &MatchOverEvent{
				BaseEvent: NewScannerEvent(EventMatchOver, "r"),
				Results:   []match.Result{result, result},
				Total:     clock.FromSeconds(122),
			},
			check: func(t *testing.T, ev Event) {
				e := ev.(*MatchOverEvent)
				if len(e.Results) != 2 || e.Total != clock.FromSeconds(122) {
					t.Errorf("got %+v", e)
				}
			},
		},
		{
			name:  "error",
			event: &ErrorEvent{BaseEvent: NewEvent(EventError, SourceInternal), Message: "boom", Severity: SeverityWarning},
			check: func(t *testing.T, ev Event) {
				e := ev.(*ErrorEvent)
				if e.Message != "boom" || e.Severity != SeverityWarning {
					t.Errorf("got %+v", e)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			ev, err := ParseEvent(line)
			if err != nil {
				t.Fatalf("ParseEvent: %v", err)
			}
			if ev == nil {
				t.Fatal("ParseEvent returned nil")
			}
			if ev.Type() != tt.event.Type() {
				t.Errorf("Type() = %s, want %s", ev.Type(), tt.event.Type())
			}
			tt.check(t, ev)
		})
	}
}

func TestParseEventUnknownAndInvalid(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"something.else"}`))
	if err != nil || ev != nil {
		t.Errorf("unknown type: got (%v, %v), want (nil, nil)", ev, err)
	}
	if _, err := ParseEvent([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
