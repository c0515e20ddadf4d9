package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/npratt/voidhunter/internal/clock"
	"github.com/npratt/voidhunter/internal/match"
)

// ReportBufferSize is the recommended buffer size for report sink subscriptions.
const ReportBufferSize = 1000

// Report is the match summary written to disk.
type Report struct {
	RunID     string         `json:"run_id"`
	Status    string         `json:"status"`
	Stage     string         `json:"stage"`
	Restarts  uint           `json:"restarts"`
	Results   []match.Result `json:"results"`
	Total     clock.Clock    `json:"total"`
	StartedAt time.Time      `json:"started_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ReportSink keeps a Report up to date from events and writes it atomically
// whenever something a reader cares about changes.
type ReportSink struct {
	path   string
	report Report
	dirty  bool
	mu     sync.Mutex
	done   chan struct{}
}

// NewReportSink creates a sink writing to path.
func NewReportSink(path string) *ReportSink {
	return &ReportSink{
		path:   path,
		report: Report{Status: "idle", Stage: match.Pick().String(), Results: []match.Result{}},
		done:   make(chan struct{}),
	}
}

// Start ensures the directory exists and begins processing events.
func (s *ReportSink) Start(ctx context.Context, events <-chan Event) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	go s.run(ctx, events)
	return nil
}

func (s *ReportSink) run(ctx context.Context, events <-chan Event) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			s.flushIfDirty()
			return
		case event, ok := <-events:
			if !ok {
				s.flushIfDirty()
				return
			}
			s.handleEvent(event)
		}
	}
}

func (s *ReportSink) handleEvent(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := event.(type) {
	case *ScanStartEvent:
		s.report.RunID = e.RunID
		s.report.Status = "running"
		s.report.StartedAt = e.Time
	case *ScanStateChangedEvent:
		s.report.Status = e.To
	case *StageChangedEvent:
		s.report.Stage = e.To
		// Back at pick, the abandoned cycle's restarts no longer count.
		if e.To == match.Pick().String() {
			s.report.Restarts = 0
		}
	case *RestartCountedEvent:
		s.report.Restarts = e.Restarts
	case *ResultRecordedEvent:
		s.report.Results = append(s.report.Results, e.Result)
		s.report.Total = match.TotalClock(s.report.Results)
		s.report.Restarts = 0
	case *MatchOverEvent:
		s.report.Status = "over"
		s.report.Results = append([]match.Result(nil), e.Results...)
		s.report.Total = e.Total
	case *ScanStopEvent:
		if s.report.Status != "over" {
			s.report.Status = "stopped"
		}
	default:
		return
	}
	s.dirty = true
	s.saveUnlocked()
}

func (s *ReportSink) saveUnlocked() {
	s.report.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(s.report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "report sink: marshal error: %v\n", err)
		return
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "report sink: write error: %v\n", err)
		return
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		fmt.Fprintf(os.Stderr, "report sink: rename error: %v\n", err)
		return
	}
	s.dirty = false
}

func (s *ReportSink) flushIfDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		s.saveUnlocked()
	}
}

// Stop waits for the run goroutine to finish.
func (s *ReportSink) Stop() error {
	<-s.done
	return nil
}

// Report returns a copy of the current report.
func (s *ReportSink) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.report
	r.Results = append([]match.Result(nil), s.report.Results...)
	return r
}

// Path returns the report file path.
func (s *ReportSink) Path() string {
	return s.path
}

// LoadReport reads a report written by a ReportSink.
func LoadReport(path string) (Report, error) {
	var r Report
	data, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse report: %w", err)
	}
	return r, nil
}
