// Package scanner drives the scan cycle: it takes the newest frame, runs the
// probes the current stage needs, folds their readings into the match and
// reports what changed.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/npratt/voidhunter/internal/capture"
	"github.com/npratt/voidhunter/internal/config"
	"github.com/npratt/voidhunter/internal/events"
	"github.com/npratt/voidhunter/internal/match"
	"github.com/npratt/voidhunter/internal/metrics"
	"github.com/npratt/voidhunter/internal/probe"
)

// State represents the scanner's current state.
type State string

// Scanner states.
const (
	StateWaiting  State = "waiting"
	StateScanning State = "scanning"
	StatePaused   State = "paused"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
	StateOver     State = "over"
)

// Snapshot is a copy of the scanner's view of the match, safe to read from
// any goroutine.
type Snapshot struct {
	RunID        string         `json:"run_id"`
	State        State          `json:"state"`
	Stage        match.Stage    `json:"stage"`
	Action       match.Action   `json:"action"`
	Visible      []string       `json:"visible"`
	Tick         int            `json:"tick"`
	RestartTicks int            `json:"restart_ticks"`
	Restarts     uint           `json:"restarts"`
	Results      []match.Result `json:"results"`
	Stats        Stats          `json:"stats"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Stats are running counters.
type Stats struct {
	Ticks         uint64 `json:"ticks"`
	FramesSkipped uint64 `json:"frames_skipped"`
	ProbeErrors   uint64 `json:"probe_errors"`
	LastFrame     uint64 `json:"last_frame"`
}

// Scanner owns the match and is its only writer.
type Scanner struct {
	config     *config.Config
	frames     capture.Frames
	classifier probe.Classifier
	router     *events.Router
	metrics    *metrics.Recorder
	logger     *slog.Logger

	match *match.Match
	runID string

	state   State
	stateMu sync.RWMutex

	snap   Snapshot
	snapMu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	// Control signals for pause/resume/stop
	pauseSignal  chan struct{}
	resumeSignal chan struct{}
	stopSignal   chan struct{}

	stats   Stats
	lastSeq uint64
	next    time.Time
	now     func() time.Time
}

// New creates a Scanner. router, rec and logger may be nil.
func New(cfg *config.Config, frames capture.Frames, classifier probe.Classifier, router *events.Router, rec *metrics.Recorder, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scanner{
		config:       cfg,
		frames:       frames,
		classifier:   classifier,
		router:       router,
		metrics:      rec,
		logger:       logger,
		match:        match.New(cfg.Thresholds),
		runID:        uuid.NewString(),
		state:        StateWaiting,
		pauseSignal:  make(chan struct{}, 1),
		resumeSignal: make(chan struct{}, 1),
		stopSignal:   make(chan struct{}, 1),
		now:          time.Now,
	}
	s.refreshSnapshot(nil)
	return s
}

// RunID identifies this scanner's run in events and reports.
func (s *Scanner) RunID() string {
	return s.runID
}

// Run starts the scan loop. It blocks until the context is cancelled, Stop
// is called, the frame source is exhausted, or the match is over with
// scan.exit_on_over set. It returns an error only when the match state
// became inconsistent.
func (s *Scanner) Run(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	s.emit(&events.ScanStartEvent{
		BaseEvent: events.NewScannerEvent(events.EventScanStart, s.runID),
		Target:    s.config.Capture.Window,
	})
	s.logger.Info("scan started", "run_id", s.runID, "stage", s.match.Stage())
	s.metrics.Stage("", s.match.Stage().String())

	for {
		select {
		case <-s.stopSignal:
			return s.shutdown("stop requested")
		default:
		}
		select {
		case <-s.ctx.Done():
			return s.shutdown("context cancelled")
		default:
		}

		switch s.getState() {
		case StateWaiting, StateScanning:
			if err := s.runScanning(); err != nil {
				if errors.Is(err, capture.ErrExhausted) {
					return s.shutdown("frames exhausted")
				}
				_ = s.shutdown("error")
				return err
			}
		case StatePaused:
			s.runPaused()
		case StateOver:
			if s.config.Scan.ExitOnOver {
				return s.shutdown("match over")
			}
			s.runOver()
		case StateStopping, StateStopped:
			return s.shutdown("stop requested")
		}
	}
}

// runScanning waits for the next deadline and runs one tick.
func (s *Scanner) runScanning() error {
	select {
	case <-s.pauseSignal:
		s.setState(StatePaused)
		s.logger.Info("paused")
		return nil
	default:
	}

	if !s.sleepUntil(s.next) {
		return nil
	}
	s.next = s.now().Add(s.config.Scan.MinInterval)

	err := s.Tick(s.ctx)
	if err != nil && s.ctx.Err() != nil {
		return nil
	}
	return err
}

// runPaused waits for resume or stop signal.
func (s *Scanner) runPaused() {
	select {
	case <-s.resumeSignal:
		s.setState(StateScanning)
		s.logger.Info("resumed")
	case <-s.stopSignal:
		s.setState(StateStopping)
	case <-s.ctx.Done():
		s.setState(StateStopping)
	}
}

// runOver idles after GameOver until stopped.
func (s *Scanner) runOver() {
	select {
	case <-s.stopSignal:
		s.setState(StateStopping)
	case <-s.ctx.Done():
		s.setState(StateStopping)
	}
}

// Tick runs one scan cycle against the newest frame. A tick with no new frame
// does nothing. It returns capture.ErrExhausted when a finite source ran dry
// and a wrapped match.ErrIncompleteResult when the match state is broken.
func (s *Scanner) Tick(ctx context.Context) error {
	start := s.now()

	frame, err := s.frames.Latest(ctx)
	switch {
	case err == nil:
	case errors.Is(err, capture.ErrTargetNotFound), errors.Is(err, capture.ErrNoFrame):
		if s.getState() == StateScanning {
			s.logger.Warn("waiting for capture target", "error", err)
		}
		s.setState(StateWaiting)
		return nil
	case errors.Is(err, capture.ErrExhausted):
		return err
	default:
		s.logger.Error("frame unavailable", "error", err)
		s.setState(StateWaiting)
		return nil
	}

	if frame.Seq == s.lastSeq {
		s.stats.FramesSkipped++
		s.metrics.FrameSkipped()
		return nil
	}
	s.lastSeq = frame.Seq
	s.setState(StateScanning)

	stage := s.match.Stage()
	readings, err := s.probe(ctx, stage, frame.Image)
	if err != nil {
		return err
	}

	step, err := s.match.Update(readings)
	s.stats.Ticks++
	s.stats.LastFrame = frame.Seq
	if err != nil {
		s.logger.Error("match update failed", "stage", stage, "error", err)
		s.emit(&events.ErrorEvent{
			BaseEvent: events.NewScannerEvent(events.EventError, s.runID),
			Message:   err.Error(),
			Severity:  events.SeverityFatal,
			Context:   map[string]string{"stage": stage.String()},
		})
		s.refreshSnapshot(nil)
		return fmt.Errorf("update match: %w", err)
	}

	elapsed := s.now().Sub(start)
	s.metrics.Tick(elapsed)
	s.report(step, frame.Seq, elapsed)
	return nil
}

// probe classifies the planned signals concurrently and returns one reading
// per planned signal. A failing probe counts as absence. Signals outside the
// plan get no reading, so their bits keep the last sampled value.
func (s *Scanner) probe(ctx context.Context, stage match.Stage, img *image.RGBA) ([]probe.Reading, error) {
	plan := Plan(stage)
	readings := make([]probe.Reading, len(plan))
	for i, sig := range plan {
		readings[i] = probe.Absent(sig)
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed uint64
	)
	for i, sig := range plan {
		g.Go(func() error {
			t := time.Now()
			r, err := s.classifier.Classify(ctx, sig, img)
			s.metrics.Probe(sig.String(), time.Since(t), err)
			if err != nil {
				s.logger.Debug("probe failed", "probe", sig, "stage", stage, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			r.Signal = sig
			readings[i] = r
			return nil
		})
	}
	_ = g.Wait()
	s.stats.ProbeErrors += failed

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

// report publishes the effects of one update.
func (s *Scanner) report(step match.Step, seq uint64, elapsed time.Duration) {
	st := s.match.State()

	if step.Action != step.ActionBefore {
		s.logger.Info("action changed", "from", step.ActionBefore, "to", step.Action, "stage", step.To)
		s.emit(&events.ActionChangedEvent{
			BaseEvent: events.NewScannerEvent(events.EventActionChanged, s.runID),
			From:      step.ActionBefore.String(),
			To:        step.Action.String(),
		})
	}
	if step.Restarted {
		s.logger.Info("restart counted", "stage", step.To, "restarts", st.Restarts)
		s.metrics.Restart()
		s.emit(&events.RestartCountedEvent{
			BaseEvent: events.NewScannerEvent(events.EventRestartCounted, s.runID),
			Stage:     step.To.String(),
			Restarts:  st.Restarts,
		})
	}
	if step.StageChanged() {
		s.logger.Info("stage changed", "from", step.From, "to", step.To)
		s.metrics.Stage(step.From.String(), step.To.String())
		s.emit(&events.StageChangedEvent{
			BaseEvent: events.NewScannerEvent(events.EventStageChanged, s.runID),
			From:      step.From.String(),
			To:        step.To.String(),
		})
	}

	results := s.match.Results()
	if step.Result != nil {
		s.logger.Info("result recorded",
			"tier", step.Result.Tier,
			"clock", step.Result.Clock,
			"restarts", step.Result.Restarts,
		)
		s.metrics.Result(step.Result.Tier.String())
		s.emit(&events.ResultRecordedEvent{
			BaseEvent: events.NewScannerEvent(events.EventResultRecorded, s.runID),
			Index:     len(results) - 1,
			Result:    *step.Result,
		})
	}

	s.emit(&events.TickEvent{
		BaseEvent:    events.NewScannerEvent(events.EventScanTick, s.runID),
		Seq:          seq,
		Stage:        st.Stage.String(),
		Action:       st.Action.String(),
		Visible:      st.Visible.Visible(),
		Tick:         st.Tick,
		RestartTicks: st.RestartTicks,
		DurationMs:   elapsed.Milliseconds(),
	})

	if s.match.Over() {
		total := match.TotalClock(results)
		s.logger.Info("match over", "results", len(results), "total", total)
		s.emit(&events.MatchOverEvent{
			BaseEvent: events.NewScannerEvent(events.EventMatchOver, s.runID),
			Results:   results,
			Total:     total,
		})
		s.setState(StateOver)
	}

	s.refreshSnapshot(&st)
}

// shutdown performs graceful shutdown.
func (s *Scanner) shutdown(reason string) error {
	s.logger.Info("shutting down", "reason", reason)

	if s.getState() != StateOver {
		s.setState(StateStopping)
		s.setState(StateStopped)
	}

	s.emit(&events.ScanStopEvent{
		BaseEvent: events.NewScannerEvent(events.EventScanStop, s.runID),
		Reason:    reason,
	})

	s.logger.Info("shutdown complete")
	return nil
}

// Stop requests graceful shutdown. It returns immediately; use Run's
// return to wait for shutdown completion.
func (s *Scanner) Stop() {
	select {
	case s.stopSignal <- struct{}{}:
	default:
		// Signal already pending
	}
	if s.cancel != nil {
		s.cancel()
	}
}

// Pause requests the scanner to stop ticking until resumed.
func (s *Scanner) Pause() {
	select {
	case s.pauseSignal <- struct{}{}:
		s.logger.Info("pause requested")
	default:
	}
}

// Resume requests the scanner to resume from paused state.
func (s *Scanner) Resume() {
	select {
	case s.resumeSignal <- struct{}{}:
		s.logger.Info("resume requested")
	default:
	}
}

// State returns the current scanner state.
func (s *Scanner) State() State {
	return s.getState()
}

// Snapshot returns a copy of the latest tick's view.
func (s *Scanner) Snapshot() Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	out := s.snap
	out.State = s.getState()
	out.Visible = append([]string(nil), s.snap.Visible...)
	out.Results = append([]match.Result(nil), s.snap.Results...)
	return out
}

// Stats returns the running counters.
func (s *Scanner) Stats() Stats {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snap.Stats
}

// Results returns the results recorded so far.
func (s *Scanner) Results() []match.Result {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return append([]match.Result(nil), s.snap.Results...)
}

// refreshSnapshot publishes st, or the match's current state when st is nil.
func (s *Scanner) refreshSnapshot(st *match.State) {
	if st == nil {
		cur := s.match.State()
		st = &cur
	}
	snap := Snapshot{
		RunID:        s.runID,
		Stage:        st.Stage,
		Action:       st.Action,
		Visible:      st.Visible.Visible(),
		Tick:         st.Tick,
		RestartTicks: st.RestartTicks,
		Restarts:     st.Restarts,
		Results:      s.match.Results(),
		Stats:        s.stats,
		UpdatedAt:    s.now(),
	}
	s.snapMu.Lock()
	s.snap = snap
	s.snapMu.Unlock()
}

// getState returns the current state (thread-safe).
func (s *Scanner) getState() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// setState updates the state and emits a change event when it differs.
func (s *Scanner) setState(next State) {
	s.stateMu.Lock()
	prev := s.state
	s.state = next
	s.stateMu.Unlock()

	if prev == next {
		return
	}
	s.emit(&events.ScanStateChangedEvent{
		BaseEvent: events.NewScannerEvent(events.EventScanStateChanged, s.runID),
		From:      string(prev),
		To:        string(next),
	})
}

// emit sends an event to the router if available.
func (s *Scanner) emit(event events.Event) {
	if s.router != nil {
		s.router.Emit(event)
	}
}

// sleepUntil waits for the deadline, respecting context cancellation. It
// reports whether the deadline was reached.
func (s *Scanner) sleepUntil(deadline time.Time) bool {
	d := deadline.Sub(s.now())
	if d <= 0 {
		return s.ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}
