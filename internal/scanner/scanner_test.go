package scanner

import (
	"context"
	"errors"
	"image"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/npratt/voidhunter/internal/bitmap"
	"github.com/npratt/voidhunter/internal/capture"
	"github.com/npratt/voidhunter/internal/config"
	"github.com/npratt/voidhunter/internal/events"
	"github.com/npratt/voidhunter/internal/match"
	"github.com/npratt/voidhunter/internal/metrics"
	"github.com/npratt/voidhunter/internal/probe"
	"github.com/npratt/voidhunter/internal/testutil"
)

// testConfig returns a config suitable for testing with short intervals.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Scan.MinInterval = 0
	cfg.Thresholds.SecondHalfClear = 3
	return cfg
}

// script is a finite frame source whose frames each carry a scene.
type script struct {
	mu     sync.Mutex
	frames []*image.RGBA
	scenes map[*image.RGBA]map[bitmap.Signal]probe.Reading
	next   int
}

func newScript() *script {
	return &script{scenes: make(map[*image.RGBA]map[bitmap.Signal]probe.Reading)}
}

// add appends n frames showing readings.
func (s *script) add(n int, readings ...probe.Reading) {
	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		scene := make(map[bitmap.Signal]probe.Reading, len(readings))
		for _, r := range readings {
			scene[r.Signal] = r
		}
		s.frames = append(s.frames, img)
		s.scenes[img] = scene
	}
}

func (s *script) Capture(ctx context.Context) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.frames) {
		return nil, capture.ErrExhausted
	}
	img := s.frames[s.next]
	s.next++
	return img, nil
}

func (s *script) Classify(ctx context.Context, sig bitmap.Signal, frame *image.RGBA) (probe.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.scenes[frame][sig]; ok {
		return r, nil
	}
	return probe.Absent(sig), nil
}

var (
	hp          = testutil.Seen(bitmap.Hp)
	sixth       = testutil.TierSeen(probe.TierSixth)
	roster      = testutil.RosterSeen("Anby", "Billy", "", "", "", "")
	runClock    = testutil.ClockSeen(bitmap.InMatchClock, "00:02:00")
	resultClock = testutil.ClockSeen(bitmap.ResultClock, "00:12:30")
)

// addCycle scripts one pick-to-result cycle.
func addCycle(s *script, th match.Thresholds) {
	s.add(1, sixth, roster)
	s.add(1, hp)
	s.add(1, hp, runClock)
	s.add(th.FirstHalfClear+1, hp)
	s.add(1)
	s.add(1, hp, runClock)
	s.add(th.SecondHalfClear+1, resultClock)
	s.add(1, resultClock)
}

func collect(ch <-chan events.Event) []events.Event {
	var out []events.Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func TestPlan(t *testing.T) {
	all := []bitmap.Signal{bitmap.InMatchClock, bitmap.Hp, bitmap.Loading, bitmap.Pause, bitmap.ConfirmDialog}
	tests := []struct {
		stage match.Stage
		want  []bitmap.Signal
	}{
		{match.Pick(), []bitmap.Signal{bitmap.Tier, bitmap.Roster, bitmap.Challenge, bitmap.Hp}},
		{match.FirstHalf(match.Prepare), all},
		{match.FirstHalf(match.Run), append(slices.Clone(all), bitmap.Blackout)},
		{match.FirstHalf(match.Cleared), all},
		{match.SecondHalf(match.Prepare), all},
		{match.SecondHalf(match.Run), append(slices.Clone(all), bitmap.ResultClock)},
		{match.SecondHalf(match.Cleared), append(slices.Clone(all), bitmap.ResultClock)},
		{match.Finished(), nil},
		{match.GameOver(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			if got := Plan(tt.stage); !slices.Equal(got, tt.want) {
				t.Errorf("Plan(%v) = %v, want %v", tt.stage, got, tt.want)
			}
		})
	}

	// Extending one plan must not leak into another.
	_ = Plan(match.FirstHalf(match.Run))
	if got := Plan(match.FirstHalf(match.Prepare)); len(got) != len(all) {
		t.Errorf("Plan(FirstHalf(Prepare)) = %v after FirstHalf(Run)", got)
	}
}

func TestTickProbesOnlyThePlan(t *testing.T) {
	box := capture.NewMailbox()
	box.Publish(testutil.NewFrame())
	fake := testutil.NewFakeClassifier()

	s := New(testConfig(), box, fake, nil, nil, nil)
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}

	calls := fake.Calls()
	slices.Sort(calls)
	want := slices.Clone(Plan(match.Pick()))
	slices.Sort(want)
	if !slices.Equal(calls, want) {
		t.Errorf("classified %v, want %v", calls, want)
	}
}

func TestTickSkipsUnchangedFrame(t *testing.T) {
	box := capture.NewMailbox()
	box.Publish(testutil.NewFrame())
	fake := testutil.NewFakeClassifier()

	s := New(testConfig(), box, fake, nil, metrics.New(), nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.Tick(ctx); err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
	}

	if n := len(fake.Calls()); n != len(Plan(match.Pick())) {
		t.Errorf("classified %d probes, want one tick's worth", n)
	}
	if s.stats.Ticks != 1 {
		t.Errorf("Ticks = %d, want 1", s.stats.Ticks)
	}
	if s.stats.FramesSkipped != 2 {
		t.Errorf("FramesSkipped = %d, want 2", s.stats.FramesSkipped)
	}
}

func TestTickWaitsForTarget(t *testing.T) {
	box := capture.NewMailbox()
	box.Fail(capture.ErrTargetNotFound)
	fake := testutil.NewFakeClassifier()

	router := events.NewRouter(10)
	ch := router.Subscribe()

	s := New(testConfig(), box, fake, router, nil, nil)
	ctx := context.Background()

	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if s.State() != StateWaiting {
		t.Errorf("State() = %s, want %s", s.State(), StateWaiting)
	}
	if n := len(fake.Calls()); n != 0 {
		t.Errorf("classified %d probes without a frame", n)
	}

	box.Publish(testutil.NewFrame())
	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if s.State() != StateScanning {
		t.Errorf("State() = %s, want %s", s.State(), StateScanning)
	}

	router.Close()
	var changed *events.ScanStateChangedEvent
	for _, ev := range collect(ch) {
		if e, ok := ev.(*events.ScanStateChangedEvent); ok {
			changed = e
		}
	}
	if changed == nil || changed.From != string(StateWaiting) || changed.To != string(StateScanning) {
		t.Errorf("state change event = %+v, want waiting -> scanning", changed)
	}
}

func TestTickProbeErrorIsAbsence(t *testing.T) {
	box := capture.NewMailbox()
	box.Publish(testutil.NewFrame())
	fake := testutil.NewFakeClassifier()
	fake.SetScene(sixth, roster, hp)
	fake.SetError(bitmap.Hp, errors.New("tesseract: exit status 1"))

	s := New(testConfig(), box, fake, nil, nil, nil)
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}

	snap := s.Snapshot()
	if snap.Stats.ProbeErrors != 1 {
		t.Errorf("ProbeErrors = %d, want 1", snap.Stats.ProbeErrors)
	}
	if slices.Contains(snap.Visible, "hp") {
		t.Errorf("Visible = %v, failed hp probe should read absent", snap.Visible)
	}
	if !slices.Contains(snap.Visible, "tier") {
		t.Errorf("Visible = %v, want tier", snap.Visible)
	}
}

func TestTickKeepsUnplannedBits(t *testing.T) {
	challenge := testutil.Seen(bitmap.Challenge)

	sc := newScript()
	sc.add(1, sixth, roster)
	sc.add(1, hp, challenge)
	sc.add(1, hp)

	s := New(testConfig(), capture.NewDirect(sc), sc, nil, nil, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.Tick(ctx); err != nil {
			t.Fatalf("Tick() #%d error = %v", i+1, err)
		}
	}

	snap := s.Snapshot()
	if snap.Stage != match.FirstHalf(match.Prepare) {
		t.Fatalf("Stage = %v, want FirstHalf(Prepare)", snap.Stage)
	}
	if !slices.Contains(snap.Visible, "challenge") {
		t.Errorf("Visible = %v, challenge is not sampled in FirstHalf(Prepare) and should keep its bit", snap.Visible)
	}
	if !slices.Contains(snap.Visible, "hp") {
		t.Errorf("Visible = %v, want hp", snap.Visible)
	}
}

func TestRunReplayToGameOver(t *testing.T) {
	cfg := testConfig()
	cfg.Scan.ExitOnOver = true

	sc := newScript()
	addCycle(sc, cfg.Thresholds)
	addCycle(sc, cfg.Thresholds)
	// Frames after GameOver are never read.
	sc.add(5, hp)

	router := events.NewRouter(10000)
	ch := router.Subscribe()

	s := New(cfg, capture.NewDirect(sc), sc, router, metrics.New(), nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	router.Close()

	if s.State() != StateOver {
		t.Errorf("State() = %s, want %s", s.State(), StateOver)
	}
	results := s.Results()
	if len(results) != match.ResultsPerMatch {
		t.Fatalf("got %d results, want %d", len(results), match.ResultsPerMatch)
	}
	for i, r := range results {
		if r.Tier != probe.TierSixth {
			t.Errorf("result %d tier = %v, want Sixth", i, r.Tier)
		}
		if r.Clock.String() != "00:12:30" {
			t.Errorf("result %d clock = %v, want 00:12:30", i, r.Clock)
		}
	}
	if snap := s.Snapshot(); snap.Stage != match.GameOver() {
		t.Errorf("Snapshot().Stage = %v, want GameOver", snap.Stage)
	}

	var (
		stages   []string
		recorded int
		over     *events.MatchOverEvent
		stop     *events.ScanStopEvent
	)
	for _, ev := range collect(ch) {
		switch e := ev.(type) {
		case *events.StageChangedEvent:
			stages = append(stages, e.To)
		case *events.ResultRecordedEvent:
			recorded++
			if e.RunID != s.RunID() {
				t.Errorf("RunID = %q, want %q", e.RunID, s.RunID())
			}
		case *events.MatchOverEvent:
			over = e
		case *events.ScanStopEvent:
			stop = e
		}
	}

	wantStages := []string{
		"FirstHalf(Prepare)", "FirstHalf(Run)", "FirstHalf(Cleared)",
		"SecondHalf(Prepare)", "SecondHalf(Run)", "SecondHalf(Cleared)", "Pick",
		"FirstHalf(Prepare)", "FirstHalf(Run)", "FirstHalf(Cleared)",
		"SecondHalf(Prepare)", "SecondHalf(Run)", "SecondHalf(Cleared)", "GameOver",
	}
	if !slices.Equal(stages, wantStages) {
		t.Errorf("stages = %v\nwant %v", stages, wantStages)
	}
	if recorded != 2 {
		t.Errorf("result events = %d, want 2", recorded)
	}
	if over == nil || over.Total.String() != "00:25:00" {
		t.Errorf("match over event = %+v, want total 00:25:00", over)
	}
	if stop == nil || stop.Reason != "match over" {
		t.Errorf("stop event = %+v, want reason %q", stop, "match over")
	}
}

func TestRunStopsWhenFramesExhausted(t *testing.T) {
	sc := newScript()
	sc.add(3, sixth, roster)

	s := New(testConfig(), capture.NewDirect(sc), sc, nil, nil, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.State() != StateStopped {
		t.Errorf("State() = %s, want %s", s.State(), StateStopped)
	}
	if got := s.Stats().Ticks; got != 3 {
		t.Errorf("Ticks = %d, want 3", got)
	}
}

func TestPauseResumeStop(t *testing.T) {
	cfg := testConfig()
	cfg.Scan.MinInterval = 5 * time.Millisecond

	box := capture.NewMailbox()
	fake := testutil.NewFakeClassifier()
	s := New(cfg, box, fake, nil, nil, nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	box.Publish(testutil.NewFrame())
	waitFor(t, "scanning", func() bool { return s.State() == StateScanning })

	s.Pause()
	waitFor(t, "paused", func() bool { return s.State() == StatePaused })

	ticks := s.Stats().Ticks
	box.Publish(testutil.NewFrame())
	time.Sleep(30 * time.Millisecond)
	if got := s.Stats().Ticks; got != ticks {
		t.Errorf("ticked while paused: %d -> %d", ticks, got)
	}

	s.Resume()
	waitFor(t, "tick after resume", func() bool { return s.Stats().Ticks > ticks })

	s.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	if s.State() != StateStopped {
		t.Errorf("State() = %s, want %s", s.State(), StateStopped)
	}
}

func TestMinIntervalSpacesTicks(t *testing.T) {
	cfg := testConfig()
	cfg.Scan.MinInterval = 20 * time.Millisecond

	sc := newScript()
	sc.add(4, sixth)

	s := New(cfg, capture.NewDirect(sc), sc, nil, nil, nil)
	start := time.Now()
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// Four ticks and the exhausted read: at least four full intervals.
	if elapsed := time.Since(start); elapsed < 4*cfg.Scan.MinInterval {
		t.Errorf("Run took %v, want at least %v", elapsed, 4*cfg.Scan.MinInterval)
	}
}
