package testutil

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/npratt/voidhunter/internal/bitmap"
	"github.com/npratt/voidhunter/internal/clock"
	"github.com/npratt/voidhunter/internal/probe"
	"github.com/npratt/voidhunter/internal/segment"
)

// Background is the fill of generated frames: dark enough to binarize to 0,
// not black enough to count as a blackout.
var Background = color.RGBA{R: 40, G: 40, B: 40, A: 255}

// NewFrame returns a full-size frame filled with Background.
func NewFrame() *image.RGBA {
	f := image.NewRGBA(image.Rect(0, 0, probe.FrameWidth, probe.FrameHeight))
	draw.Draw(f, f.Bounds(), &image.Uniform{C: Background}, image.Point{}, draw.Src)
	return f
}

// BlackFrame returns a full-size, fully opaque black frame.
func BlackFrame() *image.RGBA {
	f := image.NewRGBA(image.Rect(0, 0, probe.FrameWidth, probe.FrameHeight))
	draw.Draw(f, f.Bounds(), &image.Uniform{C: color.RGBA{A: 255}}, image.Point{}, draw.Src)
	return f
}

// DrawClock lights the segment probe points for text ("HH:MM:SS") inside the
// in-match clock region of frame.
func DrawClock(frame *image.RGBA, text string) error {
	origin := probe.InMatchClockRegion.Min
	cell := 0
	for _, r := range text {
		if r == ':' {
			continue
		}
		if r < '0' || r > '9' || cell >= 6 {
			return fmt.Errorf("bad clock text %q", text)
		}
		pat := segment.PatternOf(int(r - '0'))
		pts := segment.ProbePoints(cell)
		for i, on := range pat {
			if on {
				frame.Set(origin.X+pts[i].X, origin.Y+pts[i].Y, color.White)
			}
		}
		cell++
	}
	if cell != 6 {
		return fmt.Errorf("bad clock text %q", text)
	}
	return nil
}

// FakeRecognizer answers OCR requests by the crop's bounds, which match the
// probe regions for frames created with NewFrame.
type FakeRecognizer struct {
	mu    sync.Mutex
	Texts map[image.Rectangle]string
	Err   error
	calls []image.Rectangle
}

// NewFakeRecognizer creates a recognizer that returns "" for unknown regions.
func NewFakeRecognizer() *FakeRecognizer {
	return &FakeRecognizer{Texts: make(map[image.Rectangle]string)}
}

// Set configures the text returned for region r.
func (f *FakeRecognizer) Set(r image.Rectangle, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Texts[r] = text
}

// Text implements probe.Recognizer.
func (f *FakeRecognizer) Text(ctx context.Context, img image.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, img.Bounds())
	if f.Err != nil {
		return "", f.Err
	}
	return f.Texts[img.Bounds()], nil
}

// Calls returns the regions recognized so far.
func (f *FakeRecognizer) Calls() []image.Rectangle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]image.Rectangle(nil), f.calls...)
}

// FakeClassifier serves a fixed scene of readings. Signals not in the scene
// read as absent.
type FakeClassifier struct {
	mu    sync.Mutex
	scene map[bitmap.Signal]probe.Reading
	errs  map[bitmap.Signal]error
	calls []bitmap.Signal
}

// NewFakeClassifier creates a classifier with an empty scene.
func NewFakeClassifier() *FakeClassifier {
	return &FakeClassifier{
		scene: make(map[bitmap.Signal]probe.Reading),
		errs:  make(map[bitmap.Signal]error),
	}
}

// SetScene replaces the scene.
func (f *FakeClassifier) SetScene(readings ...probe.Reading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scene = make(map[bitmap.Signal]probe.Reading, len(readings))
	for _, r := range readings {
		f.scene[r.Signal] = r
	}
}

// SetError makes sig fail with err until cleared with a nil err.
func (f *FakeClassifier) SetError(sig bitmap.Signal, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, sig)
		return
	}
	f.errs[sig] = err
}

// Classify implements probe.Classifier.
func (f *FakeClassifier) Classify(ctx context.Context, sig bitmap.Signal, frame *image.RGBA) (probe.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sig)
	if err, ok := f.errs[sig]; ok {
		return probe.Absent(sig), err
	}
	if r, ok := f.scene[sig]; ok {
		return r, nil
	}
	return probe.Absent(sig), nil
}

// Calls returns and clears the signals classified since the last call.
func (f *FakeClassifier) Calls() []bitmap.Signal {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.calls
	f.calls = nil
	return out
}

// Seen returns a present reading for a flag-only signal.
func Seen(sig bitmap.Signal) probe.Reading {
	return probe.Reading{Signal: sig, Present: true}
}

// TierSeen returns a present tier reading.
func TierSeen(t probe.Tier) probe.Reading {
	return probe.Reading{Signal: bitmap.Tier, Present: true, Tier: t}
}

// RosterSeen returns a present roster reading. Empty names are empty slots.
func RosterSeen(names ...string) probe.Reading {
	var r probe.Roster
	for i, n := range names {
		if i >= probe.RosterSize {
			break
		}
		if n != "" {
			r[i] = &probe.Agent{Name: n}
		}
	}
	return probe.Reading{Signal: bitmap.Roster, Present: true, Roster: r}
}

// ClockSeen returns a present clock reading for sig parsed from text.
func ClockSeen(sig bitmap.Signal, text string) probe.Reading {
	c, err := clock.Parse(text)
	if err != nil {
		panic(err)
	}
	return probe.Reading{Signal: sig, Present: true, Clock: c}
}

// DialogSeen returns a present confirm dialog reading.
func DialogSeen(d probe.Dialog) probe.Reading {
	return probe.Reading{Signal: bitmap.ConfirmDialog, Present: true, Dialog: d}
}
