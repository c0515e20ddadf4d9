// Package probe classifies fixed regions of a captured frame into nullable
// typed readings: roster, tier, clocks, dialogs, loading and blackout.
package probe

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/npratt/voidhunter/internal/bitmap"
	"github.com/npratt/voidhunter/internal/clock"
	"github.com/npratt/voidhunter/internal/segment"
)

// ErrFrameSize is returned when a region does not fit inside the frame.
var ErrFrameSize = errors.New("frame too small for region")

// Reading is the outcome of one probe. Present is false when the probe found
// nothing; only the field matching Signal is meaningful.
type Reading struct {
	Signal  bitmap.Signal
	Present bool

	Tier   Tier
	Roster Roster
	Clock  clock.Clock
	Dialog Dialog
}

// Absent returns a reading with no value for sig.
func Absent(sig bitmap.Signal) Reading {
	return Reading{Signal: sig}
}

// Classifier runs a single probe against a frame. Implementations must be safe
// for concurrent use and must not modify frame.
type Classifier interface {
	Classify(ctx context.Context, sig bitmap.Signal, frame *image.RGBA) (Reading, error)
}

// OCR is the production Classifier. Text regions go through the Recognizer;
// the in-match clock is decoded from its segment layout directly.
type OCR struct {
	rec            Recognizer
	clockThreshold uint8
}

// NewOCR creates a classifier. clockThreshold is the luma cut used to
// binarize the in-match clock; 0 selects 128.
func NewOCR(rec Recognizer, clockThreshold uint8) *OCR {
	if clockThreshold == 0 {
		clockThreshold = 128
	}
	return &OCR{rec: rec, clockThreshold: clockThreshold}
}

// Classify implements Classifier.
func (o *OCR) Classify(ctx context.Context, sig bitmap.Signal, frame *image.RGBA) (Reading, error) {
	r := Absent(sig)
	var err error

	switch sig {
	case bitmap.Tier:
		var text string
		if text, err = o.text(ctx, frame, TierRegion); err == nil {
			r.Tier, r.Present = ParseTier(text)
		}
	case bitmap.Roster:
		var lines []string
		if lines, err = o.lines(ctx, frame, RosterRegions[:]); err == nil {
			r.Roster, r.Present = ParseRoster(lines)
		}
	case bitmap.Challenge:
		var lines []string
		if lines, err = o.lines(ctx, frame, ChallengeRegions[:]); err == nil {
			r.Present = ParseChallenge(lines)
		}
	case bitmap.Hp:
		var text string
		if text, err = o.text(ctx, frame, HpRegion); err == nil {
			r.Present = ParseHp(text)
		}
	case bitmap.InMatchClock:
		r.Clock, r.Present, err = o.inMatchClock(frame)
	case bitmap.ResultClock:
		var text string
		if text, err = o.text(ctx, frame, ResultClockRegion); err == nil {
			if c, perr := clock.Parse(text); perr == nil {
				r.Clock, r.Present = c, true
			}
		}
	case bitmap.Loading:
		var text string
		if text, err = o.text(ctx, frame, LoadingRegion); err == nil {
			r.Present = ParseLoading(text)
		}
	case bitmap.Pause:
		var lines []string
		if lines, err = o.lines(ctx, frame, []image.Rectangle{PauseRestartRegion, PauseExitRegion}); err == nil {
			r.Present = ParsePause(lines[0], lines[1])
		}
	case bitmap.ConfirmDialog:
		var text string
		if text, err = o.text(ctx, frame, DialogRegion); err == nil {
			r.Dialog, r.Present = ParseDialog(text)
		}
	case bitmap.Blackout:
		r.Present = IsBlackout(frame)
	default:
		return r, fmt.Errorf("no probe for signal %v", sig)
	}

	if err != nil {
		return Absent(sig), fmt.Errorf("probe %v: %w", sig, err)
	}
	return r, nil
}

func (o *OCR) inMatchClock(frame *image.RGBA) (clock.Clock, bool, error) {
	img, err := crop(frame, InMatchClockRegion)
	if err != nil {
		return clock.Clock{}, false, err
	}
	text, err := segment.Decode(segment.Binarize(img, o.clockThreshold))
	if err != nil {
		// Unreadable is absence, not failure.
		return clock.Clock{}, false, nil
	}
	c, err := clock.Parse(text)
	if err != nil {
		return clock.Clock{}, false, nil
	}
	return c, true, nil
}

func (o *OCR) text(ctx context.Context, frame *image.RGBA, r image.Rectangle) (string, error) {
	img, err := crop(frame, r)
	if err != nil {
		return "", err
	}
	return o.rec.Text(ctx, img)
}

func (o *OCR) lines(ctx context.Context, frame *image.RGBA, rs []image.Rectangle) ([]string, error) {
	out := make([]string, len(rs))
	for i, r := range rs {
		text, err := o.text(ctx, frame, r)
		if err != nil {
			return nil, err
		}
		out[i] = text
	}
	return out, nil
}
