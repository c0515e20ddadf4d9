// Package capture produces frames of the game window for the scanner.
package capture

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"time"
)

var (
	// ErrTargetNotFound means the game window is not open.
	ErrTargetNotFound = errors.New("capture target not found")
	// ErrNoFrame means nothing has been captured yet.
	ErrNoFrame = errors.New("no frame captured yet")
	// ErrExhausted means a finite source has no more frames.
	ErrExhausted = errors.New("no more frames")
)

// Source captures one frame on demand.
type Source interface {
	Capture(ctx context.Context) (*image.RGBA, error)
}

// Frame is one published capture. Frames are immutable once published and may
// be shared freely between goroutines.
type Frame struct {
	Seq   uint64
	At    time.Time
	Image *image.RGBA
}

// Frames hands the most recent frame to a consumer.
type Frames interface {
	Latest(ctx context.Context) (*Frame, error)
}

// toRGBA returns img as an *image.RGBA with its bounds moved to the origin,
// copying only when needed.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
