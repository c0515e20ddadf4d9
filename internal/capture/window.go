package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
)

// WindowConfig identifies the game window and the capture size.
type WindowConfig struct {
	// Name is the process or window name searched for.
	Name   string
	Width  int
	Height int
}

// screen is the part of robotgo a WindowSource uses.
type screen interface {
	FindIds(name string) ([]int, error)
	GetBounds(pid int) (x, y, w, h int)
	CaptureImg(x, y, w, h int) (image.Image, error)
}

type robotgoScreen struct{}

func (robotgoScreen) FindIds(name string) ([]int, error) { return robotgo.FindIds(name) }

func (robotgoScreen) GetBounds(pid int) (int, int, int, int) { return robotgo.GetBounds(pid) }

func (robotgoScreen) CaptureImg(x, y, w, h int) (image.Image, error) {
	return robotgo.CaptureImg(x, y, w, h)
}

// WindowSource captures the game window from the desktop.
type WindowSource struct {
	cfg    WindowConfig
	screen screen
	pid    int
}

// NewWindowSource creates a source for the window named in cfg.
func NewWindowSource(cfg WindowConfig) *WindowSource {
	return &WindowSource{cfg: cfg, screen: robotgoScreen{}}
}

// Capture implements Source. The window is looked up again whenever it has
// disappeared, so the game may be restarted while the scanner runs.
func (w *WindowSource) Capture(ctx context.Context) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.pid == 0 {
		ids, err := w.screen.FindIds(w.cfg.Name)
		if err != nil || len(ids) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrTargetNotFound, w.cfg.Name)
		}
		w.pid = ids[0]
	}

	x, y, bw, bh := w.screen.GetBounds(w.pid)
	if bw <= 0 || bh <= 0 {
		w.pid = 0
		return nil, fmt.Errorf("%w: %q has no bounds", ErrTargetNotFound, w.cfg.Name)
	}

	width, height := w.cfg.Width, w.cfg.Height
	if width <= 0 || width > bw {
		width = bw
	}
	if height <= 0 || height > bh {
		height = bh
	}
	// Window chrome sits on top; the client area is the bottom-left of the bounds.
	x += (bw - width) / 2
	y += bh - height

	img, err := w.screen.CaptureImg(x, y, width, height)
	if err != nil {
		return nil, fmt.Errorf("capture %q: %w", w.cfg.Name, err)
	}
	return toRGBA(img), nil
}
