package probe

import "image"

// blackoutMargin is the strip of the frame bottom left out of the check; the
// HUD there stays lit during the transition.
const blackoutMargin = 100

// IsBlackout reports whether any vertical quarter of the frame, above the
// bottom margin, is entirely opaque black.
func IsBlackout(frame *image.RGBA) bool {
	b := frame.Bounds()
	w := b.Dx() / 4
	h := b.Dy() - blackoutMargin
	if w == 0 || h <= 0 {
		return false
	}
	for i := 0; i < 4; i++ {
		x0 := b.Min.X + i*w
		if allBlack(frame, image.Rect(x0, b.Min.Y, x0+w, b.Min.Y+h)) {
			return true
		}
	}
	return false
}

func allBlack(frame *image.RGBA, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := frame.Pix[frame.PixOffset(r.Min.X, y):frame.PixOffset(r.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			if row[i] != 0 || row[i+1] != 0 || row[i+2] != 0 || row[i+3] != 255 {
				return false
			}
		}
	}
	return true
}
