// Package segment decodes the seven-segment HH:MM:SS clock drawn in the
// top-right corner of the match HUD.
//
// A read is all-or-nothing. Any ambiguous probe point or unmatched digit
// pattern fails the whole clock, so a value caught mid-animation is never
// reported.
package segment

import (
	"errors"
	"image"
	"image/color"
	"strings"
)

// ErrUnreadable is returned when the clock cannot be decoded with certainty.
var ErrUnreadable = errors.New("clock unreadable")

// Cell geometry, in pixels relative to the clock crop.
const (
	// Width and Height of the crop the layout is defined for.
	Width  = 126
	Height = 21

	sectionStride = 46 // two digits (14 px) + inner gap (5 px) + section gap (13 px)
	digitStride   = 19
	neighbour     = 2
	lit           = 255
)

// Segment order inside a Pattern.
const (
	UpperLeft = iota
	LowerLeft
	Top
	Middle
	Bottom
	UpperRight
	LowerRight
)

// Pattern is the lit state of the seven segments of one digit.
type Pattern [7]bool

var digits = [10]Pattern{
	{true, true, true, false, true, true, true},
	{false, false, false, false, false, true, true},
	{false, true, true, true, true, true, false},
	{false, false, true, true, true, true, true},
	{true, false, false, true, false, true, true},
	{true, false, true, true, true, false, true},
	{true, true, true, true, true, false, true},
	{false, false, true, false, false, true, true},
	{true, true, true, true, true, true, true},
	{true, false, true, true, true, true, true},
}

// Digit returns the digit whose reference pattern equals p exactly.
func Digit(p Pattern) (int, bool) {
	for d, ref := range digits {
		if ref == p {
			return d, true
		}
	}
	return 0, false
}

// PatternOf returns the reference pattern for d. It panics if d is not 0-9.
func PatternOf(d int) Pattern {
	return digits[d]
}

// probe is one sample point plus the neighbours that must be dark for the
// sample to be trusted.
type probe struct {
	at         image.Point
	neighbours []image.Point
}

// cellOrigin returns the x offset of digit cell n (0-5).
func cellOrigin(n int) int {
	return (n/2)*sectionStride + (n%2)*digitStride
}

// ProbePoints returns the seven sample points of digit cell n in Pattern order.
func ProbePoints(n int) [7]image.Point {
	var pts [7]image.Point
	for i, p := range probes(n) {
		pts[i] = p.at
	}
	return pts
}

func probes(n int) [7]probe {
	x := cellOrigin(n)
	var out [7]probe
	i := 0

	// Vertical segments are guarded left and right, horizontal ones above and below.
	for _, y := range []int{6, 15} {
		lx := x + 1
		p := probe{at: image.Pt(lx, y)}
		if lx-neighbour >= 0 {
			p.neighbours = append(p.neighbours, image.Pt(lx-neighbour, y))
		}
		p.neighbours = append(p.neighbours, image.Pt(lx+neighbour, y))
		out[i] = p
		i++
	}
	for _, y := range []int{1, 10, 19} {
		mx := x + 7
		p := probe{at: image.Pt(mx, y)}
		if y-neighbour >= 0 {
			p.neighbours = append(p.neighbours, image.Pt(mx, y-neighbour))
		}
		if y+neighbour < Height {
			p.neighbours = append(p.neighbours, image.Pt(mx, y+neighbour))
		}
		out[i] = p
		i++
	}
	for _, y := range []int{6, 15} {
		rx := x + 13
		p := probe{at: image.Pt(rx, y)}
		if rx+neighbour < Width {
			p.neighbours = append(p.neighbours, image.Pt(rx+neighbour, y))
		}
		p.neighbours = append(p.neighbours, image.Pt(rx-neighbour, y))
		out[i] = p
		i++
	}
	return out
}

// Decode reads a binarized clock crop and returns "HH:MM:SS".
func Decode(img *image.Gray) (string, error) {
	if img == nil {
		return "", ErrUnreadable
	}
	b := img.Bounds()
	if b.Dx() < Width || b.Dy() < Height {
		return "", ErrUnreadable
	}
	at := func(p image.Point) uint8 {
		return img.GrayAt(b.Min.X+p.X, b.Min.Y+p.Y).Y
	}

	var sb strings.Builder
	for cell := 0; cell < 6; cell++ {
		if cell > 0 && cell%2 == 0 {
			sb.WriteByte(':')
		}
		var pat Pattern
		for i, p := range probes(cell) {
			for _, n := range p.neighbours {
				if at(n) > 0 {
					return "", ErrUnreadable
				}
			}
			pat[i] = at(p.at) == lit
		}
		d, ok := Digit(pat)
		if !ok {
			return "", ErrUnreadable
		}
		sb.WriteByte(byte('0' + d))
	}
	return sb.String(), nil
}

// Binarize converts img to a grayscale image where every pixel with luma at or
// above threshold becomes 255 and every other pixel 0. The result's bounds
// start at the origin.
func Binarize(img image.Image, threshold uint8) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y >= threshold {
				out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: lit})
			}
		}
	}
	return out
}
