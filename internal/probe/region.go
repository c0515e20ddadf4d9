package probe

import "image"

// Reference frame size all regions are measured against.
const (
	FrameWidth  = 1920
	FrameHeight = 1080
)

func rect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

// Screen regions on a FrameWidth x FrameHeight capture.
var (
	TierRegion         = rect(366, 229, 289, 28)
	HpRegion           = rect(250, 85, 90, 16)
	InMatchClockRegion = rect(1634, 82, 126, 21)
	ResultClockRegion  = rect(450, 630, 150, 33)
	LoadingRegion      = rect(1473, 930, 299, 87)
	DialogRegion       = rect(784, 510, 351, 29)
	PauseRestartRegion = rect(1290, 1007, 210, 45)
	PauseExitRegion    = rect(1620, 1007, 210, 45)

	// ChallengeRegions are the three lines of the challenge banner.
	ChallengeRegions = [3]image.Rectangle{
		rect(117, 328, 352, 28),
		rect(117, 366, 352, 28),
		rect(117, 404, 260, 28),
	}

	// RosterRegions are the name plates of the six agent slots, top row first.
	RosterRegions = [RosterSize]image.Rectangle{
		rect(367, 453, 200, 60),
		rect(841, 453, 200, 60),
		rect(1314, 453, 200, 60),
		rect(367-131, 900, 200, 60),
		rect(841-131, 900, 200, 60),
		rect(1314-131, 900, 200, 60),
	}
)

// crop returns the part of frame inside r. r is relative to the frame origin.
func crop(frame *image.RGBA, r image.Rectangle) (*image.RGBA, error) {
	b := frame.Bounds()
	abs := r.Add(b.Min)
	if !abs.In(b) {
		return nil, ErrFrameSize
	}
	return frame.SubImage(abs).(*image.RGBA), nil
}
