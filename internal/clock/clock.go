// Package clock models the H:M:S timers shown in and after a match.
package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned when a clock string is not three numeric groups.
var ErrMalformed = errors.New("malformed clock")

// Clock is an hours/minutes/seconds triple as read off the screen.
type Clock struct {
	Hours   uint16 `json:"hours"`
	Minutes uint16 `json:"minutes"`
	Seconds uint16 `json:"seconds"`
}

// Parse reads "HH:MM:SS". Surrounding whitespace is ignored.
func Parse(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Clock{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	var vals [3]uint16
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Clock{}, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		vals[i] = uint16(n)
	}
	return Clock{Hours: vals[0], Minutes: vals[1], Seconds: vals[2]}, nil
}

// FromSeconds splits a second count back into a Clock.
func FromSeconds(total uint64) Clock {
	return Clock{
		Hours:   uint16(total / 3600),
		Minutes: uint16(total % 3600 / 60),
		Seconds: uint16(total % 60),
	}
}

// TotalSeconds returns h*3600 + m*60 + s.
func (c Clock) TotalSeconds() uint64 {
	return uint64(c.Hours)*3600 + uint64(c.Minutes)*60 + uint64(c.Seconds)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
}
