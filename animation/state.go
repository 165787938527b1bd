package animation

import (
	"fmt"
	"strings"
)

// Mode selects how the animation ends.
type Mode int

const (
	// Endless runs the triangle waves forever.
	Endless Mode = iota
	// Bounded counts cycles on the blue channel and switches every
	// channel off at its next minimum once the count is used up.
	Bounded
)

func (m Mode) String() string {
	switch m {
	case Endless:
		return "endless"
	case Bounded:
		return "bounded"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "endless" or "bounded", case insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "endless":
		return Endless, nil
	case "bounded":
		return Bounded, nil
	}
	return Endless, fmt.Errorf("unknown animation mode %q, must be one of endless, bounded", s)
}

// State holds the three channel oscillators and, in bounded mode, the
// number of cycles left. Only the blue channel consumes cycles.
type State struct {
	Red             Channel
	Green           Channel
	Blue            Channel
	CyclesRemaining int
}

// NewState returns a state with all channels rising from the given
// start intensities.
func NewState(red, green, blue, cycles int) State {
	return State{
		Red:             Channel{Intensity: red, Direction: Rising},
		Green:           Channel{Intensity: green, Direction: Rising},
		Blue:            Channel{Intensity: blue, Direction: Rising},
		CyclesRemaining: cycles,
	}
}

// Validate checks that s can be stepped with b in mode m without ever
// leaving the bounds and, for bounded mode, that it will terminate.
func (s State) Validate(b Bounds, m Mode) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.Red.validate("red", b); err != nil {
		return err
	}
	if err := s.Green.validate("green", b); err != nil {
		return err
	}
	if err := s.Blue.validate("blue", b); err != nil {
		return err
	}
	if m == Bounded && s.CyclesRemaining < 1 {
		return fmt.Errorf("total cycles %d must be at least 1", s.CyclesRemaining)
	}
	return nil
}

// Step advances every channel that is not off by one unit, red first,
// then green, then blue.
func (s State) Step(b Bounds, m Mode) State {
	if m == Endless {
		s.Red = s.Red.Step(b)
		s.Green = s.Green.Step(b)
		s.Blue = s.Blue.Step(b)
		return s
	}

	s.Red = s.stepFollower(s.Red, b)
	s.Green = s.stepFollower(s.Green, b)

	if !s.Blue.Off {
		var bottom bool
		s.Blue, bottom = s.Blue.advance(b)
		if bottom {
			s.CyclesRemaining--
			s.Blue = s.Blue.settle(s.CyclesRemaining == 0)
		}
	}
	return s
}

// stepFollower steps red or green. They go off at their minimum once
// blue has used up all cycles.
func (s State) stepFollower(c Channel, b Bounds) Channel {
	if c.Off {
		return c
	}
	c, bottom := c.advance(b)
	if bottom {
		c = c.settle(s.CyclesRemaining == 0)
	}
	return c
}

// Done is true once all three channels are off.
func (s State) Done() bool {
	return s.Red.Off && s.Green.Off && s.Blue.Off
}

// Led returns the current intensities as a color. Valid bounds keep
// every intensity inside a byte.
func (s State) Led() Led {
	return Led{
		Red:   byte(s.Red.Intensity),
		Green: byte(s.Green.Intensity),
		Blue:  byte(s.Blue.Intensity),
	}
}
