package animation

import (
	"errors"
	"fmt"
)

// Direction of an intensity ramp
type Direction int

const (
	Rising Direction = iota
	Falling
)

func (d Direction) String() string {
	if d == Falling {
		return "falling"
	}
	return "rising"
}

// Bounds is the closed-open intensity range [Min, Max). Max itself is
// never emitted.
type Bounds struct {
	Min int
	Max int
}

// Validate makes sure a ramp inside the bounds can reverse at both
// ends and that every value fits into a single LED color byte.
func (b Bounds) Validate() error {
	if b.Min < 0 {
		return fmt.Errorf("min intensity %d must not be negative", b.Min)
	}
	if b.Max > 256 {
		return fmt.Errorf("max intensity %d must not be bigger than 256", b.Max)
	}
	if b.Max-b.Min < 2 {
		return fmt.Errorf("intensity range [%d, %d) must span at least two values", b.Min, b.Max)
	}
	return nil
}

// Contains reports whether v lies in [Min, Max)
func (b Bounds) Contains(v int) bool {
	return v >= b.Min && v < b.Max
}

// Channel is the state of one color oscillator. Once Off is set the
// channel is frozen.
type Channel struct {
	Intensity int
	Direction Direction
	Off       bool
}

var errChannelOff = errors.New("channel is off")

// Step advances a free running channel by one unit. It reverses at
// Max-1 going up and at Min going down and never stops.
func (c Channel) Step(b Bounds) Channel {
	c, bottom := c.advance(b)
	if bottom {
		c.Direction = Rising
	}
	return c
}

// advance moves the intensity one unit in the current direction. The
// top reversal happens here: reaching Max clamps to Max-1 and turns the
// channel around. Reaching Min is only reported, the caller decides
// whether the channel rises again or goes off.
func (c Channel) advance(b Bounds) (Channel, bool) {
	if c.Direction == Rising {
		c.Intensity++
		if c.Intensity >= b.Max {
			c.Intensity = b.Max - 1
			c.Direction = Falling
		}
		return c, false
	}
	c.Intensity--
	if c.Intensity <= b.Min {
		c.Intensity = b.Min
		return c, true
	}
	return c, false
}

func (c Channel) settle(finished bool) Channel {
	if finished {
		c.Off = true
	} else {
		c.Direction = Rising
	}
	return c
}

func (c Channel) validate(name string, b Bounds) error {
	if !b.Contains(c.Intensity) {
		return fmt.Errorf("%s intensity %d must be in [%d, %d)", name, c.Intensity, b.Min, b.Max)
	}
	if c.Off {
		return fmt.Errorf("%s: %w", name, errChannelOff)
	}
	return nil
}
