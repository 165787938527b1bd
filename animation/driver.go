package animation

import (
	"fmt"
	"log/slog"
	"time"
)

// Effector is the sink the driver pushes colors to. Implementations
// own the hardware and deal with their own errors.
type Effector interface {
	// SetColor shows led and flushes it to the device.
	SetColor(led Led)
	// Clear switches the LED off.
	Clear()
}

// Result describes how a run of the driver ended.
type Result struct {
	// Number of colors pushed by the loop, not counting the final one
	Frames int
	// True if a bounded animation ran to the end, false if the stop
	// channel fired
	Completed bool
	Final     State
}

// Driver runs the color animation loop on a single effector.
type Driver struct {
	state    State
	bounds   Bounds
	mode     Mode
	effector Effector
	interval time.Duration
}

func NewDriver(state State, bounds Bounds, mode Mode, effector Effector, interval time.Duration) (*Driver, error) {
	if err := state.Validate(bounds, mode); err != nil {
		return nil, fmt.Errorf("invalid animation state: %w", err)
	}
	if interval < 0 {
		return nil, fmt.Errorf("step interval %s must not be negative", interval)
	}
	return &Driver{
		state:    state,
		bounds:   bounds,
		mode:     mode,
		effector: effector,
		interval: interval,
	}, nil
}

// State returns the current animation state. Not safe to call while
// Run is active in another goroutine.
func (d *Driver) State() State {
	return d.state
}

// Run pushes the current color, steps all channels and waits one
// interval, over and over. A bounded animation returns once every
// channel is off, after pushing the final color one more time. An
// endless animation only returns when stop fires.
func (d *Driver) Run(stop <-chan struct{}) Result {
	slog.Info("Starting color animation", "mode", d.mode, "min", d.bounds.Min, "max", d.bounds.Max,
		"cycles", d.state.CyclesRemaining, "interval", d.interval, "start", d.state.Led())

	timer := time.NewTimer(d.interval)
	timer.Stop()
	defer timer.Stop()

	frames := 0
	for {
		d.effector.SetColor(d.state.Led())
		frames++

		cycles := d.state.CyclesRemaining
		d.state = d.state.Step(d.bounds, d.mode)
		if d.state.CyclesRemaining != cycles {
			slog.Debug("Color cycle finished", "remaining", d.state.CyclesRemaining, "frame", frames)
		}

		timer.Reset(d.interval)
		select {
		case <-stop:
			return d.stopped(frames)
		case <-timer.C:
		}

		// select picks randomly when both are ready, a stop must still
		// win over the last frame.
		if stopRequested(stop) {
			return d.stopped(frames)
		}
		if d.mode == Bounded && d.state.Done() {
			break
		}
	}

	d.effector.SetColor(d.state.Led())
	slog.Info("Color animation finished", "frames", frames, "final", d.state.Led())
	return Result{Frames: frames, Completed: true, Final: d.state}
}

func (d *Driver) stopped(frames int) Result {
	slog.Info("Color animation stopped", "frames", frames)
	return Result{Frames: frames, Final: d.state}
}

func stopRequested(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}
