package platform

import (
	a "lautenbacher.net/ledfade/animation"
)

// Platform abstracts the real LED hardware away from the terminal
// simulation. Both implement animation.Effector.
type Platform interface {
	// Start configures the output device. An error here is fatal.
	Start() error

	// Stop switches the LED off and releases all platform resources.
	Stop()

	// Ready is closed once the platform can display colors.
	Ready() <-chan bool

	// SetColor shows led on the device.
	SetColor(led a.Led)

	// Clear switches the LED off.
	Clear()
}
