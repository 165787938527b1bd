package platform

import (
	"sync"

	a "lautenbacher.net/ledfade/animation"
)

// frameMailbox hands the newest LED color from the animation to the
// redraw loop. Posting never blocks. Colors posted while a redraw is
// still pending overwrite each other and are counted as skipped.
type frameMailbox struct {
	mu      sync.Mutex
	led     a.Led
	pending int
	skipped int
	ready   chan struct{}
}

func newFrameMailbox() *frameMailbox {
	return &frameMailbox{ready: make(chan struct{}, 1)}
}

// Post stores led as the newest frame and wakes the redraw loop.
func (m *frameMailbox) Post(led a.Led) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.led = led
	m.pending++
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Ready fires once per batch of posts.
func (m *frameMailbox) Ready() <-chan struct{} {
	return m.ready
}

// Take returns the newest frame and how many frames it replaced since
// the previous Take.
func (m *frameMailbox) Take() (a.Led, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	replaced := max(0, m.pending-1)
	m.skipped += replaced
	m.pending = 0
	return m.led, replaced
}

// Skipped is the total number of frames that never got drawn.
func (m *frameMailbox) Skipped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.skipped
}
