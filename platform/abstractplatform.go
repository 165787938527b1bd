package platform

import (
	"sync"

	a "lautenbacher.net/ledfade/animation"
	c "lautenbacher.net/ledfade/config"
)

// AbstractPlatform holds what the hardware and the simulation share:
// the config, the ready signal and the shutdown guard that keeps
// colors from reaching a device that is being torn down.
type AbstractPlatform struct {
	config         *c.Config
	colorFunc      func(a.Led)
	readyChan      chan bool
	shutdownMutex  sync.RWMutex
	isShuttingDown bool
	lastColor      a.Led
}

func newAbstractPlatform(conf *c.Config, colorFunc func(a.Led)) *AbstractPlatform {
	return &AbstractPlatform{
		config:    conf,
		colorFunc: colorFunc,
		readyChan: make(chan bool),
	}
}

func (s *AbstractPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *AbstractPlatform) SetColor(led a.Led) {
	s.shutdownMutex.Lock()
	defer s.shutdownMutex.Unlock()
	if s.isShuttingDown {
		return
	}
	s.lastColor = led
	s.colorFunc(led)
}

func (s *AbstractPlatform) Clear() {
	s.SetColor(a.Led{})
}

// LastColor returns the color most recently sent to the device.
func (s *AbstractPlatform) LastColor() a.Led {
	s.shutdownMutex.RLock()
	defer s.shutdownMutex.RUnlock()
	return s.lastColor
}

func (s *AbstractPlatform) setInShutdown() {
	s.shutdownMutex.Lock()
	s.isShuttingDown = true
	s.shutdownMutex.Unlock()
}
