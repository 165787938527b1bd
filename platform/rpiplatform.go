package platform

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
	a "lautenbacher.net/ledfade/animation"
	c "lautenbacher.net/ledfade/config"
)

// RaspberryPiPlatform drives one SPI LED (WS2801 or APA102) on SPI0.
// The LedGPIO pin is held high for the duration of every transfer to
// select the LED.
type RaspberryPiPlatform struct {
	*AbstractPlatform
	ledDriver ledDriver
	selectPin rpio.Pin
	spiMutex  sync.Mutex
	started   bool
}

func NewRaspberryPiPlatform(conf *c.Config) *RaspberryPiPlatform {
	inst := &RaspberryPiPlatform{}
	inst.AbstractPlatform = newAbstractPlatform(conf, inst.rpiColorFunc)
	return inst
}

func (s *RaspberryPiPlatform) Start() error {
	var err error
	s.ledDriver, err = newLedDriver(s.config.Hardware)
	if err != nil {
		return err
	}

	slog.Info("Initialise GPIO and Spi...", "ledType", s.config.Hardware.LEDType, "gpio", s.config.Hardware.LedGPIO)
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("failed to open rpio: %w", err)
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		rpio.Close()
		return fmt.Errorf("failed to begin spi: %w", err)
	}
	rpio.SpiSpeed(s.config.Hardware.SPIFrequency)
	rpio.SpiChipSelect(0)

	s.selectPin = rpio.Pin(s.config.Hardware.LedGPIO)
	s.selectPin.Output()
	s.selectPin.Low()
	s.started = true

	// Whatever the LED showed before is switched off first.
	s.Clear()

	close(s.readyChan) // For RPi, we are ready immediately.
	return nil
}

func (s *RaspberryPiPlatform) Stop() {
	if !s.started {
		return
	}
	s.Clear()
	s.setInShutdown()

	s.spiMutex.Lock()
	defer s.spiMutex.Unlock()
	s.selectPin.Low()
	rpio.SpiEnd(rpio.Spi0)
	if err := rpio.Close(); err != nil {
		slog.Error("Error closing rpio", "error", err)
	}
	s.started = false
}

func (s *RaspberryPiPlatform) rpiColorFunc(led a.Led) {
	if err := s.ledDriver.write(led, s.spiExchange); err != nil {
		slog.Error("Error writing to LED driver", "error", err)
	}
}

func (s *RaspberryPiPlatform) spiExchange(data []byte) {
	s.spiMutex.Lock()
	defer s.spiMutex.Unlock()

	s.selectPin.High()
	rpio.SpiTransmit(data...)
	s.selectPin.Low()
}

// ledDriver interface and implementations
type ledDriver interface {
	write(led a.Led, exchangeFunc func([]byte)) error
}

func newLedDriver(hw c.HardwareConfig) (ledDriver, error) {
	if len(hw.ColorCorrection) != 3 {
		return nil, fmt.Errorf("color correction needs 3 values, got %d", len(hw.ColorCorrection))
	}
	switch strings.ToUpper(hw.LEDType) {
	case "APA102":
		return newApa102Driver(hw), nil
	case "WS2801":
		return newWs2801Driver(hw), nil
	default:
		return nil, fmt.Errorf("unknown LED type: %s", hw.LEDType)
	}
}

// corrected scales a color component and caps it at 255.
func corrected(value byte, factor float64) byte {
	return byte(math.Min(float64(value)*factor, 255))
}

type ws2801Driver struct {
	colorCorrection []float64
	buffer          []byte
}

func newWs2801Driver(hw c.HardwareConfig) *ws2801Driver {
	return &ws2801Driver{
		colorCorrection: hw.ColorCorrection,
		buffer:          make([]byte, 3),
	}
}

func (d *ws2801Driver) write(led a.Led, exchangeFunc func([]byte)) error {
	d.buffer[0] = corrected(led.Red, d.colorCorrection[0])
	d.buffer[1] = corrected(led.Green, d.colorCorrection[1])
	d.buffer[2] = corrected(led.Blue, d.colorCorrection[2])
	exchangeFunc(d.buffer)
	return nil
}

type apa102Driver struct {
	colorCorrection []float64
	brightness      byte
	buffer          []byte
}

// A single LED needs 4 bytes start frame, 4 bytes LED frame and one
// byte end frame.
const apa102FrameSize = 4 + 4 + 1

func newApa102Driver(hw c.HardwareConfig) *apa102Driver {
	return &apa102Driver{
		colorCorrection: hw.ColorCorrection,
		brightness:      hw.APA102_Brightness,
		buffer:          make([]byte, apa102FrameSize),
	}
}

func (d *apa102Driver) write(led a.Led, exchangeFunc func([]byte)) error {
	if d.brightness > 31 {
		return fmt.Errorf("apa102 brightness %d exceeds 31", d.brightness)
	}
	display := d.buffer

	// Frame start: 4 zero bytes
	copy(display[0:4], []byte{0x00, 0x00, 0x00, 0x00})

	// protocol: brightness byte, blue, green, red
	display[4] = d.brightness | 0xE0
	display[5] = corrected(led.Blue, d.colorCorrection[2])
	display[6] = corrected(led.Green, d.colorCorrection[1])
	display[7] = corrected(led.Red, d.colorCorrection[0])

	// Frame end
	display[8] = 0xFF

	exchangeFunc(display)
	return nil
}
