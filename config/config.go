package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"lautenbacher.net/ledfade/animation"
)

const CONFILE = "config.yml"

const maxHeaderGPIO = 27

type Config struct {
	RealHW     bool            `yaml:"-"`
	Configfile string          `yaml:"-"`
	Animation  AnimationConfig `yaml:"Animation"`
	Hardware   HardwareConfig  `yaml:"Hardware"`
	Logging    LoggingConfig   `yaml:"Logging"`
}

type AnimationConfig struct {
	Mode         string        `yaml:"Mode"`
	StepInterval time.Duration `yaml:"StepInterval"`
	MinIntensity int           `yaml:"MinIntensity"`
	MaxIntensity int           `yaml:"MaxIntensity"`
	TotalCycles  int           `yaml:"TotalCycles"`
	// Seconds to count down before restarting after a bounded run
	RestartDelay int   `yaml:"RestartDelay"`
	StartRGB     []int `yaml:"StartRGB"`
}

type HardwareConfig struct {
	LEDType           string    `yaml:"LEDType"`
	LedGPIO           int       `yaml:"LedGPIO"`
	SPIFrequency      int       `yaml:"SPIFrequency"`
	ColorCorrection   []float64 `yaml:"ColorCorrection"`
	APA102_Brightness byte      `yaml:"APA102_Brightness"`
}

type LoggingConfig struct {
	TUI LogConfig `yaml:"TUI"`
	HW  LogConfig `yaml:"HW"`
}

type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

// Defaults returns the configuration used for every key the config
// file does not set.
func Defaults() Config {
	return Config{
		Animation: AnimationConfig{
			Mode:         "bounded",
			StepInterval: 10 * time.Millisecond,
			MinIntensity: 0,
			MaxIntensity: 100,
			TotalCycles:  3,
			RestartDelay: 10,
			StartRGB:     []int{0, 40, 80},
		},
		Hardware: HardwareConfig{
			LEDType:           "WS2801",
			LedGPIO:           25,
			SPIFrequency:      1000000,
			ColorCorrection:   []float64{1, 1, 1},
			APA102_Brightness: 31,
		},
		Logging: LoggingConfig{
			TUI: LogConfig{Level: "INFO", Format: "text"},
			HW:  LogConfig{Level: "INFO", Format: "text"},
		},
	}
}

// ReadConfig reads the config file once, on top of Defaults(), and
// validates the result.
func ReadConfig(cfile string) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := Defaults()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	// An empty file leaves all defaults in place
	if err := decoder.Decode(&conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	conf.Configfile = cfile
	return &conf, nil
}

// Validate checks all settings the program can't run without.
func (c *Config) Validate() error {
	if err := c.Animation.validate(); err != nil {
		return fmt.Errorf("Animation: %w", err)
	}
	if err := c.Hardware.validate(); err != nil {
		return fmt.Errorf("Hardware: %w", err)
	}
	return nil
}

func (a AnimationConfig) validate() error {
	mode, err := animation.ParseMode(a.Mode)
	if err != nil {
		return err
	}
	if a.StepInterval <= 0 {
		return fmt.Errorf("StepInterval %s must be positive", a.StepInterval)
	}
	if a.RestartDelay < 0 {
		return fmt.Errorf("RestartDelay %d must not be negative", a.RestartDelay)
	}
	if len(a.StartRGB) != 3 {
		return fmt.Errorf("StartRGB must have exactly 3 values, got %d", len(a.StartRGB))
	}
	return a.InitialState().Validate(a.Bounds(), mode)
}

// Bounds is the intensity range of the animation.
func (a AnimationConfig) Bounds() animation.Bounds {
	return animation.Bounds{Min: a.MinIntensity, Max: a.MaxIntensity}
}

// AnimationMode parses Mode. Validated configs never return an error.
func (a AnimationConfig) AnimationMode() (animation.Mode, error) {
	return animation.ParseMode(a.Mode)
}

// InitialState builds the starting state from StartRGB and TotalCycles.
func (a AnimationConfig) InitialState() animation.State {
	var rgb [3]int
	copy(rgb[:], a.StartRGB)
	return animation.NewState(rgb[0], rgb[1], rgb[2], a.TotalCycles)
}

func (h HardwareConfig) validate() error {
	switch strings.ToUpper(h.LEDType) {
	case "WS2801", "APA102":
	default:
		return fmt.Errorf("unknown LEDType %q, must be one of WS2801, APA102", h.LEDType)
	}
	// Only GPIO 0-27 reach the header, the pins above drive the SD card
	// and other on-board peripherals on older boards.
	if h.LedGPIO < 0 || h.LedGPIO > maxHeaderGPIO {
		return fmt.Errorf("LedGPIO %d must be a header pin between 0 and %d", h.LedGPIO, maxHeaderGPIO)
	}
	if h.SPIFrequency <= 0 {
		return fmt.Errorf("SPIFrequency %d must be positive", h.SPIFrequency)
	}
	if len(h.ColorCorrection) != 3 {
		return fmt.Errorf("ColorCorrection must have exactly 3 values, got %d", len(h.ColorCorrection))
	}
	for i, v := range h.ColorCorrection {
		if v < 0 {
			return fmt.Errorf("ColorCorrection[%d] %.2f must not be negative", i, v)
		}
	}
	if h.APA102_Brightness > 31 {
		return fmt.Errorf("APA102_Brightness %d must be between 0 and 31", h.APA102_Brightness)
	}
	return nil
}

// Local Variables:
// compile-command: "cd .. && go build"
// End:
