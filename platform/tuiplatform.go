package platform

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/gammazero/deque"
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/tview"

	a "lautenbacher.net/ledfade/animation"
	c "lautenbacher.net/ledfade/config"
	"lautenbacher.net/ledfade/logging"
)

const (
	trailLength  = 64
	swatchWidth  = 16
	swatchHeight = 3
)

// TUIPlatform simulates the LED in the terminal: a colored swatch,
// the trail of recent colors and a log pane.
type TUIPlatform struct {
	*AbstractPlatform
	tviewapp     *tview.Application
	intro        *tview.TextView
	ledDisplay   *tview.TextView
	logView      *tview.TextView
	ossignalChan chan os.Signal
	frames       *frameMailbox
	trail        *deque.Deque[a.Led]
	logFlushOnce sync.Once
	redrawStop   chan struct{}
	redrawWg     sync.WaitGroup
	started      bool
}

func NewTUIPlatform(conf *c.Config, ossignalchan chan os.Signal) *TUIPlatform {
	inst := &TUIPlatform{
		ossignalChan: ossignalchan,
		frames:       newFrameMailbox(),
		trail:        new(deque.Deque[a.Led]),
		redrawStop:   make(chan struct{}),
	}
	inst.AbstractPlatform = newAbstractPlatform(conf, inst.frames.Post)
	return inst
}

func (s *TUIPlatform) Start() error {
	s.initSimulationTUI()
	s.started = true

	s.redrawWg.Add(1)
	go s.redrawLoop()

	s.Clear()
	return nil
}

func (s *TUIPlatform) Stop() {
	if !s.started {
		return
	}
	s.setInShutdown()

	close(s.redrawStop)
	s.redrawWg.Wait()

	s.tviewapp.Stop()
	// The log pane is gone, everything from now on goes to stderr.
	if err := logging.SetOutput(os.Stderr); err != nil {
		slog.Error("Failed to restore log output", "error", err)
	}
	s.started = false
}

// redrawLoop turns the latest color into a redraw of the LED pane.
// Colors arriving faster than the terminal can draw are dropped in
// favour of the newest one.
func (s *TUIPlatform) redrawLoop() {
	defer s.redrawWg.Done()
	for {
		select {
		case <-s.redrawStop:
			slog.Debug("Ending redraw go-routine (TUI)", "skippedFrames", s.frames.Skipped())
			return
		case <-s.frames.Ready():
			led, _ := s.frames.Take()
			s.pushTrail(led)
			text := s.renderLed(led)
			s.tviewapp.QueueUpdateDraw(func() {
				s.ledDisplay.SetText(text)
			})
		}
	}
}

func (s *TUIPlatform) pushTrail(led a.Led) {
	if s.trail.Len() == trailLength {
		s.trail.PopFront()
	}
	s.trail.PushBack(led)
}

func (s *TUIPlatform) getIntroText() string {
	anim := s.config.Animation
	line1 := fmt.Sprintf("Mode: [#ffff00]%s[white] | Cycles: [#ffff00]%d[white] | Step: [#ffff00]%s[white]",
		anim.Mode, anim.TotalCycles, anim.StepInterval)
	line2 := fmt.Sprintf("Intensity range: [#ffff00][%d, %d)[white]", anim.MinIntensity, anim.MaxIntensity)
	line3 := "Hit [#ff0000]q[-] to exit"
	return fmt.Sprintf("%s\n%s\n%s", line1, line2, line3)
}

func (s *TUIPlatform) initSimulationTUI() {
	s.tviewapp = tview.NewApplication()

	// --- Intro Pane ---
	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(s.getIntroText())
	s.intro.SetBorder(true).SetTitle(" LEDFADE Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	// --- LED Display Pane ---
	s.ledDisplay = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.ledDisplay.SetBorder(true).SetTitle(" RGB LED ").SetTitleColor(tcell.ColorLightBlue)
	s.ledDisplay.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))

	// --- Log Pane ---
	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	// --- Layout ---
	ledHeight := swatchHeight + 3 + 2 // swatch, blank, trail, values, border

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 5, 0, false).
		AddItem(s.ledDisplay, ledHeight, 0, false).
		AddItem(s.logView, 0, 1, true)

	// --- Flush logs after first draw ---
	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			s.attachLogPane(tview.ANSIWriter(s.logView))
		})
	})

	// Quitting the simulation is the only key handled, it stands in
	// for powering off the board.
	s.tviewapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			s.interrupt()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				s.interrupt()
				return nil
			}
		}
		return event
	})

	// --- Start TUI ---
	go func() {
		if err := s.tviewapp.SetRoot(layout, true).Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			s.interrupt()
		}
	}()
}

// attachLogPane sends the held back and all future log output to w
// and marks the platform ready. A failing pane keeps logs buffered
// for stderr, it does not stop the simulation.
func (s *TUIPlatform) attachLogPane(w io.Writer) {
	if err := logging.SetOutput(w); err != nil {
		slog.Error("Failed to redirect log output to TUI", "error", err)
	}
	close(s.readyChan)
}

// interrupt asks main to shut down. A pending signal is enough, so
// this never blocks the TUI event loop.
func (s *TUIPlatform) interrupt() {
	select {
	case s.ossignalChan <- os.Interrupt:
	default:
	}
}

// renderLed builds the content of the LED pane for the current color.
func (s *TUIPlatform) renderLed(led a.Led) string {
	var buf strings.Builder
	color := scaledColor(led)
	level := levelChar(led, s.config.Animation.MaxIntensity)

	for i := 0; i < swatchHeight; i++ {
		buf.WriteString(color)
		if led.IsEmpty() {
			buf.WriteString("[#303030]" + strings.Repeat("·", swatchWidth))
		} else {
			buf.WriteString(strings.Repeat("█", swatchWidth))
		}
		buf.WriteString("[-]\n")
	}
	buf.WriteString("\n")

	for i := 0; i < s.trail.Len(); i++ {
		l := s.trail.At(i)
		if l.IsEmpty() {
			buf.WriteString(" ")
			continue
		}
		buf.WriteString(scaledColor(l))
		buf.WriteString(levelChar(l, s.config.Animation.MaxIntensity))
		buf.WriteString("[-]")
	}
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "[#ff4040]R %3d[-]  [#40ff40]G %3d[-]  [#4080ff]B %3d[-]  %s", led.Red, led.Green, led.Blue, level)
	return buf.String()
}

// scaledColor returns a tview color tag for led with its brightest
// component scaled up to full intensity, so dim colors stay visible.
func scaledColor(led a.Led) string {
	maxColor := max(led.Red, led.Green, led.Blue)
	if maxColor == 0 {
		return "[#000000]"
	}
	factor := float64(maxColor)
	col := colorful.Color{
		R: float64(led.Red) / factor,
		G: float64(led.Green) / factor,
		B: float64(led.Blue) / factor,
	}
	return "[" + col.Clamped().Hex() + "]"
}

var levelChars = []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// levelChar picks a block character for the average brightness of led
// relative to maxIntensity.
func levelChar(led a.Led, maxIntensity int) string {
	if maxIntensity <= 1 {
		return levelChars[len(levelChars)-1]
	}
	avg := (float64(led.Red) + float64(led.Green) + float64(led.Blue)) / 3.0
	idx := int(avg / float64(maxIntensity-1) * float64(len(levelChars)-1))
	return levelChars[max(0, min(idx, len(levelChars)-1))]
}
