// Package terminal provides a text mode frontend based on gocui.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/jroimartin/gocui"
	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/keymap"
	"github.com/retroenv/retrochip8/internal/runner"
	"github.com/retroenv/retrogolib/log"
)

// DefaultHoldDuration is the time after which a key press is released.
// Terminals only report key presses, so releases are simulated.
const DefaultHoldDuration = 150 * time.Millisecond

const (
	screenView = "screen"
	statusView = "status"

	pixelOn    = "██"
	pixelOff   = "  "
	pixelWidth = 2 // characters per pixel
)

// Frontend renders the machine into a terminal.
type Frontend struct {
	logger       *log.Logger
	runner       *runner.Runner
	holdDuration time.Duration

	mu       sync.Mutex
	releases map[uint8]*time.Timer

	stopped atomic.Bool // main loop returned
}

// updater queues a function on the gui main loop.
type updater interface {
	Update(f func(*gocui.Gui) error)
}

// New returns a new terminal frontend.
func New(logger *log.Logger, r *runner.Runner, holdDuration time.Duration) *Frontend {
	if holdDuration <= 0 {
		holdDuration = DefaultHoldDuration
	}
	return &Frontend{
		logger:       logger,
		runner:       r,
		holdDuration: holdDuration,
		releases:     map[uint8]*time.Timer{},
	}
}

// Run executes the machine and renders it until the user quits, the context
// is cancelled or the machine fails.
func (f *Frontend) Run(ctx context.Context) error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer g.Close()

	g.SetManagerFunc(f.layout)
	if err := f.bindKeys(g); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		err := f.runner.Run(ctx, func(frame runner.Frame) {
			if ctx.Err() != nil {
				return
			}
			f.schedule(g, func(g *gocui.Gui) error {
				return f.render(g, &frame)
			})
		})
		runErr <- err
		f.schedule(g, func(*gocui.Gui) error {
			return gocui.ErrQuit
		})
	}()

	err = g.MainLoop()
	f.stopped.Store(true)
	cancel()
	machineErr := <-runErr
	f.stopReleases()
	f.logger.Debug("Terminal frontend stopped", log.Int("frames", int(f.runner.Frames())))

	if err != nil && !errors.Is(err, gocui.ErrQuit) {
		return fmt.Errorf("running terminal main loop: %w", err)
	}
	return machineErr
}

func (f *Frontend) layout(g *gocui.Gui) error {
	width := display.Width*pixelWidth + 2
	height := display.Height + 2

	v, err := g.SetView(screenView, 0, 0, width-1, height-1)
	if err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return fmt.Errorf("creating screen view: %w", err)
		}
		v.Title = "CHIP-8"
	}

	v, err = g.SetView(statusView, 0, height, width-1, height+2)
	if err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return fmt.Errorf("creating status view: %w", err)
		}
		v.Frame = false
	}
	return nil
}

func (f *Frontend) bindKeys(g *gocui.Gui) error {
	quit := func(*gocui.Gui, *gocui.View) error {
		return gocui.ErrQuit
	}
	for _, key := range []gocui.Key{gocui.KeyCtrlC, gocui.KeyEsc} {
		if err := g.SetKeybinding("", key, gocui.ModNone, quit); err != nil {
			return fmt.Errorf("setting quit key binding: %w", err)
		}
	}

	for key := range uint8(16) {
		r, _ := keymap.Rune(key)
		handler := func(*gocui.Gui, *gocui.View) error {
			f.press(key)
			return nil
		}

		runes := []rune{r}
		if upper := unicode.ToUpper(r); upper != r {
			runes = append(runes, upper)
		}
		for _, ch := range runes {
			if err := g.SetKeybinding("", ch, gocui.ModNone, handler); err != nil {
				return fmt.Errorf("setting key binding for '%c': %w", ch, err)
			}
		}
	}
	return nil
}

// schedule queues fn on the main loop unless the loop has already returned,
// in which case the update would never be consumed.
func (f *Frontend) schedule(g updater, fn func(*gocui.Gui) error) {
	if f.stopped.Load() {
		return
	}
	g.Update(fn)
}

// press queues a key press and schedules its release. Repeated presses
// while the key is held extend the hold time.
func (f *Frontend) press(key uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if timer, ok := f.releases[key]; ok && timer.Stop() {
		timer.Reset(f.holdDuration)
		return
	}

	f.runner.QueueKey(key, true)

	var timer *time.Timer
	timer = time.AfterFunc(f.holdDuration, func() {
		f.mu.Lock()
		if f.releases[key] != timer {
			f.mu.Unlock() // replaced by a later press
			return
		}
		delete(f.releases, key)
		f.mu.Unlock()
		f.runner.QueueKey(key, false)
	})
	f.releases[key] = timer
}

func (f *Frontend) stopReleases() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key, timer := range f.releases {
		timer.Stop()
		delete(f.releases, key)
	}
}

func (f *Frontend) render(g *gocui.Gui, frame *runner.Frame) error {
	v, err := g.View(screenView)
	if err != nil {
		return fmt.Errorf("getting screen view: %w", err)
	}
	v.Clear()
	if _, err := fmt.Fprint(v, renderScreen(&frame.Framebuffer)); err != nil {
		return fmt.Errorf("writing screen view: %w", err)
	}

	v, err = g.View(statusView)
	if err != nil {
		return fmt.Errorf("getting status view: %w", err)
	}
	v.Clear()
	if _, err := fmt.Fprint(v, renderStatus(frame)); err != nil {
		return fmt.Errorf("writing status view: %w", err)
	}
	return nil
}

// renderScreen returns the framebuffer as text using two characters per pixel.
func renderScreen(fb *display.Framebuffer) string {
	var sb strings.Builder
	for y := range display.Height {
		for x := range display.Width {
			if fb.Pixel(x, y) {
				sb.WriteString(pixelOn)
			} else {
				sb.WriteString(pixelOff)
			}
		}
		if y < display.Height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func renderStatus(frame *runner.Frame) string {
	var state string
	switch {
	case frame.Waiting:
		state = "waiting for key"
	case frame.Sound:
		state = "beep"
	}
	return fmt.Sprintf("PC $%03X  I $%03X  DT %3d  ST %3d  cycles %d  %s",
		frame.PC, frame.Index, frame.DelayTimer, frame.SoundTimer, frame.Cycles, state)
}
