// Package desktop provides a window frontend based on ebiten.
package desktop

import (
	"context"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/keymap"
	"github.com/retroenv/retrochip8/internal/runner"
	"github.com/retroenv/retrogolib/log"
)

// DefaultScale is the default window size factor.
const DefaultScale = 10

var (
	colorOff = color.RGBA{R: 0x10, G: 0x18, B: 0x10, A: 0xFF}
	colorOn  = color.RGBA{R: 0x9B, G: 0xF0, B: 0x9B, A: 0xFF}
)

// keys maps the keypad layout runes to ebiten keys.
var keys = map[rune]ebiten.Key{
	'1': ebiten.KeyDigit1, '2': ebiten.KeyDigit2, '3': ebiten.KeyDigit3, '4': ebiten.KeyDigit4,
	'q': ebiten.KeyQ, 'w': ebiten.KeyW, 'e': ebiten.KeyE, 'r': ebiten.KeyR,
	'a': ebiten.KeyA, 's': ebiten.KeyS, 'd': ebiten.KeyD, 'f': ebiten.KeyF,
	'z': ebiten.KeyZ, 'x': ebiten.KeyX, 'c': ebiten.KeyC, 'v': ebiten.KeyV,
}

// Frontend renders the machine into a window. It implements ebiten.Game.
type Frontend struct {
	ctx    context.Context
	logger *log.Logger
	runner *runner.Runner
	scale  int

	keypad  [16]ebiten.Key
	pressed [16]bool

	screen *ebiten.Image
	pixels []byte
	err    error
}

// New returns a new desktop frontend.
func New(logger *log.Logger, r *runner.Runner, scale int) (*Frontend, error) {
	if scale <= 0 {
		scale = DefaultScale
	}

	f := &Frontend{
		logger: logger,
		runner: r,
		scale:  scale,
		pixels: make([]byte, display.Width*display.Height*4),
	}
	for key := range uint8(16) {
		ch, _ := keymap.Rune(key)
		k, ok := keys[ch]
		if !ok {
			return nil, fmt.Errorf("no window key for keypad key %X", key)
		}
		f.keypad[key] = k
	}
	return f, nil
}

// Run opens the window and executes the machine until the window is closed,
// the context is cancelled or the machine fails. The frame rate is the
// timer frequency of the runner.
func (f *Frontend) Run(ctx context.Context, timerHz int) error {
	f.ctx = ctx

	ebiten.SetTPS(timerHz)
	ebiten.SetWindowSize(display.Width*f.scale, display.Height*f.scale)
	ebiten.SetWindowTitle("retrochip8")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(f); err != nil {
		return fmt.Errorf("running window: %w", err)
	}
	f.logger.Debug("Desktop frontend stopped", log.Int("frames", int(f.runner.Frames())))
	return f.err
}

// Update polls the keyboard and executes one frame.
func (f *Frontend) Update() error {
	if f.ctx != nil && f.ctx.Err() != nil {
		return ebiten.Termination
	}
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	for key, k := range f.keypad {
		pressed := ebiten.IsKeyPressed(k)
		if pressed != f.pressed[key] {
			f.pressed[key] = pressed
			f.runner.QueueKey(uint8(key), pressed)
		}
	}

	if err := f.runner.Frame(); err != nil {
		f.err = err
		return ebiten.Termination
	}
	return nil
}

// Draw renders the last published framebuffer.
func (f *Frontend) Draw(screen *ebiten.Image) {
	if f.screen == nil {
		f.screen = ebiten.NewImage(display.Width, display.Height)
	}

	frame := f.runner.Snapshot()
	frame.Framebuffer.RGBA(f.pixels, colorOff, colorOn)
	f.screen.WritePixels(f.pixels)
	screen.DrawImage(f.screen, nil)
}

// Layout returns the logical screen size, ebiten scales it to the window.
func (f *Frontend) Layout(_, _ int) (int, int) {
	return display.Width, display.Height
}
