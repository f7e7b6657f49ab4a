// Package runner drives a CHIP-8 machine in real time.
//
// The runner owns the machine: it executes the configured number of
// instructions per frame, ticks the timers once per frame and applies key
// events that other goroutines queued. Frontends read published frame
// snapshots instead of accessing the machine directly.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrogolib/log"
)

// Config contains the runner timing settings.
type Config struct {
	InstructionsPerSecond int
	TimerHz               int // frame rate, the timers tick once per frame
	KeyQueueSize          int
}

// DefaultConfig returns the default runner settings.
func DefaultConfig() Config {
	return Config{
		InstructionsPerSecond: 700,
		TimerHz:               60,
		KeyQueueSize:          64,
	}
}

// Frame is a snapshot of the observable machine state after a frame.
type Frame struct {
	Framebuffer display.Framebuffer
	Sound       bool
	Waiting     bool

	PC         uint16
	Index      uint16
	DelayTimer byte
	SoundTimer byte
	Cycles     uint64
}

type keyEvent struct {
	key     uint8
	pressed bool
}

// Runner executes a machine frame by frame.
type Runner struct {
	logger  *log.Logger
	machine *chip8.Machine
	cfg     Config

	stepsPerFrame int
	keys          chan keyEvent

	mu       sync.RWMutex
	snapshot Frame
	frames   uint64
}

// New returns a new runner for the machine.
func New(logger *log.Logger, machine *chip8.Machine, cfg Config) (*Runner, error) {
	if cfg.InstructionsPerSecond <= 0 {
		return nil, fmt.Errorf("invalid instructions per second %d", cfg.InstructionsPerSecond)
	}
	if cfg.TimerHz <= 0 {
		return nil, fmt.Errorf("invalid timer frequency %d", cfg.TimerHz)
	}
	if cfg.KeyQueueSize <= 0 {
		cfg.KeyQueueSize = DefaultConfig().KeyQueueSize
	}

	r := &Runner{
		logger:        logger,
		machine:       machine,
		cfg:           cfg,
		stepsPerFrame: max(1, cfg.InstructionsPerSecond/cfg.TimerHz),
		keys:          make(chan keyEvent, cfg.KeyQueueSize),
	}
	r.publish(false)
	return r, nil
}

// StepsPerFrame returns the number of instructions executed per frame.
func (r *Runner) StepsPerFrame() int {
	return r.stepsPerFrame
}

// Frame applies the queued key events, executes one frame worth of
// instructions and ticks the timers. Execution stops early for the frame when
// the machine starts waiting for a key. It must only be called from the
// goroutine that owns the runner.
func (r *Runner) Frame() error {
	r.applyKeys()

	for range r.stepsPerFrame {
		if err := r.machine.Step(); err != nil {
			r.publish(false)
			return fmt.Errorf("running frame %d: %w", r.Frames(), err)
		}
		if r.machine.Waiting() {
			break
		}
	}

	r.machine.TickTimers()
	r.publish(true)
	return nil
}

// Run executes frames at the configured frame rate until the context is
// done or the machine fails. The optional present function is called with
// the snapshot of every frame.
func (r *Runner) Run(ctx context.Context, present func(Frame)) error {
	ticker := time.NewTicker(time.Second / time.Duration(r.cfg.TimerHz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := ctx.Err(); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil

		case <-ticker.C:
			if ctx.Err() != nil {
				continue // handled by the done case
			}
			if err := r.Frame(); err != nil {
				return err
			}
			if present != nil {
				present(r.Snapshot())
			}
		}
	}
}

// QueueKey queues a key state change to be applied at the start of the next
// frame. It is safe for concurrent use. Events are dropped if the queue is full.
func (r *Runner) QueueKey(key uint8, pressed bool) {
	select {
	case r.keys <- keyEvent{key: key, pressed: pressed}:
	default:
		r.logger.Warn("Key event queue full, dropping event",
			log.Hex("key", key),
			log.String("state", keyState(pressed)))
	}
}

// Snapshot returns the state published after the last frame. It is safe for
// concurrent use.
func (r *Runner) Snapshot() Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Frames returns the number of completed frames. It is safe for concurrent use.
func (r *Runner) Frames() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frames
}

func (r *Runner) applyKeys() {
	for {
		select {
		case ev := <-r.keys:
			if err := r.machine.SetKeyState(ev.key, ev.pressed); err != nil {
				r.logger.Warn("Ignoring key event", log.Err(err))
			}
		default:
			return
		}
	}
}

// publish stores the current machine state as snapshot.
func (r *Runner) publish(frameDone bool) {
	m := r.machine
	frame := Frame{
		Framebuffer: m.Framebuffer(),
		Sound:       m.SoundTimer() > 0,
		Waiting:     m.Waiting(),
		PC:          m.PC(),
		Index:       m.Index(),
		DelayTimer:  m.DelayTimer(),
		SoundTimer:  m.SoundTimer(),
		Cycles:      m.Cycles(),
	}

	r.mu.Lock()
	r.snapshot = frame
	if frameDone {
		r.frames++
	}
	r.mu.Unlock()
}

func keyState(pressed bool) string {
	if pressed {
		return "pressed"
	}
	return "released"
}
