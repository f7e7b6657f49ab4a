// Package headless runs a machine without real time pacing or user input.
package headless

import (
	"context"
	"fmt"
	"io"

	"github.com/retroenv/retrochip8/internal/runner"
	"github.com/retroenv/retrochip8/internal/screenshot"
	"github.com/retroenv/retrogolib/log"
)

// Config contains the headless frontend options.
type Config struct {
	Frames         int    // number of frames to run
	Screenshot     string // optional PNG file name for the final framebuffer
	ScreenshotSize int    // scale factor of the screenshot
	PrintScreen    bool   // print the final framebuffer as text
}

// Frontend executes a fixed number of frames back to back.
type Frontend struct {
	logger *log.Logger
	runner *runner.Runner
	out    io.Writer
	cfg    Config
}

// New returns a new headless frontend that writes the text output to out.
func New(logger *log.Logger, r *runner.Runner, out io.Writer, cfg Config) *Frontend {
	return &Frontend{
		logger: logger,
		runner: r,
		out:    out,
		cfg:    cfg,
	}
}

// Run executes the configured number of frames. It stops early when the
// context is cancelled or the machine fails.
func (f *Frontend) Run(ctx context.Context) error {
	for frame := range f.cfg.Frames {
		if err := ctx.Err(); err != nil {
			f.logger.Info("Stopping headless run", log.Int("frame", frame))
			break
		}
		if err := f.runner.Frame(); err != nil {
			return err
		}
	}

	snapshot := f.runner.Snapshot()
	f.logger.Debug("Headless run finished",
		log.Int("frames", int(f.runner.Frames())),
		log.Hex("pc", snapshot.PC),
		log.Int("cycles", int(snapshot.Cycles)))

	if f.cfg.PrintScreen {
		if _, err := fmt.Fprint(f.out, snapshot.Framebuffer.String()); err != nil {
			return fmt.Errorf("writing framebuffer: %w", err)
		}
	}

	if f.cfg.Screenshot != "" {
		if err := screenshot.WriteFile(f.cfg.Screenshot, &snapshot.Framebuffer, f.cfg.ScreenshotSize); err != nil {
			return fmt.Errorf("writing screenshot: %w", err)
		}
		f.logger.Info("Screenshot written", log.String("file", f.cfg.Screenshot))
	}
	return nil
}
