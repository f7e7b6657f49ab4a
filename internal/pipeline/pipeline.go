// Package pipeline orchestrates the emulator workflow stages.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrochip8/internal/app"
	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/config"
	"github.com/retroenv/retrochip8/internal/detector"
	"github.com/retroenv/retrochip8/internal/disasm"
	"github.com/retroenv/retrochip8/internal/frontend/headless"
	"github.com/retroenv/retrochip8/internal/frontend/remote"
	"github.com/retroenv/retrochip8/internal/frontend/terminal"
	"github.com/retroenv/retrochip8/internal/loader"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/runner"
	"github.com/retroenv/retrogolib/log"
)

// Frontend runs a prepared machine runner until the user quits, the context
// is cancelled or the machine fails.
type Frontend func(ctx context.Context, logger *log.Logger, opts options.Program, r *runner.Runner) error

// Pipeline orchestrates the complete emulator workflow.
type Pipeline struct {
	logger    *log.Logger
	detector  *detector.Detector
	loader    *loader.Loader
	out       io.Writer
	frontends map[string]Frontend
}

// New creates a new pipeline that writes text output to out. The headless,
// terminal and remote frontends are registered by default.
func New(logger *log.Logger, out io.Writer) *Pipeline {
	p := &Pipeline{
		logger:    logger,
		detector:  detector.New(logger),
		loader:    loader.New(),
		out:       out,
		frontends: map[string]Frontend{},
	}
	p.Register(options.FrontendHeadless, p.runHeadless)
	p.Register(options.FrontendTerminal, runTerminal)
	p.Register(options.FrontendRemote, runRemote)
	return p
}

// Register sets the frontend implementation for a frontend name.
func (p *Pipeline) Register(name string, frontend Frontend) {
	p.frontends[name] = frontend
}

// Execute runs the complete pipeline: detect the quirk profile, load the ROM
// and run it in the selected frontend or disassemble it.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program) error {
	profile := p.detector.Detect(opts)

	rom, err := p.loader.Load(opts.Input)
	if err != nil {
		return fmt.Errorf("loading rom: %w", err)
	}

	app.PrintInfo(p.logger, opts, profile, len(rom))

	if opts.Frontend == options.FrontendDisasm {
		return p.runDisassembly(ctx, opts, rom)
	}
	return p.ExecuteWithROM(ctx, opts, profile, rom)
}

// ExecuteWithROM runs the pipeline with an already loaded ROM.
// This is useful for testing and programmatic usage where the ROM is already in memory.
func (p *Pipeline) ExecuteWithROM(ctx context.Context, opts options.Program, profile string, rom []byte) error {
	frontend, ok := p.frontends[opts.Frontend]
	if !ok {
		return fmt.Errorf("unsupported frontend '%s'", opts.Frontend)
	}

	machineCfg, err := config.MachineConfig(p.logger, opts, profile)
	if err != nil {
		return fmt.Errorf("creating machine configuration: %w", err)
	}
	m := chip8.New(machineCfg)
	if err := m.Load(rom); err != nil {
		return fmt.Errorf("loading rom into memory: %w", err)
	}

	r, err := runner.New(p.logger, m, config.RunnerConfig(opts))
	if err != nil {
		return fmt.Errorf("creating runner: %w", err)
	}

	if err := frontend(ctx, p.logger, opts, r); err != nil {
		return fmt.Errorf("running %s frontend: %w", opts.Frontend, err)
	}
	return nil
}

func (p *Pipeline) runHeadless(ctx context.Context, logger *log.Logger, opts options.Program, r *runner.Runner) error {
	f := headless.New(logger, r, p.out, headless.Config{
		Frames:         opts.Frames,
		Screenshot:     opts.Screenshot,
		ScreenshotSize: opts.Scale,
		PrintScreen:    !opts.Quiet,
	})
	return f.Run(ctx)
}

func runTerminal(ctx context.Context, logger *log.Logger, _ options.Program, r *runner.Runner) error {
	return terminal.New(logger, r, terminal.DefaultHoldDuration).Run(ctx)
}

func runRemote(ctx context.Context, logger *log.Logger, opts options.Program, r *runner.Runner) error {
	return remote.New(logger, r, remote.DefaultPath).Run(ctx, opts.Listen)
}

// runDisassembly writes the disassembly of the ROM to the output file or
// the pipeline output if no file name is set.
func (p *Pipeline) runDisassembly(ctx context.Context, opts options.Program, rom []byte) error {
	disasmOptions := disasm.NewOptions()
	disasmOptions.HexComments = !opts.NoHexComments
	disasmOptions.OffsetComments = !opts.NoOffsets
	disasmOptions.ZeroBytes = opts.ZeroBytes

	dis, err := disasm.New(p.logger, rom, disasmOptions)
	if err != nil {
		return fmt.Errorf("creating disassembler: %w", err)
	}

	if opts.Output == "" {
		if err := dis.Process(ctx, p.out); err != nil {
			return fmt.Errorf("disassembling: %w", err)
		}
		return nil
	}

	file, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("creating file '%s': %w", opts.Output, err)
	}
	if err := dis.Process(ctx, file); err != nil {
		_ = file.Close()
		return fmt.Errorf("disassembling: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}
	return nil
}
