// Package config handles application configuration and setup
package config

import (
	"fmt"
	"math/rand/v2"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/runner"
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// MachineConfig returns the machine configuration for the options and the
// quirk profile to use. A random seed is used unless one was set explicitly.
func MachineConfig(logger *log.Logger, opts options.Program, profile string) (chip8.Config, error) {
	quirks, err := chip8.QuirksForProfile(profile)
	if err != nil {
		return chip8.Config{}, err
	}

	cfg := chip8.DefaultConfig()
	cfg.Quirks = quirks
	cfg.Logger = logger
	cfg.Trace = opts.Trace

	switch opts.Addressing {
	case "", options.AddressingWrap:
		cfg.Addressing = chip8.AddressWrap
	case options.AddressingFault:
		cfg.Addressing = chip8.AddressFault
	default:
		return chip8.Config{}, fmt.Errorf("unsupported addressing policy '%s'", opts.Addressing)
	}

	cfg.Seed = opts.Seed
	if !opts.SeedSet {
		cfg.Seed = rand.Uint64()
	}
	return cfg, nil
}

// RunnerConfig returns the runner configuration for the options.
func RunnerConfig(opts options.Program) runner.Config {
	cfg := runner.DefaultConfig()
	if opts.InstructionsPerSecond > 0 {
		cfg.InstructionsPerSecond = opts.InstructionsPerSecond
	}
	return cfg
}
