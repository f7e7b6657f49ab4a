// Package app provides the startup information output of the emulator.
package app

import (
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

// PrintBanner prints the program name and version.
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}
	logger.Info("retrochip8", log.String("version", buildinfo.Version(version, commit, date)))
}

// PrintInfo prints the information about the input file and the machine setup.
func PrintInfo(logger *log.Logger, opts options.Program, profile string, romSize int) {
	if opts.Quiet {
		return
	}

	logger.Info("Processing CHIP-8 ROM",
		log.String("file", opts.Input),
		log.Int("size", romSize),
		log.String("profile", profile),
		log.String("frontend", opts.Frontend),
	)
	if opts.Trace && !opts.Debug {
		logger.Warn("Instruction tracing is only visible with debug logging enabled")
	}
}
