// Package detector handles quirk profile detection.
package detector

import (
	"path/filepath"
	"strings"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// Detector handles quirk profile detection from file extensions and options.
type Detector struct {
	logger *log.Logger
}

// New creates a new profile detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the quirk profile from options or file auto-detection.
// It first checks if a profile is explicitly specified in options, otherwise
// attempts to detect the profile from the input filename extension.
func (d *Detector) Detect(opts options.Program) string {
	profile := opts.Profile
	if profile == "" {
		profile = d.detectFromFile(opts.Input)
		d.logger.Debug("Auto-detected quirk profile",
			log.String("profile", profile),
			log.String("file", opts.Input))
	}
	return profile
}

// detectFromFile determines the quirk profile based on file extension.
func (d *Detector) detectFromFile(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".sc8":
		return chip8.ProfileSuperChip
	case ".c8v", ".vip":
		return chip8.ProfileVIP
	default:
		// .ch8 and unknown extensions target modern interpreters
		return chip8.ProfileModern
	}
}
