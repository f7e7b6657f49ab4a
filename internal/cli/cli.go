// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/frontend/remote"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/runner"
)

const (
	defaultFrames = 600
	defaultScale  = 10
)

// ParseFlags parses command line flags and returns the program options
func ParseFlags() (options.Program, error) {
	return parseArgs(os.Args)
}

func parseArgs(osArgs []string) (options.Program, error) {
	flags := flag.NewFlagSet(osArgs[0], flag.ContinueOnError)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(osArgs[1:])
	args := flags.Args()
	if err != nil || len(args) == 0 {
		return opts, &UsageError{flags: flags}
	}
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opts.SeedSet = true
		}
	})

	if err := validateArgs(args); err != nil {
		return opts, err
	}

	opts.Input = args[0]
	if err := normalizeOptions(&opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	if e.msg != "" {
		fmt.Printf("%s\n\n", e.msg)
	}
	fmt.Printf("usage: retrochip8 [options] <ROM file to run>\n\n")
	if e.flags != nil {
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after ROM file, please pass the ROM file as last argument", arg),
			}
		}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	opts.Frontend = strings.ToLower(opts.Frontend)
	if !slices.Contains(options.Frontends, opts.Frontend) {
		return fmt.Errorf("unsupported frontend: %s. Valid options: %s",
			opts.Frontend, strings.Join(options.Frontends, ", "))
	}

	opts.Profile = strings.ToLower(opts.Profile)
	if opts.Profile != "" {
		if _, err := chip8.QuirksForProfile(opts.Profile); err != nil {
			return err
		}
	}

	opts.Addressing = strings.ToLower(opts.Addressing)
	if opts.Addressing != options.AddressingWrap && opts.Addressing != options.AddressingFault {
		return fmt.Errorf("unsupported addressing policy: %s. Valid options: %s, %s",
			opts.Addressing, options.AddressingWrap, options.AddressingFault)
	}

	if opts.InstructionsPerSecond <= 0 {
		return fmt.Errorf("instructions per second must be positive, got %d", opts.InstructionsPerSecond)
	}
	if opts.Frames < 0 {
		return fmt.Errorf("frame count must not be negative, got %d", opts.Frames)
	}
	if opts.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %d", opts.Scale)
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Frontend, "frontend", options.FrontendDesktop,
		"frontend to use ("+strings.Join(options.Frontends, "/")+")")
	flags.StringVar(&opts.Profile, "profile", "",
		"interpreter quirk profile ("+strings.Join(chip8.Profiles(), "/")+") - auto-detected from file extension if not given")
	flags.StringVar(&opts.Addressing, "addressing", options.AddressingWrap,
		"handling of addresses beyond memory (wrap/fault)")
	flags.IntVar(&opts.InstructionsPerSecond, "ips", runner.DefaultConfig().InstructionsPerSecond,
		"instructions executed per second")
	flags.IntVar(&opts.Frames, "frames", defaultFrames, "number of frames to run in headless mode")
	flags.IntVar(&opts.Scale, "scale", defaultScale, "window and screenshot size factor")
	flags.Uint64Var(&opts.Seed, "seed", 0, "seed of the random number generator, random if not set")
	flags.StringVar(&opts.Screenshot, "screenshot", "", "name of the PNG file to write the final screen to in headless mode")
	flags.StringVar(&opts.Listen, "listen", remote.DefaultListen, "listen address of the remote frontend")
	flags.StringVar(&opts.Output, "o", "", "name of the output .asm file of the disasm frontend, printed on console if no name given")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Trace, "trace", false, "log every executed instruction, requires -debug")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
	flags.BoolVar(&opts.NoHexComments, "nohexcomments", false, "do not output opcode bytes as hex values in comments")
	flags.BoolVar(&opts.NoOffsets, "nooffsets", false, "do not output offsets in comments")
	flags.BoolVar(&opts.ZeroBytes, "z", false, "output the trailing zero bytes of the ROM")
}
