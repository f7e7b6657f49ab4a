// Package main implements a CHIP-8 ROM disassembler
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrochip8/internal/config"
	"github.com/retroenv/retrochip8/internal/disasm"
	"github.com/retroenv/retrochip8/internal/loader"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type optionFlags struct {
	input  string
	output string

	debug bool
	quiet bool

	noHexComments bool
	noOffsets     bool
}

func main() {
	options, disasmOptions := readArguments()

	if !options.quiet {
		printBanner()
	}

	if err := disasmFile(app.Context(), options, disasmOptions); err != nil {
		fmt.Println(fmt.Errorf("disassembling failed: %w", err))
		os.Exit(1)
	}
}

func readArguments() (optionFlags, disasm.Options) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	options := optionFlags{}
	disasmOptions := disasm.NewOptions()

	flags.BoolVar(&options.debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&options.noHexComments, "nohexcomments", false, "do not output opcode bytes as hex values in comments")
	flags.BoolVar(&options.noOffsets, "nooffsets", false, "do not output offsets in comments")
	flags.StringVar(&options.output, "o", "", "name of the output .asm file, printed on console if no name given")
	flags.BoolVar(&options.quiet, "q", false, "perform operations quietly")
	flags.BoolVar(&disasmOptions.ZeroBytes, "z", false, "output the trailing zero bytes of the ROM")

	err := flags.Parse(os.Args[1:])
	args := flags.Args()

	if err != nil || len(args) == 0 {
		printBanner()
		fmt.Printf("usage: chip8disasm [options] <file to disassemble>\n\n")
		flags.PrintDefaults()
		os.Exit(1)
	}
	options.input = args[0]

	disasmOptions.HexComments = !options.noHexComments
	disasmOptions.OffsetComments = !options.noOffsets
	return options, disasmOptions
}

func printBanner() {
	fmt.Println("[-----------------------------------------]")
	fmt.Println("[ chip8disasm - CHIP-8 ROM disassembler   ]")
	fmt.Printf("[-----------------------------------------]\n\n")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}

func disasmFile(ctx context.Context, options optionFlags, disasmOptions disasm.Options) error {
	logger := config.CreateLogger(options.debug, options.quiet)

	rom, err := loader.New().Load(options.input)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	dis, err := disasm.New(logger, rom, disasmOptions)
	if err != nil {
		return fmt.Errorf("initializing disassembler: %w", err)
	}

	var outputFile io.WriteCloser
	if options.output == "" {
		outputFile = os.Stdout
	} else {
		outputFile, err = os.Create(options.output)
		if err != nil {
			return fmt.Errorf("creating file '%s': %w", options.output, err)
		}
	}
	if err = dis.Process(ctx, outputFile); err != nil {
		return fmt.Errorf("processing file: %w", err)
	}
	if err = outputFile.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}

	if !options.quiet {
		logger.Info("Disassembly finished", log.Int("labels", len(dis.References())))
	}
	return nil
}
