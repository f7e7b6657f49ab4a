// Package disasm implements a CHIP-8 ROM disassembler.
package disasm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

const (
	labelNaming = "_label_%04x"
	dataNaming  = "_data_%04x"
)

var errEmptyROM = errors.New("empty rom")

// Options defines the output options of the disassembler.
type Options struct {
	HexComments    bool // output opcode bytes as hex values in comments
	OffsetComments bool // output the memory address of every line in comments
	ZeroBytes      bool // output trailing zero words of the ROM
}

// NewOptions returns the default disassembler options.
func NewOptions() Options {
	return Options{
		HexComments:    true,
		OffsetComments: true,
	}
}

// offset is a word or trailing byte of the ROM.
type offset struct {
	address uint16
	data    []byte

	code        string // assembler code, empty for data
	instruction chip8.Instruction
}

// Disasm implements a CHIP-8 disassembler using a linear sweep over the ROM.
type Disasm struct {
	logger  *log.Logger
	options Options
	rom     []byte

	offsets []offset

	branchDestinations set.Set[uint16] // set of all addresses that are jumped to or called
	dataReferences     set.Set[uint16] // set of all addresses loaded into the index register
}

// New creates a new disassembler for the passed ROM.
func New(logger *log.Logger, rom []byte, options Options) (*Disasm, error) {
	if len(rom) == 0 {
		return nil, errEmptyROM
	}
	if len(rom) > chip8.MaxROMSize {
		return nil, fmt.Errorf("%w: %d bytes exceed the maximum of %d bytes",
			chip8.ErrROMTooLarge, len(rom), chip8.MaxROMSize)
	}

	return &Disasm{
		logger:             logger,
		options:            options,
		rom:                rom,
		branchDestinations: set.New[uint16](),
		dataReferences:     set.New[uint16](),
	}, nil
}

// Process disassembles the ROM and writes the assembler source to the writer.
func (dis *Disasm) Process(ctx context.Context, w io.Writer) error {
	if err := dis.parse(ctx); err != nil {
		return err
	}
	dis.processReferences()
	return dis.write(w)
}

// parse decodes every word of the ROM. Undecodable words and a trailing odd
// byte are kept as data.
func (dis *Disasm) parse(ctx context.Context) error {
	dis.offsets = dis.offsets[:0]

	for i := 0; i < len(dis.rom); i += 2 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("disassembling cancelled: %w", err)
		}

		address := uint16(chip8.ProgramStart + i)
		if i+1 >= len(dis.rom) {
			dis.offsets = append(dis.offsets, offset{address: address, data: dis.rom[i : i+1]})
			break
		}

		off := offset{address: address, data: dis.rom[i : i+2]}
		opcode := uint16(dis.rom[i])<<8 | uint16(dis.rom[i+1])
		ins, err := chip8.Decode(opcode)
		if err != nil {
			dis.logger.Debug("Treating undecodable opcode as data",
				log.Hex("address", address), log.Hex("opcode", opcode))
			dis.offsets = append(dis.offsets, off)
			continue
		}

		off.instruction = ins
		off.code = ins.String()
		dis.offsets = append(dis.offsets, off)

		switch {
		case ins.IsJump(), ins.IsCall():
			dis.branchDestinations.Add(ins.Addr)
		case ins.IsDataReference():
			dis.dataReferences.Add(ins.Addr)
		}
	}
	return nil
}

// processReferences replaces the address parameters of instructions that
// reference an offset inside the ROM with the label name of the offset.
func (dis *Disasm) processReferences() {
	for i := range dis.offsets {
		off := &dis.offsets[i]
		if off.code == "" {
			continue
		}

		ins := off.instruction
		if !ins.IsJump() && !ins.IsCall() && !ins.IsDataReference() {
			continue
		}
		name := dis.label(ins.Addr)
		if name == "" {
			continue
		}

		switch ins.Op {
		case chip8.OpJpV0:
			off.code = fmt.Sprintf("%s V0, %s", ins.Name(), name)
		case chip8.OpLdI:
			off.code = fmt.Sprintf("%s I, %s", ins.Name(), name)
		default:
			off.code = fmt.Sprintf("%s %s", ins.Name(), name)
		}
	}
}

// label returns the label name for the address or an empty string if the
// address is not referenced or can not carry a label. Labels can only be
// placed at the start of a disassembled word.
func (dis *Disasm) label(address uint16) string {
	if !dis.isWordStart(address) {
		return ""
	}
	switch {
	case dis.branchDestinations.Contains(address):
		return fmt.Sprintf(labelNaming, address)
	case dis.dataReferences.Contains(address):
		return fmt.Sprintf(dataNaming, address)
	default:
		return ""
	}
}

func (dis *Disasm) isWordStart(address uint16) bool {
	if address < chip8.ProgramStart {
		return false
	}
	index := int(address) - chip8.ProgramStart
	return index < len(dis.rom) && index%2 == 0
}

// References returns the sorted addresses of all jump, call and data targets
// that received a label.
func (dis *Disasm) References() []uint16 {
	var addresses []uint16
	for address := range dis.branchDestinations {
		if dis.isWordStart(address) {
			addresses = append(addresses, address)
		}
	}
	for address := range dis.dataReferences {
		if dis.isWordStart(address) && !dis.branchDestinations.Contains(address) {
			addresses = append(addresses, address)
		}
	}
	slices.Sort(addresses)
	return addresses
}
