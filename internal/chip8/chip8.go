package chip8

import "errors"

// CHIP-8 memory layout constants.
//
// CHIP-8 memory map (4KB total):
//
//	0x000-0x04F: unused interpreter area
//	0x050-0x09F: built-in hexadecimal font (16 glyphs, 5 bytes each)
//	0x0A0-0x1FF: unused interpreter area
//	0x200-0xFFF: program space (3584 bytes)
//
// The display buffer and the call stack are kept outside of the addressable memory.
const (
	// MemorySize is the size of the addressable memory in bytes.
	MemorySize = 0x1000

	// MaxAddress is the highest valid address in CHIP-8 memory space.
	MaxAddress = MemorySize - 1

	// ProgramStart is the memory address where programs are loaded and execution begins.
	ProgramStart = 0x200

	// MaxROMSize is the largest program that fits into the program space.
	MaxROMSize = MemorySize - ProgramStart

	// FontBase is the memory address of the first font glyph.
	FontBase = 0x050

	// FontGlyphSize is the number of bytes per font glyph.
	FontGlyphSize = 5
)

// Machine dimensions.
const (
	RegisterCount = 16
	StackSize     = 16
	KeyCount      = 16

	// FlagRegister is the index of VF, which receives carry, borrow, shift and
	// collision flags.
	FlagRegister = 0xF

	opcodeSize = 2
)

// Font contains the 16 hexadecimal digit glyphs, 5 rows of 4 pixels each.
var Font = [KeyCount * FontGlyphSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Errors reported by the machine. All of them except ErrInvalidKey and
// ErrROMTooLarge are fatal for the running program.
var (
	ErrDecodeFailure    = errors.New("unknown opcode")
	ErrStackOverflow    = errors.New("stack overflow")
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrInvalidFontDigit = errors.New("invalid font digit")
	ErrAddressOverflow  = errors.New("address overflow")
	ErrInvalidKey       = errors.New("invalid key")
	ErrROMTooLarge      = errors.New("rom too large")
)
