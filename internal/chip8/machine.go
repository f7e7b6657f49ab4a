package chip8

import (
	"fmt"
	"math/rand/v2"

	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrogolib/log"
)

// AddressPolicy defines how addresses beyond MaxAddress that are produced by
// index register arithmetic, memory ranges and jumps are handled.
type AddressPolicy uint8

const (
	// AddressWrap wraps addresses modulo the memory size.
	AddressWrap AddressPolicy = iota
	// AddressFault reports ErrAddressOverflow.
	AddressFault
)

// String implements fmt.Stringer.
func (p AddressPolicy) String() string {
	switch p {
	case AddressWrap:
		return "wrap"
	case AddressFault:
		return "fault"
	default:
		return fmt.Sprintf("AddressPolicy(%d)", uint8(p))
	}
}

// Config contains the machine configuration.
type Config struct {
	Quirks     Quirks
	Addressing AddressPolicy

	// Seed initializes the random number generator used by RND. It is ignored
	// when Random is set.
	Seed   uint64
	Random rand.Source

	// Logger receives the instruction trace if Trace is enabled.
	Logger *log.Logger
	Trace  bool
}

// DefaultConfig returns the default machine configuration: modern quirks and
// wrapping address arithmetic.
func DefaultConfig() Config {
	return Config{
		Addressing: AddressWrap,
	}
}

// keyWait is the suspended state of a LD Vx, K instruction.
type keyWait struct {
	active   bool
	register uint8
	seen     [KeyCount]bool // keys observed pressed during the wait
}

// Machine contains the complete state of a CHIP-8 system. It is not safe for
// concurrent use, a single driver owns it.
type Machine struct {
	memory [MemorySize]byte
	v      [RegisterCount]byte
	i      uint16
	pc     uint16

	stack [StackSize]uint16
	sp    uint8

	delayTimer byte
	soundTimer byte

	keys   [KeyCount]bool
	screen display.Framebuffer
	wait   keyWait

	cfg    Config
	rng    *rand.Rand
	fault  error
	cycles uint64
}

// New returns a new machine with cleared state and the font loaded.
func New(cfg Config) *Machine {
	m := &Machine{
		cfg: cfg,
	}
	m.Reset()
	return m
}

// Reset clears memory, registers, stack, timers, display and any fault, and
// reloads the font. The key states are kept as they reflect the driver input.
func (m *Machine) Reset() {
	m.memory = [MemorySize]byte{}
	copy(m.memory[FontBase:], Font[:])

	m.v = [RegisterCount]byte{}
	m.i = 0
	m.pc = ProgramStart
	m.stack = [StackSize]uint16{}
	m.sp = 0
	m.delayTimer = 0
	m.soundTimer = 0
	m.screen.Clear()
	m.wait = keyWait{}
	m.fault = nil
	m.cycles = 0

	if m.cfg.Random != nil {
		m.rng = rand.New(m.cfg.Random)
	} else {
		m.rng = rand.New(rand.NewPCG(m.cfg.Seed, m.cfg.Seed))
	}
}

// Load resets the machine and copies the program into memory at ProgramStart.
func (m *Machine) Load(rom []byte) error {
	if len(rom) > MaxROMSize {
		return fmt.Errorf("%w: %d bytes, maximum is %d", ErrROMTooLarge, len(rom), MaxROMSize)
	}

	m.Reset()
	copy(m.memory[ProgramStart:], rom)
	return nil
}

// MemoryAt returns the byte at the given address.
func (m *Machine) MemoryAt(address uint16) (byte, error) {
	if address > MaxAddress {
		return 0, fmt.Errorf("reading memory at address $%04X: %w", address, ErrAddressOverflow)
	}
	return m.memory[address], nil
}

// SetMemory writes a byte to the given address.
func (m *Machine) SetMemory(address uint16, value byte) error {
	if address > MaxAddress {
		return fmt.Errorf("writing memory at address $%04X: %w", address, ErrAddressOverflow)
	}
	m.memory[address] = value
	return nil
}

// Register returns the value of register Vx. The index must be in the range 0-15.
func (m *Machine) Register(x uint8) byte {
	return m.v[x]
}

// SetRegister sets the value of register Vx. The index must be in the range 0-15.
func (m *Machine) SetRegister(x uint8, value byte) {
	m.v[x] = value
}

// Index returns the index register I.
func (m *Machine) Index() uint16 {
	return m.i
}

// SetIndex sets the index register I.
func (m *Machine) SetIndex(address uint16) error {
	if address > MaxAddress {
		return fmt.Errorf("setting index register to $%04X: %w", address, ErrAddressOverflow)
	}
	m.i = address
	return nil
}

// PC returns the address of the next opcode to execute.
func (m *Machine) PC() uint16 {
	return m.pc
}

// SetPC sets the address of the next opcode to execute.
func (m *Machine) SetPC(address uint16) error {
	if address > MaxAddress {
		return fmt.Errorf("setting program counter to $%04X: %w", address, ErrAddressOverflow)
	}
	m.pc = address
	return nil
}

// StackPointer returns the number of return addresses on the stack.
func (m *Machine) StackPointer() int {
	return int(m.sp)
}

// Quirks returns the quirk settings of the machine.
func (m *Machine) Quirks() Quirks {
	return m.cfg.Quirks
}

// Cycles returns the number of instructions executed since the last reset.
func (m *Machine) Cycles() uint64 {
	return m.cycles
}

// Fault returns the error that stopped the machine, or nil.
func (m *Machine) Fault() error {
	return m.fault
}

// Framebuffer returns a copy of the current display content.
func (m *Machine) Framebuffer() display.Framebuffer {
	return m.screen
}

// FontAddress returns the memory address of the glyph for a hexadecimal digit.
func (m *Machine) FontAddress(digit byte) (uint16, error) {
	if digit > 0xF {
		return 0, fmt.Errorf("%w $%02X", ErrInvalidFontDigit, digit)
	}
	return FontBase + FontGlyphSize*uint16(digit), nil
}

// push stores a return address on the stack.
func (m *Machine) push(address uint16) error {
	if int(m.sp) >= StackSize {
		return fmt.Errorf("%w: %d entries in use", ErrStackOverflow, m.sp)
	}
	m.stack[m.sp] = address
	m.sp++
	return nil
}

// pop removes the most recent return address from the stack.
func (m *Machine) pop() (uint16, error) {
	if m.sp == 0 {
		return 0, ErrStackUnderflow
	}
	m.sp--
	return m.stack[m.sp], nil
}

// offset returns base+delta as a memory address, applying the address policy.
// All address producing operations go through this function.
func (m *Machine) offset(base uint16, delta int) (uint16, error) {
	address := int(base) + delta
	if address <= MaxAddress {
		return uint16(address), nil
	}
	if m.cfg.Addressing == AddressFault {
		return 0, fmt.Errorf("%w: $%04X", ErrAddressOverflow, address)
	}
	return uint16(address & MaxAddress), nil
}
