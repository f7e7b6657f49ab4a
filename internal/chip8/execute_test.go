package chip8

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

var vipQuirks = Quirks{ResetVF: true, ShiftUsesVY: true, IncrementIndex: true, WaitForRelease: true}

func TestStepLoadAndAdd(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0x6005, 0x700A)
	stepN(t, m, 2)

	assert.Equal(t, byte(0x0F), m.Register(0))
	assert.Equal(t, uint16(ProgramStart+4), m.PC())
	assert.Equal(t, uint64(2), m.Cycles())
}

func TestStepAddByteWrapsWithoutFlag(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0x60FF, 0x7002)
	m.SetRegister(FlagRegister, 0x55)
	stepN(t, m, 2)

	assert.Equal(t, byte(0x01), m.Register(0))
	assert.Equal(t, byte(0x55), m.Register(FlagRegister))
}

func TestStepArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		quirks Quirks
		opcode uint16
		vx, vy byte
		result byte
		flag   byte
	}{
		{"ld", Quirks{}, 0x8120, 0x01, 0x99, 0x99, 0x77},
		{"or", Quirks{}, 0x8121, 0x0F, 0xF0, 0xFF, 0x77},
		{"or reset vf", vipQuirks, 0x8121, 0x0F, 0xF0, 0xFF, 0x00},
		{"and", Quirks{}, 0x8122, 0x3C, 0x0F, 0x0C, 0x77},
		{"and reset vf", vipQuirks, 0x8122, 0x3C, 0x0F, 0x0C, 0x00},
		{"xor", Quirks{}, 0x8123, 0xFF, 0x0F, 0xF0, 0x77},
		{"xor reset vf", vipQuirks, 0x8123, 0xFF, 0x0F, 0xF0, 0x00},
		{"add carry", Quirks{}, 0x8124, 0xFF, 0x02, 0x01, 0x01},
		{"add no carry", Quirks{}, 0x8124, 0x10, 0x20, 0x30, 0x00},
		{"add exact 256", Quirks{}, 0x8124, 0x80, 0x80, 0x00, 0x01},
		{"sub borrow", Quirks{}, 0x8125, 0x03, 0x05, 0xFE, 0x00},
		{"sub no borrow", Quirks{}, 0x8125, 0x05, 0x03, 0x02, 0x01},
		{"sub equal", Quirks{}, 0x8125, 0x05, 0x05, 0x00, 0x01},
		{"subn no borrow", Quirks{}, 0x8127, 0x03, 0x05, 0x02, 0x01},
		{"subn borrow", Quirks{}, 0x8127, 0x05, 0x03, 0xFE, 0x00},
		{"shr vx", Quirks{}, 0x8126, 0x05, 0xF0, 0x02, 0x01},
		{"shr vy", vipQuirks, 0x8126, 0x05, 0xF0, 0x78, 0x00},
		{"shl vx", Quirks{}, 0x812E, 0x81, 0x01, 0x02, 0x01},
		{"shl vy", vipQuirks, 0x812E, 0x81, 0x01, 0x02, 0x00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.quirks, tt.opcode)
			m.SetRegister(1, tt.vx)
			m.SetRegister(2, tt.vy)
			m.SetRegister(FlagRegister, 0x77)
			stepN(t, m, 1)

			assert.Equal(t, tt.result, m.Register(1))
			assert.Equal(t, tt.flag, m.Register(FlagRegister))
			assert.Equal(t, tt.vy, m.Register(2))
			assert.Equal(t, uint16(ProgramStart+2), m.PC())
		})
	}
}

func TestStepFlagWinsOverResult(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
		vf, vy byte
		flag   byte
	}{
		{"add", 0x8F14, 0x01, 0x01, 0x00},
		{"sub", 0x8F15, 0x05, 0x01, 0x01},
		{"subn", 0x8F17, 0x01, 0x05, 0x01},
		{"shr", 0x8F16, 0x02, 0x00, 0x00},
		{"shl", 0x8F1E, 0x80, 0x00, 0x01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, Quirks{}, tt.opcode)
			m.SetRegister(FlagRegister, tt.vf)
			m.SetRegister(1, tt.vy)
			stepN(t, m, 1)

			assert.Equal(t, tt.flag, m.Register(FlagRegister))
		})
	}
}

func TestStepSkips(t *testing.T) {
	tests := []struct {
		name    string
		opcode  uint16
		v1, v2  byte
		key     int
		skipped bool
	}{
		{"se byte equal", 0x3142, 0x42, 0, -1, true},
		{"se byte different", 0x3142, 0x41, 0, -1, false},
		{"sne byte equal", 0x4142, 0x42, 0, -1, false},
		{"sne byte different", 0x4142, 0x41, 0, -1, true},
		{"se reg equal", 0x5120, 0x07, 0x07, -1, true},
		{"se reg different", 0x5120, 0x07, 0x08, -1, false},
		{"sne reg equal", 0x9120, 0x07, 0x07, -1, false},
		{"sne reg different", 0x9120, 0x07, 0x08, -1, true},
		{"skp pressed", 0xE19E, 0x0A, 0, 0xA, true},
		{"skp released", 0xE19E, 0x0A, 0, -1, false},
		{"sknp pressed", 0xE1A1, 0x0A, 0, 0xA, false},
		{"sknp released", 0xE1A1, 0x0A, 0, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, Quirks{}, tt.opcode)
			m.SetRegister(1, tt.v1)
			m.SetRegister(2, tt.v2)
			if tt.key >= 0 {
				assert.NoError(t, m.SetKeyState(uint8(tt.key), true))
			}
			stepN(t, m, 1)

			expected := uint16(ProgramStart + 2)
			if tt.skipped {
				expected += 2
			}
			assert.Equal(t, expected, m.PC())
		})
	}
}

func TestStepSkipInvalidKey(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
	}{
		{"skp", 0xE19E},
		{"sknp", 0xE1A1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, Quirks{}, tt.opcode)
			m.SetRegister(1, 0x3A)
			assert.NoError(t, m.SetKeyState(0xA, true))

			err := m.Step()
			assert.ErrorIs(t, err, ErrInvalidKey)
			assert.Equal(t, uint16(ProgramStart), m.PC())
			assert.Equal(t, uint64(0), m.Cycles())
			assert.ErrorIs(t, m.Step(), ErrInvalidKey)
		})
	}
}

func TestStepClearScreen(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0xA050, 0xD005, 0x00E0)
	stepN(t, m, 2)
	fb := m.Framebuffer()
	assert.True(t, fb.Pixel(0, 0))

	stepN(t, m, 1)
	assert.Equal(t, uint16(ProgramStart+6), m.PC())
	fb = m.Framebuffer()
	for y := range 32 {
		for x := range 64 {
			assert.False(t, fb.Pixel(x, y))
		}
	}
}

func TestStepDraw(t *testing.T) {
	// draw the glyph of digit 0 twice at (2, 3)
	m := newTestMachine(t, Quirks{}, 0x6002, 0x6103, 0xA050, 0xD015, 0xD015)
	stepN(t, m, 4)

	fb := m.Framebuffer()
	assert.True(t, fb.Pixel(2, 3))
	assert.True(t, fb.Pixel(5, 3))
	assert.False(t, fb.Pixel(6, 3))
	assert.True(t, fb.Pixel(2, 4))
	assert.False(t, fb.Pixel(3, 4))
	assert.Equal(t, byte(0), m.Register(FlagRegister))

	stepN(t, m, 1)
	assert.Equal(t, byte(1), m.Register(FlagRegister))
	fb = m.Framebuffer()
	var empty display.Framebuffer
	assert.Equal(t, empty.String(), fb.String())
}

func TestStepDrawSpriteAddressPolicy(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0xD002)
	assert.NoError(t, m.SetMemory(MaxAddress, 0x80))
	assert.NoError(t, m.SetMemory(0x000, 0x80))
	assert.NoError(t, m.SetIndex(MaxAddress))
	stepN(t, m, 1)

	fb := m.Framebuffer()
	assert.True(t, fb.Pixel(0, 0))
	assert.True(t, fb.Pixel(0, 1))

	cfg := DefaultConfig()
	cfg.Addressing = AddressFault
	m = New(cfg)
	assert.NoError(t, m.Load([]byte{0xD0, 0x02}))
	assert.NoError(t, m.SetIndex(MaxAddress))

	err := m.Step()
	assert.True(t, errors.Is(err, ErrAddressOverflow))
	fb = m.Framebuffer()
	assert.False(t, fb.Pixel(0, 0))
}

func TestStepJumps(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0x1234)
	stepN(t, m, 1)
	assert.Equal(t, uint16(0x234), m.PC())

	m = newTestMachine(t, Quirks{}, 0xB300)
	m.SetRegister(0, 0x04)
	m.SetRegister(3, 0x08)
	stepN(t, m, 1)
	assert.Equal(t, uint16(0x304), m.PC())

	m = newTestMachine(t, Quirks{JumpUsesVX: true}, 0xB300)
	m.SetRegister(0, 0x04)
	m.SetRegister(3, 0x08)
	stepN(t, m, 1)
	assert.Equal(t, uint16(0x308), m.PC())
}

func TestStepJumpIndexedWraps(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0xBFFF)
	m.SetRegister(0, 0x02)
	stepN(t, m, 1)
	assert.Equal(t, uint16(0x001), m.PC())
}

func TestStepCallReturn(t *testing.T) {
	m := newTestMachine(t, Quirks{},
		0x2206, // $200: call $206
		0x6101, // $202: ld V1, $01
		0x1204, // $204: jp $204
		0x6042, // $206: ld V0, $42
		0x00EE, // $208: ret
	)

	stepN(t, m, 1)
	assert.Equal(t, uint16(0x206), m.PC())
	assert.Equal(t, 1, m.StackPointer())

	stepN(t, m, 2)
	assert.Equal(t, uint16(0x202), m.PC())
	assert.Equal(t, 0, m.StackPointer())
	assert.Equal(t, byte(0x42), m.Register(0))

	stepN(t, m, 1)
	assert.Equal(t, byte(0x01), m.Register(1))
}

func TestStepStackOverflowIsSticky(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0x2200)
	stepN(t, m, StackSize)

	err := m.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))
	assert.Equal(t, uint16(ProgramStart), m.PC())
	assert.Equal(t, StackSize, m.StackPointer())
	assert.Equal(t, uint64(StackSize), m.Cycles())

	assert.Equal(t, err, m.Step())
	assert.Equal(t, err, m.Fault())

	m.Reset()
	assert.Nil(t, m.Fault())
	assert.Equal(t, 0, m.StackPointer())
}

func TestStepErrors(t *testing.T) {
	tests := []struct {
		name     string
		opcode   uint16
		v0       byte
		expected error
	}{
		{"stack underflow", 0x00EE, 0, ErrStackUnderflow},
		{"unknown opcode", 0x8008, 0, ErrDecodeFailure},
		{"unknown keyboard opcode", 0xE0FF, 0, ErrDecodeFailure},
		{"unknown misc opcode", 0xF0FF, 0, ErrDecodeFailure},
		{"invalid font digit", 0xF029, 0x10, ErrInvalidFontDigit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, Quirks{}, tt.opcode)
			m.SetRegister(0, tt.v0)
			assert.NoError(t, m.SetIndex(0x123))

			err := m.Step()
			assert.True(t, errors.Is(err, tt.expected))
			assert.Equal(t, uint16(ProgramStart), m.PC())
			assert.Equal(t, uint16(0x123), m.Index())
			assert.Equal(t, tt.v0, m.Register(0))
			assert.True(t, errors.Is(m.Step(), tt.expected))
		})
	}
}

func TestStepSys(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0x0123)
	stepN(t, m, 1)
	assert.Equal(t, uint16(ProgramStart+2), m.PC())
}

func TestStepLoadIndexAndFont(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0xA2F0, 0xF029, 0x600F, 0xF029)
	stepN(t, m, 1)
	assert.Equal(t, uint16(0x2F0), m.Index())

	stepN(t, m, 1)
	assert.Equal(t, uint16(0x050), m.Index())

	stepN(t, m, 2)
	assert.Equal(t, uint16(0x09B), m.Index())
}

func TestStepAddIndex(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0xF01E)
	assert.NoError(t, m.SetIndex(0x300))
	m.SetRegister(0, 0x20)
	m.SetRegister(FlagRegister, 0x55)
	stepN(t, m, 1)
	assert.Equal(t, uint16(0x320), m.Index())
	assert.Equal(t, byte(0x55), m.Register(FlagRegister))

	m = newTestMachine(t, Quirks{}, 0xF01E)
	assert.NoError(t, m.SetIndex(MaxAddress))
	m.SetRegister(0, 0x02)
	stepN(t, m, 1)
	assert.Equal(t, uint16(0x001), m.Index())

	cfg := DefaultConfig()
	cfg.Addressing = AddressFault
	m = New(cfg)
	assert.NoError(t, m.Load([]byte{0xF0, 0x1E}))
	assert.NoError(t, m.SetIndex(MaxAddress))
	m.SetRegister(0, 0x02)
	err := m.Step()
	assert.True(t, errors.Is(err, ErrAddressOverflow))
	assert.Equal(t, uint16(MaxAddress), m.Index())
	assert.Equal(t, uint16(ProgramStart), m.PC())
}

func TestStepStoreBCD(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0xF033)
	assert.NoError(t, m.SetIndex(0x300))
	m.SetRegister(0, 254)
	stepN(t, m, 1)

	for n, expected := range []byte{2, 5, 4} {
		value, err := m.MemoryAt(0x300 + uint16(n))
		assert.NoError(t, err)
		assert.Equal(t, expected, value)
	}
	assert.Equal(t, uint16(0x300), m.Index())
}

func TestStepStoreAndLoadRegisters(t *testing.T) {
	tests := []struct {
		name   string
		quirks Quirks
		index  uint16
	}{
		{"modern", Quirks{}, 0x300},
		{"increment index", Quirks{IncrementIndex: true}, 0x304},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.quirks, 0xF355)
			assert.NoError(t, m.SetIndex(0x300))
			for x := range uint8(RegisterCount) {
				m.SetRegister(x, 0x10+x)
			}
			stepN(t, m, 1)

			assert.Equal(t, tt.index, m.Index())
			for n := range uint16(5) {
				value, err := m.MemoryAt(0x300 + n)
				assert.NoError(t, err)
				if n < 4 {
					assert.Equal(t, byte(0x10+n), value)
				} else {
					assert.Equal(t, byte(0), value)
				}
			}

			m = newTestMachine(t, tt.quirks, 0xF365)
			assert.NoError(t, m.SetIndex(0x300))
			for n := range uint16(4) {
				assert.NoError(t, m.SetMemory(0x300+n, byte(0xA0+n)))
			}
			stepN(t, m, 1)

			assert.Equal(t, tt.index, m.Index())
			for x := range uint8(4) {
				assert.Equal(t, 0xA0+x, m.Register(x))
			}
			assert.Equal(t, byte(0), m.Register(4))
		})
	}
}

func TestStepStoreRegistersAddressFault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addressing = AddressFault
	cfg.Quirks.IncrementIndex = true
	m := New(cfg)
	assert.NoError(t, m.Load([]byte{0xF1, 0x55}))
	assert.NoError(t, m.SetIndex(MaxAddress-1))
	m.SetRegister(0, 0x11)

	// the last register fits, the incremented index does not
	err := m.Step()
	assert.True(t, errors.Is(err, ErrAddressOverflow))
	value, err := m.MemoryAt(MaxAddress - 1)
	assert.NoError(t, err)
	assert.Equal(t, byte(0), value)
	assert.Equal(t, uint16(MaxAddress-1), m.Index())
}

func TestStepTimers(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0x6010, 0xF015, 0xF118)
	stepN(t, m, 3)
	assert.Equal(t, byte(0x10), m.DelayTimer())
	assert.Equal(t, byte(0), m.SoundTimer())

	m = newTestMachine(t, Quirks{}, 0x6010, 0xF015, 0xF207)
	stepN(t, m, 2)
	m.TickTimers()
	stepN(t, m, 1)
	assert.Equal(t, byte(0x0F), m.Register(2))
}

func TestStepRandom(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 1234
	first := New(cfg)
	second := New(cfg)
	for _, m := range []*Machine{first, second} {
		assert.NoError(t, m.Load([]byte{0xC0, 0xFF, 0xC1, 0x0F}))
		stepN(t, m, 2)
	}

	assert.Equal(t, first.Register(0), second.Register(0))
	assert.Equal(t, first.Register(1), second.Register(1))
	assert.Equal(t, byte(0), first.Register(1)&0xF0)
}

type constantSource uint64

func (s constantSource) Uint64() uint64 {
	return uint64(s)
}

func TestStepRandomSource(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Random = rand.Source(constantSource(0))
	m := New(cfg)
	assert.NoError(t, m.Load([]byte{0xC0, 0xFF}))
	m.SetRegister(0, 0x99)
	stepN(t, m, 1)

	assert.Equal(t, byte(0), m.Register(0))
}

func TestStepWaitForKeyPress(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0xF30A, 0x6001)
	stepN(t, m, 1)
	assert.True(t, m.Waiting())
	assert.Equal(t, uint16(ProgramStart), m.PC())

	stepN(t, m, 3)
	assert.True(t, m.Waiting())
	assert.Equal(t, uint16(ProgramStart), m.PC())
	assert.Equal(t, byte(0), m.Register(0))

	assert.NoError(t, m.SetKeyState(7, true))
	stepN(t, m, 1)
	assert.False(t, m.Waiting())
	assert.Equal(t, byte(7), m.Register(3))
	assert.Equal(t, uint16(ProgramStart+2), m.PC())

	stepN(t, m, 1)
	assert.Equal(t, byte(1), m.Register(0))
	assert.Equal(t, uint16(ProgramStart+4), m.PC())
}

func TestStepWaitForKeyAddressFault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addressing = AddressFault
	m := New(cfg)
	assert.NoError(t, m.SetMemory(0xFFE, 0xF3))
	assert.NoError(t, m.SetMemory(0xFFF, 0x0A))
	assert.NoError(t, m.SetPC(0xFFE))

	stepN(t, m, 1)
	assert.True(t, m.Waiting())

	assert.NoError(t, m.SetKeyState(2, true))
	err := m.Step()
	assert.ErrorIs(t, err, ErrAddressOverflow)
	assert.True(t, m.Waiting())
	assert.Equal(t, byte(0), m.Register(3))
	assert.Equal(t, uint16(0xFFE), m.PC())
}

func TestStepWaitForKeyShortPress(t *testing.T) {
	m := newTestMachine(t, Quirks{}, 0xF30A)
	stepN(t, m, 1)

	// pressed and released between two steps
	assert.NoError(t, m.SetKeyState(0xC, true))
	assert.NoError(t, m.SetKeyState(0xC, false))
	stepN(t, m, 1)
	assert.False(t, m.Waiting())
	assert.Equal(t, byte(0xC), m.Register(3))
}

func TestStepWaitForKeyRelease(t *testing.T) {
	m := newTestMachine(t, Quirks{WaitForRelease: true}, 0xF30A)
	stepN(t, m, 1)

	assert.NoError(t, m.SetKeyState(4, true))
	stepN(t, m, 2)
	assert.True(t, m.Waiting())

	assert.NoError(t, m.SetKeyState(4, false))
	stepN(t, m, 1)
	assert.False(t, m.Waiting())
	assert.Equal(t, byte(4), m.Register(3))
}

func TestStepWaitForKeyHeldBeforeWait(t *testing.T) {
	m := newTestMachine(t, Quirks{WaitForRelease: true}, 0xF30A)
	assert.NoError(t, m.SetKeyState(9, true))
	stepN(t, m, 2)
	assert.True(t, m.Waiting())

	assert.NoError(t, m.SetKeyState(9, false))
	stepN(t, m, 1)
	assert.False(t, m.Waiting())
	assert.Equal(t, byte(9), m.Register(3))
}

func TestStepTrace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logger = log.NewTestLogger(t)
	cfg.Trace = true
	m := New(cfg)
	assert.NoError(t, m.Load([]byte{0x60, 0x05}))

	stepN(t, m, 1)
	assert.Equal(t, byte(0x05), m.Register(0))
}

func TestStepFetchAddressFault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addressing = AddressFault
	m := New(cfg)
	assert.NoError(t, m.SetPC(MaxAddress))

	err := m.Step()
	assert.True(t, errors.Is(err, ErrAddressOverflow))
	assert.Equal(t, uint16(MaxAddress), m.PC())
}

func TestStepProgramCounterWraps(t *testing.T) {
	m := New(DefaultConfig())
	assert.NoError(t, m.SetMemory(0xFFE, 0x60))
	assert.NoError(t, m.SetMemory(0xFFF, 0x42))
	assert.NoError(t, m.SetPC(0xFFE))

	stepN(t, m, 1)
	assert.Equal(t, byte(0x42), m.Register(0))
	assert.Equal(t, uint16(0x000), m.PC())
}

func TestStepControlFlowAtLastWord(t *testing.T) {
	tests := []struct {
		name     string
		opcode   uint16
		expected uint16
	}{
		{"jp", 0x1234, 0x234},
		{"jp v0", 0xB300, 0x300},
		{"ret", 0x00EE, 0x456},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Addressing = AddressFault
			m := New(cfg)
			assert.NoError(t, m.SetMemory(0xFFE, byte(tt.opcode>>8)))
			assert.NoError(t, m.SetMemory(0xFFF, byte(tt.opcode)))
			assert.NoError(t, m.push(0x456))
			assert.NoError(t, m.SetPC(0xFFE))

			stepN(t, m, 1)
			assert.Equal(t, tt.expected, m.PC())
		})
	}
}

func TestStepCallAtLastWordFaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addressing = AddressFault
	m := New(cfg)
	assert.NoError(t, m.SetMemory(0xFFE, 0x23))
	assert.NoError(t, m.SetMemory(0xFFF, 0x00))
	assert.NoError(t, m.SetPC(0xFFE))

	err := m.Step()
	assert.ErrorIs(t, err, ErrAddressOverflow)
	assert.Equal(t, uint16(0xFFE), m.PC())
	assert.Equal(t, 0, m.StackPointer())
}
