package chip8

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
)

// Step executes the instruction at the program counter.
//
// While a LD Vx, K instruction waits for a key, Step only checks the key
// states and does not fetch a new instruction. If an instruction fails, the
// machine state is left as it was before the instruction and every following
// call returns the same error until the machine is reset.
func (m *Machine) Step() error {
	if m.fault != nil {
		return m.fault
	}
	if m.wait.active {
		if err := m.pollKeyWait(); err != nil {
			return m.setFault(fmt.Errorf("completing key wait at $%03X: %w", m.pc, err))
		}
		return nil
	}

	pc := m.pc
	opcode, err := m.fetch()
	if err != nil {
		return m.setFault(fmt.Errorf("fetching opcode at $%03X: %w", pc, err))
	}

	ins, err := Decode(opcode)
	if err != nil {
		return m.setFault(fmt.Errorf("decoding opcode at $%03X: %w", pc, err))
	}

	if m.cfg.Trace && m.cfg.Logger != nil {
		m.cfg.Logger.Debug("Executing instruction",
			log.Hex("pc", pc),
			log.Hex("opcode", opcode),
			log.String("instruction", ins.String()))
	}

	if err := m.execute(ins); err != nil {
		m.pc = pc
		return m.setFault(fmt.Errorf("executing '%s' at $%03X: %w", ins, pc, err))
	}
	m.cycles++
	return nil
}

func (m *Machine) setFault(err error) error {
	m.fault = err
	return err
}

// fetch reads the big-endian opcode at the program counter.
func (m *Machine) fetch() (uint16, error) {
	low, err := m.offset(m.pc, 1)
	if err != nil {
		return 0, err
	}
	return uint16(m.memory[m.pc])<<8 | uint16(m.memory[low]), nil
}

// execute applies a decoded instruction. Instructions that do not change the
// control flow advance the program counter to the following instruction.
// An instruction returning an error must not have modified the machine state.
//
//nolint:cyclop,funlen // one case per instruction form
func (m *Machine) execute(ins Instruction) error {
	switch ins.Op {
	case OpRet:
		address, err := m.pop()
		if err != nil {
			return err
		}
		m.pc = address
		return nil

	case OpJp:
		m.pc = ins.Addr
		return nil

	case OpCall:
		next, err := m.offset(m.pc, opcodeSize)
		if err != nil {
			return err
		}
		if err := m.push(next); err != nil {
			return err
		}
		m.pc = ins.Addr
		return nil

	case OpJpV0:
		return m.jumpIndexed(ins)

	case OpLdVxK:
		// the program counter stays on the instruction until a key commits
		m.wait = keyWait{active: true, register: ins.X}
		return nil
	}

	next, err := m.offset(m.pc, opcodeSize)
	if err != nil {
		return err
	}

	switch ins.Op {
	case OpSys:
		// machine code routines are not supported

	case OpCls:
		m.screen.Clear()

	case OpSeByte:
		return m.skipIf(next, m.v[ins.X] == ins.Byte)

	case OpSneByte:
		return m.skipIf(next, m.v[ins.X] != ins.Byte)

	case OpSeReg:
		return m.skipIf(next, m.v[ins.X] == m.v[ins.Y])

	case OpSneReg:
		return m.skipIf(next, m.v[ins.X] != m.v[ins.Y])

	case OpSkp, OpSknp:
		key := m.v[ins.X]
		if key >= KeyCount {
			return fmt.Errorf("%w $%02X in V%X", ErrInvalidKey, key, ins.X)
		}
		return m.skipIf(next, m.keys[key] == (ins.Op == OpSkp))

	case OpLdByte:
		m.v[ins.X] = ins.Byte

	case OpAddByte:
		m.v[ins.X] += ins.Byte

	case OpLdReg, OpOr, OpAnd, OpXor, OpAddReg, OpSub, OpShr, OpSubn, OpShl:
		if err := m.executeALU(ins); err != nil {
			return err
		}

	case OpLdI:
		m.i = ins.Addr

	case OpRnd:
		m.v[ins.X] = uint8(m.rng.UintN(256)) & ins.Byte

	case OpDrw:
		if err := m.draw(ins); err != nil {
			return err
		}

	case OpLdVxDT:
		m.v[ins.X] = m.delayTimer

	case OpLdDTVx:
		m.delayTimer = m.v[ins.X]

	case OpLdSTVx:
		m.soundTimer = m.v[ins.X]

	case OpAddI:
		address, err := m.offset(m.i, int(m.v[ins.X]))
		if err != nil {
			return err
		}
		m.i = address

	case OpLdF:
		address, err := m.FontAddress(m.v[ins.X])
		if err != nil {
			return err
		}
		m.i = address

	case OpLdB:
		if err := m.storeBCD(m.v[ins.X]); err != nil {
			return err
		}

	case OpLdIVx:
		if err := m.storeRegisters(ins.X); err != nil {
			return err
		}

	case OpLdVxI:
		if err := m.loadRegisters(ins.X); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unhandled instruction form %s", ins.Op)
	}

	m.pc = next
	return nil
}

// executeALU executes the register to register instructions of the 0x8 class.
// The result is written before VF so that the flag wins when Vx is VF.
func (m *Machine) executeALU(ins Instruction) error {
	x, y := m.v[ins.X], m.v[ins.Y]

	switch ins.Op {
	case OpLdReg:
		m.v[ins.X] = y

	case OpOr:
		m.v[ins.X] = x | y
		m.logicFlag()

	case OpAnd:
		m.v[ins.X] = x & y
		m.logicFlag()

	case OpXor:
		m.v[ins.X] = x ^ y
		m.logicFlag()

	case OpAddReg:
		sum := uint16(x) + uint16(y)
		m.setWithFlag(ins.X, uint8(sum), sum > 0xFF)

	case OpSub:
		m.setWithFlag(ins.X, x-y, x >= y)

	case OpSubn:
		m.setWithFlag(ins.X, y-x, y >= x)

	case OpShr:
		src := m.shiftSource(ins)
		m.setWithFlag(ins.X, src>>1, src&0x01 != 0)

	case OpShl:
		src := m.shiftSource(ins)
		m.setWithFlag(ins.X, src<<1, src&0x80 != 0)

	default:
		return fmt.Errorf("unhandled arithmetic instruction form %s", ins.Op)
	}
	return nil
}

func (m *Machine) setWithFlag(x uint8, value byte, flag bool) {
	m.v[x] = value
	m.v[FlagRegister] = boolToByte(flag)
}

func (m *Machine) logicFlag() {
	if m.cfg.Quirks.ResetVF {
		m.v[FlagRegister] = 0
	}
}

func (m *Machine) shiftSource(ins Instruction) byte {
	if m.cfg.Quirks.ShiftUsesVY {
		return m.v[ins.Y]
	}
	return m.v[ins.X]
}

// skipIf advances the program counter past the next instruction if the
// condition holds.
func (m *Machine) skipIf(next uint16, condition bool) error {
	if !condition {
		m.pc = next
		return nil
	}

	address, err := m.offset(next, opcodeSize)
	if err != nil {
		return err
	}
	m.pc = address
	return nil
}

func (m *Machine) jumpIndexed(ins Instruction) error {
	register := uint8(0)
	if m.cfg.Quirks.JumpUsesVX {
		register = uint8(ins.Addr >> 8)
	}

	address, err := m.offset(ins.Addr, int(m.v[register]))
	if err != nil {
		return err
	}
	m.pc = address
	return nil
}

// draw composites the sprite at I onto the screen and sets VF on collision.
func (m *Machine) draw(ins Instruction) error {
	var buf [0xF]byte
	sprite := buf[:ins.N]
	for row := range sprite {
		address, err := m.offset(m.i, row)
		if err != nil {
			return err
		}
		sprite[row] = m.memory[address]
	}

	collision := m.screen.DrawSprite(m.v[ins.X], m.v[ins.Y], sprite)
	m.v[FlagRegister] = boolToByte(collision)
	return nil
}

// storeBCD stores the hundreds, tens and units digit of the value at I, I+1 and I+2.
func (m *Machine) storeBCD(value byte) error {
	if _, err := m.offset(m.i, 2); err != nil {
		return err
	}

	digits := [3]byte{value / 100, value / 10 % 10, value % 10}
	for n, digit := range digits {
		address, _ := m.offset(m.i, n)
		m.memory[address] = digit
	}
	return nil
}

// storeRegisters stores V0 to Vx at I.
func (m *Machine) storeRegisters(x uint8) error {
	index, err := m.checkRegisterRange(x)
	if err != nil {
		return err
	}

	for r := range int(x) + 1 {
		address, _ := m.offset(m.i, r)
		m.memory[address] = m.v[r]
	}
	m.i = index
	return nil
}

// loadRegisters loads V0 to Vx from I.
func (m *Machine) loadRegisters(x uint8) error {
	index, err := m.checkRegisterRange(x)
	if err != nil {
		return err
	}

	for r := range int(x) + 1 {
		address, _ := m.offset(m.i, r)
		m.v[r] = m.memory[address]
	}
	m.i = index
	return nil
}

// checkRegisterRange validates the memory range used by a register store or
// load and returns the value of I after the instruction.
func (m *Machine) checkRegisterRange(x uint8) (uint16, error) {
	if _, err := m.offset(m.i, int(x)); err != nil {
		return 0, err
	}
	if !m.cfg.Quirks.IncrementIndex {
		return m.i, nil
	}
	return m.offset(m.i, int(x)+1)
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
