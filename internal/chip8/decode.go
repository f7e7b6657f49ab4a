package chip8

import (
	"fmt"

	chip8cpu "github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Decode converts a 16-bit opcode into an instruction. The leading nibble
// selects the opcode class of the CPU opcode table, the entries of the class
// are matched by mask and value. Unknown opcodes of the 0x8, 0xE and 0xF
// classes return ErrDecodeFailure.
func Decode(opcode uint16) (Instruction, error) {
	class := (opcode & 0xF000) >> 12
	for _, op := range chip8cpu.Opcodes[class] {
		if op.Info.Mask&opcode == op.Info.Value {
			return newInstruction(opsByValue[op.Info.Value], opcode), nil
		}
	}

	switch class {
	case 0x0:
		// machine code routine calls are not supported and decode to a no-op
		return newInstruction(OpSys, opcode), nil
	case 0x5:
		// the low nibble is not part of the opcode
		return newInstruction(OpSeReg, opcode), nil
	case 0x9:
		return newInstruction(OpSneReg, opcode), nil
	default:
		return Instruction{}, unknownOpcode(opcode)
	}
}

// newInstruction extracts the operand fields that the instruction form uses.
func newInstruction(op Op, opcode uint16) Instruction {
	ins := Instruction{Op: op}
	switch forms[op].operands {
	case operandsNone:
	case operandsAddr:
		ins.Addr = extractAddress(opcode)
	case operandsX:
		ins.X = extractRegisterX(opcode)
	case operandsXByte:
		ins.X = extractRegisterX(opcode)
		ins.Byte = extractByte(opcode)
	case operandsXY:
		ins.X = extractRegisterX(opcode)
		ins.Y = extractRegisterY(opcode)
	case operandsXYN:
		ins.X = extractRegisterX(opcode)
		ins.Y = extractRegisterY(opcode)
		ins.N = extractNibble(opcode)
	}
	return ins
}

// Encode converts an instruction back into its 16-bit opcode. Operand fields
// that the instruction form does not use are ignored.
func Encode(ins Instruction) (uint16, error) {
	if !ins.Op.Valid() {
		return 0, fmt.Errorf("encoding instruction: invalid op %d", uint8(ins.Op))
	}

	f := forms[ins.Op]
	opcode := f.info.Value
	switch f.operands {
	case operandsNone:
	case operandsAddr:
		opcode |= ins.Addr & 0x0FFF
	case operandsX:
		opcode |= uint16(ins.X&0xF) << 8
	case operandsXByte:
		opcode |= uint16(ins.X&0xF)<<8 | uint16(ins.Byte)
	case operandsXY:
		opcode |= uint16(ins.X&0xF)<<8 | uint16(ins.Y&0xF)<<4
	case operandsXYN:
		opcode |= uint16(ins.X&0xF)<<8 | uint16(ins.Y&0xF)<<4 | uint16(ins.N&0xF)
	}
	return opcode, nil
}

func unknownOpcode(opcode uint16) error {
	return fmt.Errorf("%w $%04X", ErrDecodeFailure, opcode)
}

// extractRegisterX extracts the X register nibble from a CHIP-8 opcode.
func extractRegisterX(opcode uint16) uint8 {
	return uint8((opcode & 0x0F00) >> 8)
}

// extractRegisterY extracts the Y register nibble from a CHIP-8 opcode.
func extractRegisterY(opcode uint16) uint8 {
	return uint8((opcode & 0x00F0) >> 4)
}

func extractNibble(opcode uint16) uint8 {
	return uint8(opcode & 0x000F)
}

func extractByte(opcode uint16) uint8 {
	return uint8(opcode & 0x00FF)
}

func extractAddress(opcode uint16) uint16 {
	return opcode & 0x0FFF
}
