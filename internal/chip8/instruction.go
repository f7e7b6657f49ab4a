package chip8

import (
	"fmt"

	chip8cpu "github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Op identifies one of the instruction forms of the base CHIP-8 instruction set.
// The zero value is not a valid instruction form.
type Op uint8

// Instruction forms, named after their assembler syntax.
const (
	OpSys     Op = iota + 1 // 0nnn - SYS addr, executed as no-op
	OpCls                   // 00E0 - CLS
	OpRet                   // 00EE - RET
	OpJp                    // 1nnn - JP addr
	OpCall                  // 2nnn - CALL addr
	OpSeByte                // 3xkk - SE Vx, byte
	OpSneByte               // 4xkk - SNE Vx, byte
	OpSeReg                 // 5xy0 - SE Vx, Vy
	OpLdByte                // 6xkk - LD Vx, byte
	OpAddByte               // 7xkk - ADD Vx, byte
	OpLdReg                 // 8xy0 - LD Vx, Vy
	OpOr                    // 8xy1 - OR Vx, Vy
	OpAnd                   // 8xy2 - AND Vx, Vy
	OpXor                   // 8xy3 - XOR Vx, Vy
	OpAddReg                // 8xy4 - ADD Vx, Vy
	OpSub                   // 8xy5 - SUB Vx, Vy
	OpShr                   // 8xy6 - SHR Vx {, Vy}
	OpSubn                  // 8xy7 - SUBN Vx, Vy
	OpShl                   // 8xyE - SHL Vx {, Vy}
	OpSneReg                // 9xy0 - SNE Vx, Vy
	OpLdI                   // Annn - LD I, addr
	OpJpV0                  // Bnnn - JP V0, addr
	OpRnd                   // Cxkk - RND Vx, byte
	OpDrw                   // Dxyn - DRW Vx, Vy, nibble
	OpSkp                   // Ex9E - SKP Vx
	OpSknp                  // ExA1 - SKNP Vx
	OpLdVxDT                // Fx07 - LD Vx, DT
	OpLdVxK                 // Fx0A - LD Vx, K
	OpLdDTVx                // Fx15 - LD DT, Vx
	OpLdSTVx                // Fx18 - LD ST, Vx
	OpAddI                  // Fx1E - ADD I, Vx
	OpLdF                   // Fx29 - LD F, Vx
	OpLdB                   // Fx33 - LD B, Vx
	OpLdIVx                 // Fx55 - LD [I], Vx
	OpLdVxI                 // Fx65 - LD Vx, [I]

	opCount
)

// operands describes which instruction fields an instruction form uses.
type operands uint8

const (
	operandsNone operands = iota
	operandsAddr
	operandsX
	operandsXByte
	operandsXY
	operandsXYN
)

type form struct {
	info     chip8cpu.OpcodeInfo // opcode value with all operand bits cleared and its mask
	pattern  string
	operands operands
	ins      *chip8cpu.Instruction
}

// sysInfo matches every opcode of the 0x0 class. Machine code routine calls
// are not part of the instruction table of the CPU package.
var sysInfo = chip8cpu.OpcodeInfo{Value: 0x0000, Mask: 0xF000}

// forms contains the encoding and naming information for every instruction form.
var forms = [opCount]form{
	OpSys:     {sysInfo, "0nnn", operandsAddr, nil},
	OpCls:     {chip8cpu.Opcode00E0, "00E0", operandsNone, chip8cpu.ClsInst},
	OpRet:     {chip8cpu.Opcode00EE, "00EE", operandsNone, chip8cpu.RetInst},
	OpJp:      {chip8cpu.Opcode1000, "1nnn", operandsAddr, chip8cpu.JpInst},
	OpCall:    {chip8cpu.Opcode2000, "2nnn", operandsAddr, chip8cpu.CallInst},
	OpSeByte:  {chip8cpu.Opcode3000, "3xkk", operandsXByte, chip8cpu.SeInst},
	OpSneByte: {chip8cpu.Opcode4000, "4xkk", operandsXByte, chip8cpu.SneInst},
	OpSeReg:   {chip8cpu.Opcode5000, "5xy0", operandsXY, chip8cpu.SeInst},
	OpLdByte:  {chip8cpu.Opcode6000, "6xkk", operandsXByte, chip8cpu.LdInst},
	OpAddByte: {chip8cpu.Opcode7000, "7xkk", operandsXByte, chip8cpu.AddInst},
	OpLdReg:   {chip8cpu.Opcode8000, "8xy0", operandsXY, chip8cpu.LdInst},
	OpOr:      {chip8cpu.Opcode8001, "8xy1", operandsXY, chip8cpu.OrInst},
	OpAnd:     {chip8cpu.Opcode8002, "8xy2", operandsXY, chip8cpu.AndInst},
	OpXor:     {chip8cpu.Opcode8003, "8xy3", operandsXY, chip8cpu.XorInst},
	OpAddReg:  {chip8cpu.Opcode8004, "8xy4", operandsXY, chip8cpu.AddInst},
	OpSub:     {chip8cpu.Opcode8005, "8xy5", operandsXY, chip8cpu.SubInst},
	OpShr:     {chip8cpu.Opcode8006, "8xy6", operandsXY, chip8cpu.ShrInst},
	OpSubn:    {chip8cpu.Opcode8007, "8xy7", operandsXY, chip8cpu.SubnInst},
	OpShl:     {chip8cpu.Opcode800E, "8xyE", operandsXY, chip8cpu.ShlInst},
	OpSneReg:  {chip8cpu.Opcode9000, "9xy0", operandsXY, chip8cpu.SneInst},
	OpLdI:     {chip8cpu.OpcodeA000, "Annn", operandsAddr, chip8cpu.LdInst},
	OpJpV0:    {chip8cpu.OpcodeB000, "Bnnn", operandsAddr, chip8cpu.JpInst},
	OpRnd:     {chip8cpu.OpcodeC000, "Cxkk", operandsXByte, chip8cpu.RndInst},
	OpDrw:     {chip8cpu.OpcodeD000, "Dxyn", operandsXYN, chip8cpu.DrwInst},
	OpSkp:     {chip8cpu.OpcodeE09E, "Ex9E", operandsX, chip8cpu.SkpInst},
	OpSknp:    {chip8cpu.OpcodeE0A1, "ExA1", operandsX, chip8cpu.SknpInst},
	OpLdVxDT:  {chip8cpu.OpcodeF007, "Fx07", operandsX, chip8cpu.LdInst},
	OpLdVxK:   {chip8cpu.OpcodeF00A, "Fx0A", operandsX, chip8cpu.LdInst},
	OpLdDTVx:  {chip8cpu.OpcodeF015, "Fx15", operandsX, chip8cpu.LdInst},
	OpLdSTVx:  {chip8cpu.OpcodeF018, "Fx18", operandsX, chip8cpu.LdInst},
	OpAddI:    {chip8cpu.OpcodeF01E, "Fx1E", operandsX, chip8cpu.AddInst},
	OpLdF:     {chip8cpu.OpcodeF029, "Fx29", operandsX, chip8cpu.LdInst},
	OpLdB:     {chip8cpu.OpcodeF033, "Fx33", operandsX, chip8cpu.LdInst},
	OpLdIVx:   {chip8cpu.OpcodeF055, "Fx55", operandsX, chip8cpu.LdInst},
	OpLdVxI:   {chip8cpu.OpcodeF065, "Fx65", operandsX, chip8cpu.LdInst},
}

// opsByValue maps the opcode value of every entry of the CPU opcode table to
// its instruction form.
var opsByValue = func() map[uint16]Op {
	m := make(map[uint16]Op, len(forms))
	for op := OpCls; op < opCount; op++ {
		m[forms[op].info.Value] = op
	}
	return m
}()

// Valid returns whether the op is one of the defined instruction forms.
func (o Op) Valid() bool {
	return o > 0 && o < opCount
}

// String returns the opcode pattern of the instruction form, for example "8xy4".
func (o Op) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
	return forms[o].pattern
}

// Name returns the assembler mnemonic of the instruction form.
func (o Op) Name() string {
	if !o.Valid() {
		return ""
	}
	if ins := forms[o].ins; ins != nil {
		return ins.Name
	}
	return "sys"
}

// Instruction is a decoded CHIP-8 instruction. Only the operand fields used by
// the instruction form are set, all others are zero.
type Instruction struct {
	Op   Op
	X    uint8  // register index from bits 8-11
	Y    uint8  // register index from bits 4-7
	N    uint8  // 4-bit count from bits 0-3
	Byte uint8  // immediate value from bits 0-7
	Addr uint16 // 12-bit address from bits 0-11
}

// Name returns the instruction mnemonic.
func (i Instruction) Name() string {
	return i.Op.Name()
}

// String formats the instruction in assembler syntax.
func (i Instruction) String() string {
	name := i.Name()
	if params := i.params(); params != "" {
		return name + " " + params
	}
	return name
}

// params formats the instruction parameters.
func (i Instruction) params() string {
	switch i.Op {
	case OpCls, OpRet:
		return "" // No parameters
	case OpSys, OpJp, OpCall:
		return fmt.Sprintf("$%03X", i.Addr)
	case OpJpV0:
		return fmt.Sprintf("V0, $%03X", i.Addr)
	case OpLdI:
		return fmt.Sprintf("I, $%03X", i.Addr)
	case OpSeByte, OpSneByte, OpLdByte, OpAddByte, OpRnd:
		return fmt.Sprintf("V%X, $%02X", i.X, i.Byte)
	case OpSeReg, OpSneReg, OpLdReg, OpOr, OpAnd, OpXor, OpAddReg, OpSub, OpShr, OpSubn, OpShl:
		return fmt.Sprintf("V%X, V%X", i.X, i.Y)
	case OpDrw:
		return fmt.Sprintf("V%X, V%X, $%X", i.X, i.Y, i.N)
	case OpSkp, OpSknp:
		return fmt.Sprintf("V%X", i.X)
	case OpLdVxDT:
		return fmt.Sprintf("V%X, DT", i.X)
	case OpLdVxK:
		return fmt.Sprintf("V%X, K", i.X)
	case OpLdDTVx:
		return fmt.Sprintf("DT, V%X", i.X)
	case OpLdSTVx:
		return fmt.Sprintf("ST, V%X", i.X)
	case OpAddI:
		return fmt.Sprintf("I, V%X", i.X)
	case OpLdF:
		return fmt.Sprintf("F, V%X", i.X)
	case OpLdB:
		return fmt.Sprintf("B, V%X", i.X)
	case OpLdIVx:
		return fmt.Sprintf("[I], V%X", i.X)
	case OpLdVxI:
		return fmt.Sprintf("V%X, [I]", i.X)
	}
	return ""
}

// IsJump returns true if the instruction is an unconditional jump.
func (i Instruction) IsJump() bool {
	return i.Op == OpJp || i.Op == OpJpV0
}

// IsCall returns true if the instruction is a subroutine call.
func (i Instruction) IsCall() bool {
	return i.Op == OpCall
}

// IsReturn returns true if the instruction is a return from subroutine.
func (i Instruction) IsReturn() bool {
	return i.Op == OpRet
}

// IsSkip returns true if the instruction is a conditional skip instruction.
func (i Instruction) IsSkip() bool {
	if !i.Op.Valid() || forms[i.Op].ins == nil {
		return false
	}
	return chip8cpu.SkipInstructions.Contains(forms[i.Op].ins.Name)
}

// IsDataReference returns true if the instruction loads a memory address into
// the index register (LD I, addr).
func (i Instruction) IsDataReference() bool {
	return i.Op == OpLdI
}
