package chip8

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestInstructionString(t *testing.T) {
	tests := []struct {
		opcode   uint16
		expected string
	}{
		{0x00E0, "cls"},
		{0x00EE, "ret"},
		{0x0123, "sys $123"},
		{0x1234, "jp $234"},
		{0x2ABC, "call $ABC"},
		{0x3234, "se V2, $34"},
		{0x4A01, "sne VA, $01"},
		{0x5230, "se V2, V3"},
		{0x6005, "ld V0, $05"},
		{0x700A, "add V0, $0A"},
		{0x8230, "ld V2, V3"},
		{0x8234, "add V2, V3"},
		{0x8236, "shr V2, V3"},
		{0x823E, "shl V2, V3"},
		{0x9230, "sne V2, V3"},
		{0xA234, "ld I, $234"},
		{0xB234, "jp V0, $234"},
		{0xC30F, "rnd V3, $0F"},
		{0xD235, "drw V2, V3, $5"},
		{0xE29E, "skp V2"},
		{0xE2A1, "sknp V2"},
		{0xF207, "ld V2, DT"},
		{0xF20A, "ld V2, K"},
		{0xF215, "ld DT, V2"},
		{0xF218, "ld ST, V2"},
		{0xF21E, "add I, V2"},
		{0xF229, "ld F, V2"},
		{0xF233, "ld B, V2"},
		{0xF355, "ld [I], V3"},
		{0xF365, "ld V3, [I]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			ins, err := Decode(tt.opcode)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, ins.String())
		})
	}
}

func TestOp(t *testing.T) {
	assert.False(t, Op(0).Valid())
	assert.False(t, opCount.Valid())
	assert.True(t, OpSys.Valid())
	assert.True(t, OpLdVxI.Valid())

	assert.Equal(t, "8xy4", OpAddReg.String())
	assert.Equal(t, "Op(0)", Op(0).String())
	assert.Equal(t, "add", OpAddReg.Name())
	assert.Equal(t, "sys", OpSys.Name())
	assert.Equal(t, "", Op(0).Name())

	for op := OpSys; op < opCount; op++ {
		assert.NotEmpty(t, op.Name())
		assert.Equal(t, 4, len(op.String()))
	}
}

func TestInstructionClassification(t *testing.T) {
	tests := []struct {
		name   string
		op     Op
		jump   bool
		call   bool
		ret    bool
		skip   bool
		dataRe bool
	}{
		{"jp", OpJp, true, false, false, false, false},
		{"jp v0", OpJpV0, true, false, false, false, false},
		{"call", OpCall, false, true, false, false, false},
		{"ret", OpRet, false, false, true, false, false},
		{"se byte", OpSeByte, false, false, false, true, false},
		{"sne reg", OpSneReg, false, false, false, true, false},
		{"skp", OpSkp, false, false, false, true, false},
		{"sknp", OpSknp, false, false, false, true, false},
		{"ld i", OpLdI, false, false, false, false, true},
		{"add", OpAddReg, false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins := Instruction{Op: tt.op}
			assert.Equal(t, tt.jump, ins.IsJump())
			assert.Equal(t, tt.call, ins.IsCall())
			assert.Equal(t, tt.ret, ins.IsReturn())
			assert.Equal(t, tt.skip, ins.IsSkip())
			assert.Equal(t, tt.dataRe, ins.IsDataReference())
		})
	}
}
