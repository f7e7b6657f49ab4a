package disasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrochip8/internal/chip8"
)

// write outputs the assembler source of all parsed offsets.
func (dis *Disasm) write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "; CHIP-8 ROM Disassembly\n"); err != nil {
		return fmt.Errorf("writing header comment: %w", err)
	}
	if _, err := fmt.Fprintf(w, "; Program starts at $%03X in CHIP-8 memory space\n\n", chip8.ProgramStart); err != nil {
		return fmt.Errorf("writing memory space comment: %w", err)
	}
	if _, err := fmt.Fprintf(w, ".org $%03X\n\n", chip8.ProgramStart); err != nil {
		return fmt.Errorf("writing org directive: %w", err)
	}

	endIndex := dis.endIndex()
	for _, off := range dis.offsets[:endIndex] {
		if name := dis.label(off.address); name != "" {
			if _, err := fmt.Fprintf(w, "%s:\n", name); err != nil {
				return fmt.Errorf("writing label %s: %w", name, err)
			}
		}
		if err := dis.writeOffset(w, off); err != nil {
			return err
		}
	}
	return nil
}

// writeOffset writes either code or data for an offset.
func (dis *Disasm) writeOffset(w io.Writer, off offset) error {
	var line string
	switch {
	case off.code != "":
		line = "    " + off.code
	case len(off.data) == 2:
		line = fmt.Sprintf("    .word $%02X%02X", off.data[0], off.data[1])
	default:
		line = fmt.Sprintf("    .byte $%02X", off.data[0])
	}

	comment := dis.comment(off)
	if comment == "" {
		if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
			return fmt.Errorf("writing offset $%04X: %w", off.address, err)
		}
		return nil
	}
	if _, err := fmt.Fprintf(w, "%-32s ; %s\n", line, comment); err != nil {
		return fmt.Errorf("writing offset $%04X with comment: %w", off.address, err)
	}
	return nil
}

// comment returns the offset and opcode bytes comment of an offset
// depending on the enabled options.
func (dis *Disasm) comment(off offset) string {
	var parts []string
	if dis.options.OffsetComments {
		parts = append(parts, fmt.Sprintf("$%04X", off.address))
	}
	if dis.options.HexComments {
		for _, b := range off.data {
			parts = append(parts, fmt.Sprintf("%02X", b))
		}
	}
	return strings.Join(parts, " ")
}

// endIndex returns the index after the last meaningful offset of the ROM.
// Trailing zero words are only kept if they are referenced by a label.
func (dis *Disasm) endIndex() int {
	if dis.options.ZeroBytes {
		return len(dis.offsets)
	}

	for i := len(dis.offsets) - 1; i >= 0; i-- {
		off := dis.offsets[i]
		if dis.label(off.address) != "" {
			return i + 1
		}
		for _, b := range off.data {
			if b != 0 {
				return i + 1
			}
		}
	}
	return 0
}
