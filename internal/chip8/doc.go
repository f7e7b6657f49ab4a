// Package chip8 implements the CHIP-8 virtual machine core.
//
// # Machine Overview
//
// CHIP-8 is an interpreted programming language from the 1970s designed for simple
// games. The machine has:
//   - 4KB of memory (0x000-MaxAddress), programs load at ProgramStart (0x200)
//   - 16 general-purpose 8-bit registers (V0-VF), VF doubles as flags register
//   - a 16-bit index register I and the program counter
//   - a 16 entry call stack
//   - delay and sound timers counting down at 60 Hz
//   - a 16 key hexadecimal keypad
//   - a 64×32 monochrome display, see package display
//
// # Execution Model
//
// The core does not own any clock or device. A driver loads a program, calls Step
// at its chosen instruction rate, calls TickTimers at 60 Hz and reports key changes
// with SetKeyState. The framebuffer is read with Framebuffer, which returns a copy.
//
// The wait for key instruction (LD Vx, K) does not block. It puts the machine into a
// waiting state in which Step does nothing until a key press is observed.
//
// # Quirks
//
// Historic interpreters disagree on a few instruction details. Every variation point is
// a field of Quirks; QuirksForProfile returns the settings of the known interpreters.
//
// # Usage Example
//
//	machine := chip8.New(chip8.DefaultConfig())
//	if err := machine.Load(rom); err != nil {
//		return fmt.Errorf("loading rom: %w", err)
//	}
//
//	for range instructionsPerFrame {
//		if err := machine.Step(); err != nil {
//			return fmt.Errorf("executing instruction: %w", err)
//		}
//	}
//	machine.TickTimers()
//	fb := machine.Framebuffer()
package chip8
